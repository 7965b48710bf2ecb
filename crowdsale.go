// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crowdsale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/crowdsale/caps"
	"github.com/blinklabs-io/crowdsale/event"
	"github.com/blinklabs-io/crowdsale/ledger"
	"github.com/blinklabs-io/crowdsale/registry"
	"github.com/blinklabs-io/crowdsale/types"
	"github.com/blinklabs-io/crowdsale/window"
)

const tracerName = "github.com/blinklabs-io/crowdsale"

// Call carries the host context of a mutating operation
type Call struct {
	Caller common.Address
	// Now is the current unix time in seconds
	Now   uint64
	Block uint64
	// Value is the amount of value sent with the call
	Value *big.Int
}

func (c Call) value() *big.Int {
	return types.CopyInt(c.Value)
}

type saleState struct {
	window     window.Window
	caps       *caps.Tracker
	rate       *big.Int
	investors  *registry.Investors
	invoices   *registry.Invoices
	deposits   *ledger.Ledger
	finished   bool
	finishTime uint64
	refundMode bool
	block      uint64
}

func (s *saleState) clone() *saleState {
	return &saleState{
		window:     s.window,
		caps:       s.caps.Clone(),
		rate:       new(big.Int).Set(s.rate),
		investors:  s.investors.Clone(),
		invoices:   s.invoices.Clone(),
		deposits:   s.deposits.Clone(),
		finished:   s.finished,
		finishTime: s.finishTime,
		refundMode: s.refundMode,
		block:      s.block,
	}
}

func (s *saleState) stateAt(now uint64) types.State {
	switch {
	case s.finished:
		return types.StateFinished
	case s.window.HasClosed(now):
		return types.StateClosed
	case s.window.IsOpen(now):
		return types.StateOpen
	default:
		return types.StateNotStarted
	}
}

func (s *saleState) snapshot() *types.Snapshot {
	return &types.Snapshot{
		Sale: types.SaleSnapshot{
			OpeningTime: s.window.OpeningTime,
			ClosingTime: s.window.ClosingTime,
			Rate:        new(big.Int).Set(s.rate),
			SoftCap:     s.caps.SoftCap(),
			HardCap:     s.caps.HardCap(),
			Raised:      s.caps.Total(),
			Finished:    s.finished,
			FinishTime:  s.finishTime,
			RefundMode:  s.refundMode,
			Block:       s.block,
		},
		Deposits:  s.deposits.Entries(),
		KycPassed: s.deposits.KycPassedWallets(),
		Deals:     s.investors.Records(),
		Invoices:  s.invoices.Records(),
	}
}

// Crowdsale is the time-gated deposit and vesting state machine. Mutating
// operations are serialized. Queries read the last committed state and never
// block on a running operation.
type Crowdsale struct {
	config  Config
	logger  *slog.Logger
	metrics *crowdsaleMetrics
	tracer  trace.Tracer
	mu      sync.Mutex
	state   atomic.Pointer[saleState]
}

// New creates a crowdsale that opens in the future relative to now
func New(params Params, now uint64, opts ...ConfigOptionFunc) (*Crowdsale, error) {
	w, err := window.New(params.OpeningTime, params.ClosingTime, now)
	if err != nil {
		return nil, err
	}
	tracker, err := caps.New(params.SoftCap, params.HardCap)
	if err != nil {
		return nil, err
	}
	if params.Rate == nil || params.Rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: rate must be positive", types.ErrInvalidArgument)
	}
	state := &saleState{
		window:    w,
		caps:      tracker,
		rate:      new(big.Int).Set(params.Rate),
		investors: registry.NewInvestors(),
		invoices:  registry.NewInvoices(),
		deposits:  ledger.New(),
	}
	return newCrowdsale(state, opts)
}

// Restore rebuilds a crowdsale from a persisted snapshot
func Restore(snapshot *types.Snapshot, opts ...ConfigOptionFunc) (*Crowdsale, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", types.ErrInvalidArgument)
	}
	sale := snapshot.Sale
	w, err := window.Restore(sale.OpeningTime, sale.ClosingTime)
	if err != nil {
		return nil, err
	}
	tracker, err := caps.Restore(sale.SoftCap, sale.HardCap, sale.Raised)
	if err != nil {
		return nil, err
	}
	if sale.Rate == nil || sale.Rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: rate must be positive", types.ErrInvalidArgument)
	}
	deposits, err := ledger.Restore(snapshot.Deposits, snapshot.KycPassed)
	if err != nil {
		return nil, err
	}
	state := &saleState{
		window:     w,
		caps:       tracker,
		rate:       new(big.Int).Set(sale.Rate),
		investors:  registry.RestoreInvestors(snapshot.Deals),
		invoices:   registry.RestoreInvoices(snapshot.Invoices),
		deposits:   deposits,
		finished:   sale.Finished,
		finishTime: sale.FinishTime,
		refundMode: sale.RefundMode,
		block:      sale.Block,
	}
	return newCrowdsale(state, opts)
}

func newCrowdsale(state *saleState, opts []ConfigOptionFunc) (*Crowdsale, error) {
	cfg := NewConfig(opts...)
	if cfg.admins == nil {
		return nil, errors.New("no admin registry configured")
	}
	if cfg.token == nil {
		return nil, errors.New("no token ledger configured")
	}
	if cfg.store == nil && cfg.valueSender == nil {
		return nil, errors.New("no store or value sender configured")
	}
	if cfg.bonusSchedule == nil {
		return nil, errors.New("no bonus schedule configured")
	}
	c := &Crowdsale{
		config: cfg,
		logger: cfg.logger.With("component", "crowdsale"),
		tracer: cfg.tracerProvider.Tracer(tracerName),
	}
	c.state.Store(state)
	if cfg.promRegistry != nil {
		c.metrics = &crowdsaleMetrics{}
		c.metrics.init(cfg.promRegistry)
		c.updateMetrics(state, 0)
	}
	return c, nil
}

type interactionCtxKey struct{}

// inInteraction reports whether ctx belongs to a collaborator call made
// while an operation is in progress
func inInteraction(ctx context.Context) bool {
	v, _ := ctx.Value(interactionCtxKey{}).(bool)
	return v
}

// txn is the working copy of an operation. Nothing in it becomes visible
// until the operation commits.
type txn struct {
	call    Call
	state   *saleState
	events  []event.Event
	credits []types.TokenCredit
	effects types.Effects
}

func (t *txn) emit(evtType event.EventType, data any) {
	t.events = append(
		t.events,
		event.Event{
			Type:      evtType,
			Timestamp: time.Unix(int64(t.call.Now), 0).UTC(), // #nosec G115
			Block:     t.call.Block,
			Data:      data,
		},
	)
}

// send queues a payout. It leaves escrow with the commit of the operation.
func (t *txn) send(to common.Address, amount *big.Int) {
	t.effects.Payouts = append(
		t.effects.Payouts,
		types.Payout{To: to, Amount: new(big.Int).Set(amount)},
	)
}

// credit queues minting tokens to account
func (t *txn) credit(account common.Address, amount *big.Int) {
	t.credits = append(
		t.credits,
		types.TokenCredit{Account: account, Amount: new(big.Int).Set(amount)},
	)
}

func (t *txn) setTransferLock(locked bool) {
	t.effects.TransferLock = &locked
}

func (c *Crowdsale) apply(
	ctx context.Context,
	op string,
	call Call,
	fn func(*txn) error,
) error {
	if inInteraction(ctx) {
		return fmt.Errorf("%s: %w", op, types.ErrReentrantCall)
	}
	ctx, span := c.tracer.Start(
		ctx,
		"crowdsale."+op,
		trace.WithAttributes(
			attribute.String("caller", call.Caller.Hex()),
			attribute.Int64("block", int64(call.Block)), // #nosec G115
		),
	)
	defer span.End()
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	tx := &txn{
		call:  call,
		state: c.state.Load().clone(),
	}
	if err := c.execute(ctx, tx, fn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if c.metrics != nil {
			c.metrics.operationErrors.WithLabelValues(op).Inc()
		}
		c.logger.Debug(
			"operation rejected",
			"operation", op,
			"caller", call.Caller.Hex(),
			"error", err,
		)
		return err
	}
	c.config.token.Apply(&tx.effects)
	c.state.Store(tx.state)
	if c.metrics != nil {
		c.metrics.operationsTotal.WithLabelValues(op).Inc()
		c.metrics.operationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		c.updateMetrics(tx.state, call.Now)
	}
	c.logger.Debug(
		"operation applied",
		"operation", op,
		"caller", call.Caller.Hex(),
		"block", call.Block,
		"events", len(tx.events),
	)
	if c.config.eventBus != nil {
		for _, evt := range tx.events {
			c.config.eventBus.Publish(evt)
		}
	}
	return nil
}

func (c *Crowdsale) execute(ctx context.Context, tx *txn, fn func(*txn) error) error {
	if err := fn(tx); err != nil {
		return err
	}
	if tx.call.Block > tx.state.block {
		tx.state.block = tx.call.Block
	}
	if len(tx.credits) > 0 {
		balances, totalSupply, err := c.config.token.StageCredits(tx.credits)
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrTransferFailed, err)
		}
		tx.effects.Balances = balances
		tx.effects.TotalSupply = totalSupply
	}
	// Collaborators called from here must not call back into the crowdsale
	interactionCtx := context.WithValue(ctx, interactionCtxKey{}, true)
	if c.config.store == nil {
		return c.sendPayouts(interactionCtx, tx.effects.Payouts)
	}
	// Payouts, token balances and the lock are written in the same
	// transaction as the state, so a failed operation can be retried
	if err := c.config.store.Commit(interactionCtx, tx.state.snapshot(), tx.events, &tx.effects); err != nil {
		return fmt.Errorf("commit crowdsale state: %w", err)
	}
	return nil
}

// sendPayouts hands the payouts of an operation to the value sender when
// there is no store to record them
func (c *Crowdsale) sendPayouts(ctx context.Context, payouts []types.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	if c.config.valueSender == nil {
		return fmt.Errorf("%w: no value sender configured", types.ErrTransferFailed)
	}
	if err := c.config.valueSender.SendValues(ctx, payouts); err != nil {
		return fmt.Errorf("%w: %w", types.ErrTransferFailed, err)
	}
	return nil
}

func (c *Crowdsale) updateMetrics(state *saleState, now uint64) {
	c.metrics.raisedWei.Set(bigToFloat(state.caps.Total()))
	c.metrics.depositEntries.Set(float64(state.deposits.Len()))
	c.metrics.deals.Set(float64(state.investors.Len()))
	c.metrics.invoices.Set(float64(state.invoices.Len()))
	c.metrics.state.Set(float64(state.stateAt(now)))
}

func (c *Crowdsale) requireAdmin(call Call) error {
	if !c.config.admins.IsAdmin(call.Caller) {
		return fmt.Errorf(
			"%w: %s is not an admin",
			types.ErrUnauthorized,
			call.Caller.Hex(),
		)
	}
	return nil
}

func requireOpen(tx *txn) error {
	if st := tx.state.stateAt(tx.call.Now); st != types.StateOpen {
		return fmt.Errorf("%w: state is %s", types.ErrNotOpen, st.String())
	}
	return nil
}

// State returns the lifecycle state at the given time
func (c *Crowdsale) State(now uint64) types.State {
	return c.state.Load().stateAt(now)
}

func (c *Crowdsale) Window() window.Window {
	return c.state.Load().window
}

func (c *Crowdsale) Rate() *big.Int {
	return new(big.Int).Set(c.state.Load().rate)
}

func (c *Crowdsale) TotalRaised() *big.Int {
	return c.state.Load().caps.Total()
}

func (c *Crowdsale) SoftCapReached() bool {
	return c.state.Load().caps.SoftCapReached()
}

func (c *Crowdsale) HardCapReached() bool {
	return c.state.Load().caps.HardCapReached()
}

// FinishTime returns the time the crowdsale was finished, if it was
func (c *Crowdsale) FinishTime() (uint64, bool) {
	state := c.state.Load()
	return state.finishTime, state.finished
}

// RefundMode reports whether the crowdsale finished below its soft cap
func (c *Crowdsale) RefundMode() bool {
	return c.state.Load().refundMode
}

func (c *Crowdsale) Deposit(wallet common.Address) (*types.DepositEntry, bool) {
	return c.state.Load().deposits.Entry(wallet)
}

// ClaimableAt returns the tokens the wallet could claim at the given time
func (c *Crowdsale) ClaimableAt(wallet common.Address, now uint64) *big.Int {
	state := c.state.Load()
	if !state.finished || state.refundMode || now < state.finishTime {
		return new(big.Int)
	}
	return state.deposits.ClaimableAt(wallet, now-state.finishTime)
}

func (c *Crowdsale) Deal(investor common.Address) (types.Deal, bool) {
	return c.state.Load().investors.Get(investor)
}

func (c *Crowdsale) Deals() []types.DealRecord {
	return c.state.Load().investors.Records()
}

func (c *Crowdsale) Invoice(investor common.Address) (types.Invoice, bool) {
	return c.state.Load().invoices.Get(investor)
}

func (c *Crowdsale) Invoices() []types.InvoiceRecord {
	return c.state.Load().invoices.Records()
}

// BonusPercentAt returns the schedule bonus percent applied at the given time
func (c *Crowdsale) BonusPercentAt(now uint64) uint64 {
	return c.config.bonusSchedule.PercentAt(c.state.Load().window.Elapsed(now))
}

// Snapshot returns the complete committed state
func (c *Crowdsale) Snapshot() *types.Snapshot {
	return c.state.Load().snapshot()
}

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

package crowdsale_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/crowdsale"
	"github.com/blinklabs-io/crowdsale/admin"
	"github.com/blinklabs-io/crowdsale/event"
	"github.com/blinklabs-io/crowdsale/ledger"
	"github.com/blinklabs-io/crowdsale/token"
	"github.com/blinklabs-io/crowdsale/types"
)

const (
	day     = 86400
	opening = 1_000_000
	closing = opening + 60*day
)

var (
	owner        = common.HexToAddress("0x0000000000000000000000000000000000000101")
	adminAddr    = common.HexToAddress("0x0000000000000000000000000000000000000102")
	investor     = common.HexToAddress("0x0000000000000000000000000000000000000201")
	investor2    = common.HexToAddress("0x0000000000000000000000000000000000000202")
	investor3    = common.HexToAddress("0x0000000000000000000000000000000000000203")
	incomeWallet = common.HexToAddress("0x0000000000000000000000000000000000000301")
	bonusWallet  = common.HexToAddress("0x0000000000000000000000000000000000000302")
	income2      = common.HexToAddress("0x0000000000000000000000000000000000000303")
	income3      = common.HexToAddress("0x0000000000000000000000000000000000000304")
	stranger     = common.HexToAddress("0x0000000000000000000000000000000000000999")
)

type payout struct {
	to     common.Address
	amount int64
}

func toPayouts(payouts []types.Payout) []payout {
	ret := make([]payout, 0, len(payouts))
	for _, p := range payouts {
		ret = append(ret, payout{to: p.To, amount: p.Amount.Int64()})
	}
	return ret
}

type mockSender struct {
	fail    bool
	payouts []payout
}

func (m *mockSender) SendValues(_ context.Context, payouts []types.Payout) error {
	if m.fail {
		return errors.New("send failed")
	}
	m.payouts = append(m.payouts, toPayouts(payouts)...)
	return nil
}

type memStore struct {
	fail      bool
	onCommit  func(ctx context.Context)
	commits   int
	snapshot  *types.Snapshot
	committed []event.Event
	payouts   []payout
}

func (m *memStore) Commit(
	ctx context.Context,
	snapshot *types.Snapshot,
	evts []event.Event,
	effects *types.Effects,
) error {
	if m.onCommit != nil {
		m.onCommit(ctx)
	}
	if m.fail {
		return errors.New("disk full")
	}
	m.commits++
	m.snapshot = snapshot
	m.committed = append(m.committed, evts...)
	m.payouts = append(m.payouts, toPayouts(effects.Payouts)...)
	return nil
}

type testEnv struct {
	cs     *crowdsale.Crowdsale
	book   *token.Book
	sender *mockSender
	store  *memStore
	evtCh  <-chan event.Event
}

// newTestEnv creates a crowdsale that persists to an in-memory store
func newTestEnv(t *testing.T, softCap int64, hardCap int64) *testEnv {
	t.Helper()
	return newEnv(t, softCap, hardCap, true)
}

// newSenderEnv creates a crowdsale without a store, so payouts go to the
// value sender
func newSenderEnv(t *testing.T, softCap int64, hardCap int64) *testEnv {
	t.Helper()
	return newEnv(t, softCap, hardCap, false)
}

func newEnv(t *testing.T, softCap int64, hardCap int64, persistent bool) *testEnv {
	t.Helper()
	admins, err := admin.New(owner, adminAddr)
	require.NoError(t, err)
	book, err := token.New(owner)
	require.NoError(t, err)
	eb := event.NewEventBus(nil, nil)
	t.Cleanup(eb.Stop)
	_, evtCh := eb.Subscribe(event.AllEvents)
	env := &testEnv{
		book:   book,
		sender: &mockSender{},
		store:  &memStore{},
		evtCh:  evtCh,
	}
	opts := []crowdsale.ConfigOptionFunc{
		crowdsale.WithAdminRegistry(admins),
		crowdsale.WithTokenLedger(book),
		crowdsale.WithValueSender(env.sender),
		crowdsale.WithEventBus(eb),
		crowdsale.WithPrometheusRegistry(prometheus.NewRegistry()),
	}
	if persistent {
		opts = append(opts, crowdsale.WithStore(env.store))
	}
	env.cs, err = crowdsale.New(
		crowdsale.Params{
			OpeningTime: opening,
			ClosingTime: closing,
			Rate:        big.NewInt(100),
			SoftCap:     big.NewInt(softCap),
			HardCap:     big.NewInt(hardCap),
		},
		opening-1,
		opts...,
	)
	require.NoError(t, err)
	return env
}

// events drains the published events and returns their types
func (e *testEnv) events() []event.EventType {
	var ret []event.EventType
	for {
		select {
		case evt := <-e.evtCh:
			ret = append(ret, evt.Type)
		default:
			return ret
		}
	}
}

func call(caller common.Address, now uint64) crowdsale.Call {
	return crowdsale.Call{Caller: caller, Now: now, Block: now / 10}
}

func pay(caller common.Address, now uint64, value int64) crowdsale.Call {
	c := call(caller, now)
	c.Value = big.NewInt(value)
	return c
}

// testDeal returns a deal that books contributions to incomeWallet
func testDeal(deadline uint64) types.Deal {
	return types.Deal{
		IncomeWallet:      incomeWallet,
		BonusWallet:       bonusWallet,
		MinWeiAmount:      big.NewInt(5),
		BonusDeadline:     deadline,
		BonusSharePercent: 20,
	}
}

// dealWith returns a deal that books contributions to income
func dealWith(income common.Address, deadline uint64) types.Deal {
	deal := testDeal(deadline)
	deal.IncomeWallet = income
	return deal
}

func (e *testEnv) addDeal(t *testing.T, who common.Address, deal types.Deal) {
	t.Helper()
	require.NoError(t, e.cs.AddUpdatePreSaleDeal(context.Background(), call(adminAddr, opening), who, deal))
}

func TestNewValidation(t *testing.T) {
	admins, err := admin.New(owner)
	require.NoError(t, err)
	book, err := token.New(owner)
	require.NoError(t, err)
	params := crowdsale.Params{
		OpeningTime: opening,
		ClosingTime: closing,
		Rate:        big.NewInt(1),
		SoftCap:     big.NewInt(1),
		HardCap:     big.NewInt(2),
	}
	_, err = crowdsale.New(params, opening, crowdsale.WithAdminRegistry(admins))
	require.ErrorIs(t, err, types.ErrInvalidWindow)
	_, err = crowdsale.New(params, 0, crowdsale.WithAdminRegistry(admins))
	require.Error(t, err, "missing collaborators")
	params.Rate = big.NewInt(0)
	_, err = crowdsale.New(
		params,
		0,
		crowdsale.WithAdminRegistry(admins),
		crowdsale.WithTokenLedger(book),
		crowdsale.WithValueSender(&mockSender{}),
	)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestStateTransitions(t *testing.T) {
	env := newTestEnv(t, 10, 1000)
	ctx := context.Background()
	require.Equal(t, types.StateNotStarted, env.cs.State(opening-1))
	require.Equal(t, types.StateOpen, env.cs.State(opening))
	require.Equal(t, types.StateClosed, env.cs.State(closing))

	err := env.cs.FinishCrowdsale(ctx, call(adminAddr, closing-1))
	require.ErrorIs(t, err, types.ErrNotClosed)
	err = env.cs.FinishCrowdsale(ctx, call(stranger, closing))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))
	require.Equal(t, types.StateFinished, env.cs.State(closing))
	err = env.cs.FinishCrowdsale(ctx, call(adminAddr, closing+1))
	require.ErrorIs(t, err, types.ErrAlreadyFinished)

	finishTime, finished := env.cs.FinishTime()
	require.True(t, finished)
	require.Equal(t, uint64(closing), finishTime)
	// Nothing was raised, so the sale is in refund mode
	require.True(t, env.cs.RefundMode())
	require.Equal(
		t,
		[]event.EventType{crowdsale.CrowdsaleFinishedEventType, crowdsale.RefundsEnabledEventType},
		env.events(),
	)
}

func TestReceiveContribution(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()

	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening-1, 10))
	require.ErrorIs(t, err, types.ErrNotOpen)
	_, err = env.cs.ReceiveContribution(ctx, pay(investor, opening, 10))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.ErrorIs(t, err, types.ErrNotWhitelisted)

	env.addDeal(t, investor, testDeal(opening+10*day))
	require.Equal(t, []event.EventType{crowdsale.InvestorAddedEventType}, env.events())

	_, err = env.cs.ReceiveContribution(ctx, pay(investor, opening, 4))
	require.ErrorIs(t, err, types.ErrBelowMinimum)
	_, err = env.cs.ReceiveContribution(ctx, pay(investor, opening, 0))
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	// 10 wei at rate 100 plus 60% bonus on day 1
	tokens, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	require.Equal(t, int64(1600), tokens.Int64())

	// No bonus after the deal's bonus deadline
	tokens, err = env.cs.ReceiveContribution(ctx, pay(investor, opening+20*day, 10))
	require.NoError(t, err)
	require.Equal(t, int64(1000), tokens.Int64())

	// Contributions are booked to the deal's income wallet
	_, ok := env.cs.Deposit(investor)
	require.False(t, ok)
	entry, ok := env.cs.Deposit(incomeWallet)
	require.True(t, ok)
	require.Equal(t, investor, entry.Investor)
	require.Equal(t, int64(2600), entry.DepositedTokens.Int64())
	require.Equal(t, int64(20), entry.DepositedValue.Int64())
	require.Equal(t, incomeWallet, entry.IncomeWallet)
	require.Equal(t, int64(20), env.cs.TotalRaised().Int64())
	require.True(t, env.cs.SoftCapReached())
	require.Equal(
		t,
		[]event.EventType{crowdsale.DepositAddedEventType, crowdsale.DepositIncreasedEventType},
		env.events(),
	)
	committed := env.store.committed
	added, ok := committed[len(committed)-2].Data.(crowdsale.DepositAddedEvent)
	require.True(t, ok)
	require.Equal(t, investor, added.Investor)
	require.Equal(t, incomeWallet, added.Wallet)
	increased, ok := committed[len(committed)-1].Data.(crowdsale.DepositIncreasedEvent)
	require.True(t, ok)
	require.Equal(t, incomeWallet, increased.Wallet)
	require.Equal(t, int64(2600), increased.Total.Int64())
}

func TestInvestorsShareIncomeWallet(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	env.addDeal(t, investor2, testDeal(opening))
	env.addDeal(t, investor3, dealWith(income3, opening))
	env.events()

	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	_, err = env.cs.ReceiveContribution(ctx, pay(investor2, opening+day, 20))
	require.NoError(t, err)
	_, err = env.cs.ReceiveContribution(ctx, pay(investor3, opening+day, 5))
	require.NoError(t, err)

	shared, ok := env.cs.Deposit(incomeWallet)
	require.True(t, ok)
	require.Equal(t, int64(30), shared.DepositedValue.Int64())
	require.Equal(t, int64(3000), shared.DepositedTokens.Int64())
	require.Equal(t, investor2, shared.Investor)
	own, ok := env.cs.Deposit(income3)
	require.True(t, ok)
	require.Equal(t, int64(5), own.DepositedValue.Int64())
	for _, addr := range []common.Address{investor, investor2, investor3} {
		_, ok := env.cs.Deposit(addr)
		require.False(t, ok)
	}
	require.Equal(
		t,
		[]event.EventType{
			crowdsale.DepositAddedEventType,
			crowdsale.DepositIncreasedEventType,
			crowdsale.DepositAddedEventType,
		},
		env.events(),
	)
}

func TestDealBonusRate(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	deal := testDeal(opening + 40*day)
	deal.BonusRate = big.NewInt(200)
	env.addDeal(t, investor, deal)

	// Deal rate 200 plus 50% schedule bonus on day 35
	tokens, err := env.cs.ReceiveContribution(context.Background(), pay(investor, opening+35*day, 10))
	require.NoError(t, err)
	require.Equal(t, int64(3000), tokens.Int64())
	require.Equal(t, uint64(50), env.cs.BonusPercentAt(opening+35*day))
}

func TestHardCapRejectsWholeContribution(t *testing.T) {
	env := newTestEnv(t, 10, 100)
	env.addDeal(t, investor, testDeal(opening))
	ctx := context.Background()

	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 90))
	require.NoError(t, err)
	_, err = env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 11))
	require.ErrorIs(t, err, types.ErrHardCapExceeded)
	require.Equal(t, int64(90), env.cs.TotalRaised().Int64())
	_, err = env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	require.True(t, env.cs.HardCapReached())
}

func TestFinishForwardsEscrow(t *testing.T) {
	env := newTestEnv(t, 1000, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	require.NoError(t, env.cs.AddUpdateInvoice(
		ctx,
		call(adminAddr, opening),
		investor2,
		types.Invoice{TokenAmount: big.NewInt(777), ExternalID: "wire-1"},
	))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 1000))
	require.NoError(t, err)
	env.events()

	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))
	require.False(t, env.cs.RefundMode())
	require.Equal(
		t,
		[]payout{{to: bonusWallet, amount: 200}, {to: incomeWallet, amount: 800}},
		env.store.payouts,
	)
	require.Empty(t, env.sender.payouts)
	require.Equal(
		t,
		[]event.EventType{
			crowdsale.CrowdsaleFinishedEventType,
			crowdsale.InvoiceSettledEventType,
			crowdsale.ValueForwardedEventType,
			crowdsale.ValueForwardedEventType,
		},
		env.events(),
	)

	// The invoice became a deposit entry
	entry, ok := env.cs.Deposit(investor2)
	require.True(t, ok)
	require.Equal(t, int64(777), entry.DepositedTokens.Int64())
	require.Empty(t, env.cs.Invoices())

	// Escrow is gone, so refunds are no longer possible
	_, err = env.cs.RefundDeposit(ctx, call(adminAddr, closing+1), incomeWallet)
	require.ErrorIs(t, err, types.ErrAlreadyFinished)
}

func TestRefundMode(t *testing.T) {
	env := newTestEnv(t, 1000, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	env.addDeal(t, investor2, dealWith(income2, opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 300))
	require.NoError(t, err)
	_, err = env.cs.ReceiveContribution(ctx, pay(investor2, opening+day, 200))
	require.NoError(t, err)
	require.NoError(t, env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening+day), incomeWallet, true))

	// Self refunds are only possible in refund mode
	_, err = env.cs.RefundDeposit(ctx, call(incomeWallet, opening+2*day), incomeWallet)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))
	require.True(t, env.cs.RefundMode())
	require.Empty(t, env.store.payouts)

	_, err = env.cs.Claim(ctx, call(incomeWallet, closing+day), incomeWallet)
	require.ErrorIs(t, err, types.ErrSoftCapNotReached)

	value, err := env.cs.RefundDeposit(ctx, call(incomeWallet, closing+day), incomeWallet)
	require.NoError(t, err)
	require.Equal(t, int64(300), value.Int64())
	value, err = env.cs.RefundDeposit(ctx, call(adminAddr, closing+day), income2)
	require.NoError(t, err)
	require.Equal(t, int64(200), value.Int64())
	require.Equal(
		t,
		[]payout{{to: incomeWallet, amount: 300}, {to: income2, amount: 200}},
		env.store.payouts,
	)
	_, err = env.cs.RefundDeposit(ctx, call(adminAddr, closing+day), income2)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestRefundBeforeFinishReleasesCap(t *testing.T) {
	env := newTestEnv(t, 10, 100)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 100))
	require.NoError(t, err)
	require.True(t, env.cs.HardCapReached())

	_, err = env.cs.RefundDeposit(ctx, call(stranger, opening+day), incomeWallet)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	value, err := env.cs.RefundDeposit(ctx, call(adminAddr, opening+day), incomeWallet)
	require.NoError(t, err)
	require.Equal(t, int64(100), value.Int64())
	require.Equal(t, 0, env.cs.TotalRaised().Sign())
	env.events()

	// Room under the hard cap is available again
	_, err = env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 100))
	require.NoError(t, err)
	// The emptied entry counts as a new deposit
	require.Equal(t, []event.EventType{crowdsale.DepositAddedEventType}, env.events())
}

func TestClaimVesting(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	deposit, _ := env.cs.Deposit(incomeWallet)
	total := deposit.DepositedTokens.Int64()
	require.Equal(t, int64(1000), total)

	require.NoError(t, env.cs.AssignDepositTimeLock(ctx, call(adminAddr, opening+day), incomeWallet, ledger.TimeLock{
		MainCliffAmountPercent:       80,
		MainCliffTime:                30 * day,
		AdditionalCliffAmountPercent: 10,
		AdditionalCliffTime:          40 * day,
	}))

	_, err = env.cs.Claim(ctx, call(incomeWallet, opening+2*day), incomeWallet)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))

	_, err = env.cs.Claim(ctx, call(stranger, closing+35*day), incomeWallet)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	_, err = env.cs.Claim(ctx, call(incomeWallet, closing+35*day), incomeWallet)
	require.ErrorIs(t, err, types.ErrKycNotPassed)

	require.NoError(t, env.cs.UpdateInvestorKYC(ctx, call(adminAddr, closing), incomeWallet, true))

	_, err = env.cs.Claim(ctx, call(incomeWallet, closing+10*day), incomeWallet)
	require.ErrorIs(t, err, types.ErrNothingToClaim)
	require.Equal(t, 0, env.cs.ClaimableAt(incomeWallet, closing+10*day).Sign())

	amount, err := env.cs.Claim(ctx, call(incomeWallet, closing+35*day), incomeWallet)
	require.NoError(t, err)
	require.Equal(t, total*80/100, amount.Int64())
	require.Equal(t, amount.Int64(), env.book.BalanceOf(incomeWallet).Int64())

	// An admin may claim on behalf of the wallet
	amount, err = env.cs.Claim(ctx, call(adminAddr, closing+45*day), incomeWallet)
	require.NoError(t, err)
	require.Equal(t, total-800, amount.Int64())
	require.Equal(t, total, env.book.BalanceOf(incomeWallet).Int64())

	_, err = env.cs.Claim(ctx, call(incomeWallet, closing+100*day), incomeWallet)
	require.ErrorIs(t, err, types.ErrNothingToClaim)
}

func TestRegistryDeleteEvents(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	for _, addr := range []common.Address{investor, investor2, investor3} {
		env.addDeal(t, addr, testDeal(opening))
	}
	env.addDeal(t, investor2, testDeal(opening+day))
	env.events()
	require.Len(t, env.cs.Deals(), 3)

	// Deleting a non-tail entry moves the tail key into its slot
	require.NoError(t, env.cs.DeletePreSaleDeal(ctx, call(adminAddr, opening), investor))
	require.Len(t, env.cs.Deals(), 2)
	require.Equal(t, investor3, env.cs.Deals()[0].Investor)
	require.Equal(
		t,
		[]event.EventType{
			crowdsale.DeletePreSaleDealInvestorsMapKeySkippedEventType,
			crowdsale.InvestorDeletedEventType,
		},
		env.events(),
	)

	// Deleting the tail emits no skip event
	require.NoError(t, env.cs.DeletePreSaleDeal(ctx, call(adminAddr, opening), investor2))
	require.Len(t, env.cs.Deals(), 1)
	require.Equal(t, []event.EventType{crowdsale.InvestorDeletedEventType}, env.events())

	err := env.cs.DeletePreSaleDeal(ctx, call(adminAddr, opening), investor2)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	require.ErrorIs(t, err, types.ErrNotFound)

	err = env.cs.DeletePreSaleDeal(ctx, call(stranger, opening), investor3)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	err = env.cs.DeletePreSaleDeal(ctx, call(adminAddr, closing), investor3)
	require.ErrorIs(t, err, types.ErrNotOpen)
}

func TestInvoiceRegistry(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	adminCall := call(adminAddr, opening)
	for idx, addr := range []common.Address{investor, investor2} {
		require.NoError(t, env.cs.AddUpdateInvoice(ctx, adminCall, addr, types.Invoice{
			TokenAmount: big.NewInt(int64(idx + 1)),
		}))
	}
	require.NoError(t, env.cs.AddUpdateInvoice(ctx, adminCall, investor, types.Invoice{
		TokenAmount: big.NewInt(50),
	}))
	invoice, ok := env.cs.Invoice(investor)
	require.True(t, ok)
	require.Equal(t, int64(50), invoice.TokenAmount.Int64())

	err := env.cs.AddUpdateInvoice(ctx, adminCall, investor3, types.Invoice{TokenAmount: big.NewInt(0)})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	require.NoError(t, env.cs.DeleteInvoice(ctx, adminCall, investor))
	require.Equal(
		t,
		[]event.EventType{
			crowdsale.InvoiceAddedEventType,
			crowdsale.InvoiceAddedEventType,
			crowdsale.InvoiceUpdatedEventType,
			crowdsale.DeleteInvoiceInvoiceMapKeysSkippedEventType,
			crowdsale.InvoiceDeletedEventType,
		},
		env.events(),
	)
	err = env.cs.DeleteInvoice(ctx, adminCall, investor)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateInvestorKYC(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	err := env.cs.UpdateInvestorKYC(ctx, call(stranger, opening), investor, true)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	err = env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening), common.Address{}, true)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	require.NoError(t, env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening), investor, true))
	// Setting the same value twice fails
	err = env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening), investor, true)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	require.NoError(t, env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening), investor, false))
}

func TestTimeLockRoundTrip(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	adminCall := call(adminAddr, opening)
	lock := ledger.TimeLock{
		MainCliffAmountPercent:       80,
		MainCliffTime:                30 * day,
		AdditionalCliffAmountPercent: 10,
		AdditionalCliffTime:          40 * day,
	}
	require.NoError(t, env.cs.AssignDepositTimeLock(ctx, adminCall, investor, lock))
	first, ok := env.cs.Deposit(investor)
	require.True(t, ok)
	require.NoError(t, env.cs.DeleteDepositTimeLock(ctx, adminCall, investor))
	require.NoError(t, env.cs.AssignDepositTimeLock(ctx, adminCall, investor, lock))
	second, _ := env.cs.Deposit(investor)
	require.Equal(t, first, second)

	single := ledger.TimeLock{MainCliffAmountPercent: 50, MainCliffTime: day}
	require.NoError(t, env.cs.AssignDepositTimeLock(ctx, adminCall, investor2, single))
	require.Equal(
		t,
		[]event.EventType{
			crowdsale.DepositTimeLockAssignedEventType,
			crowdsale.DepositTimeLockDeletedEventType,
			crowdsale.DepositTimeLockAssignedEventType,
			crowdsale.AdditionalCliffTimeGreaterThanZeroEventType,
			crowdsale.DepositTimeLockAssignedEventType,
		},
		env.events(),
	)

	err := env.cs.AssignDepositTimeLock(ctx, call(stranger, opening), investor, lock)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	err = env.cs.DeleteDepositTimeLock(ctx, adminCall, common.Address{})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestLockUnlockTokens(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	err := env.cs.LockTokens(ctx, call(owner, opening))
	require.ErrorIs(t, err, types.ErrAlreadyInState)
	err = env.cs.UnlockTokens(ctx, call(adminAddr, opening))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.NoError(t, env.cs.UnlockTokens(ctx, call(owner, opening)))
	require.False(t, env.book.TransferLocked())
	err = env.cs.UnlockTokens(ctx, call(owner, opening))
	require.ErrorIs(t, err, types.ErrAlreadyInState)
	require.NoError(t, env.cs.LockTokens(ctx, call(owner, opening)))
	require.True(t, env.book.TransferLocked())
	require.Equal(
		t,
		[]event.EventType{crowdsale.TokenUnlockedEventType, crowdsale.TokenLockedEventType},
		env.events(),
	)
}

func TestSetRate(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	err := env.cs.SetRate(ctx, call(adminAddr, opening-1), big.NewInt(5))
	require.ErrorIs(t, err, types.ErrNotOpen)
	err = env.cs.SetRate(ctx, call(adminAddr, opening), big.NewInt(0))
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	require.NoError(t, env.cs.SetRate(ctx, call(adminAddr, opening), big.NewInt(5)))
	require.Equal(t, int64(5), env.cs.Rate().Int64())

	env.addDeal(t, investor, testDeal(opening))
	tokens, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	require.Equal(t, int64(50), tokens.Int64())
}

func TestTransferFailureRollsBack(t *testing.T) {
	env := newSenderEnv(t, 10, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	env.events()

	env.sender.fail = true
	_, err = env.cs.RefundDeposit(ctx, call(adminAddr, opening+day), incomeWallet)
	require.ErrorIs(t, err, types.ErrTransferFailed)

	entry, _ := env.cs.Deposit(incomeWallet)
	require.Equal(t, int64(10), entry.DepositedValue.Int64())
	require.Equal(t, int64(10), env.cs.TotalRaised().Int64())
	require.Empty(t, env.events())
	require.Empty(t, env.sender.payouts)
	require.Zero(t, env.store.commits)

	env.sender.fail = false
	value, err := env.cs.RefundDeposit(ctx, call(adminAddr, opening+day), incomeWallet)
	require.NoError(t, err)
	require.Equal(t, int64(10), value.Int64())
	require.Equal(t, []payout{{to: incomeWallet, amount: 10}}, env.sender.payouts)
}

func TestStoreFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	env.store.fail = true
	err := env.cs.AddUpdatePreSaleDeal(context.Background(), call(adminAddr, opening), investor, testDeal(opening))
	require.Error(t, err)
	_, ok := env.cs.Deal(investor)
	require.False(t, ok)
	require.Empty(t, env.events())
}

func TestRetryAfterFailedFinishPaysOnce(t *testing.T) {
	env := newTestEnv(t, 1000, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 1000))
	require.NoError(t, err)
	env.events()

	env.store.fail = true
	err = env.cs.FinishCrowdsale(ctx, call(adminAddr, closing))
	require.Error(t, err)
	_, finished := env.cs.FinishTime()
	require.False(t, finished)
	require.Empty(t, env.store.payouts)

	env.store.fail = false
	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))
	err = env.cs.FinishCrowdsale(ctx, call(adminAddr, closing+1))
	require.ErrorIs(t, err, types.ErrAlreadyFinished)
	require.Equal(
		t,
		[]payout{{to: bonusWallet, amount: 200}, {to: incomeWallet, amount: 800}},
		env.store.payouts,
	)
	require.Empty(t, env.sender.payouts)
}

func TestRetryAfterFailedSendPaysOnce(t *testing.T) {
	env := newSenderEnv(t, 1000, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 1000))
	require.NoError(t, err)

	env.sender.fail = true
	err = env.cs.FinishCrowdsale(ctx, call(adminAddr, closing))
	require.ErrorIs(t, err, types.ErrTransferFailed)
	require.Empty(t, env.sender.payouts)

	env.sender.fail = false
	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))
	require.Equal(
		t,
		[]payout{{to: bonusWallet, amount: 200}, {to: incomeWallet, amount: 800}},
		env.sender.payouts,
	)
}

func TestRetryAfterFailedClaimMintsOnce(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	require.NoError(t, env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening+day), incomeWallet, true))
	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))

	env.store.fail = true
	_, err = env.cs.Claim(ctx, call(incomeWallet, closing+1), incomeWallet)
	require.Error(t, err)
	require.Equal(t, 0, env.book.BalanceOf(incomeWallet).Sign())
	require.Equal(t, 0, env.book.TotalSupply().Sign())

	env.store.fail = false
	amount, err := env.cs.Claim(ctx, call(incomeWallet, closing+1), incomeWallet)
	require.NoError(t, err)
	require.Equal(t, int64(1000), amount.Int64())
	_, err = env.cs.Claim(ctx, call(incomeWallet, closing+2), incomeWallet)
	require.ErrorIs(t, err, types.ErrNothingToClaim)
	require.Equal(t, int64(1000), env.book.BalanceOf(incomeWallet).Int64())
	require.Equal(t, int64(1000), env.book.TotalSupply().Int64())
}

func TestLockChangeWaitsForCommit(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	env.store.fail = true
	require.Error(t, env.cs.UnlockTokens(ctx, call(owner, opening)))
	require.True(t, env.book.TransferLocked())
	env.store.fail = false
	require.NoError(t, env.cs.UnlockTokens(ctx, call(owner, opening)))
	require.False(t, env.book.TransferLocked())
}

func TestReentrantCallRejected(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)

	var reentrantErr error
	env.store.onCommit = func(ctx context.Context) {
		env.store.onCommit = nil
		_, reentrantErr = env.cs.RefundDeposit(ctx, call(adminAddr, opening+day), incomeWallet)
	}
	_, err = env.cs.RefundDeposit(ctx, call(adminAddr, opening+day), incomeWallet)
	require.NoError(t, err)
	require.ErrorIs(t, reentrantErr, types.ErrReentrantCall)
	require.ErrorIs(t, reentrantErr, types.ErrUnauthorized)
	require.Equal(t, []payout{{to: incomeWallet, amount: 10}}, env.store.payouts)
}

func TestRestoreFromSnapshot(t *testing.T) {
	env := newTestEnv(t, 10, 100000)
	ctx := context.Background()
	env.addDeal(t, investor, testDeal(opening))
	env.addDeal(t, investor2, testDeal(opening))
	_, err := env.cs.ReceiveContribution(ctx, pay(investor, opening+day, 10))
	require.NoError(t, err)
	require.NoError(t, env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening+day), investor, true))
	require.NoError(t, env.cs.DeletePreSaleDeal(ctx, call(adminAddr, opening+day), investor))

	snapshot := env.cs.Snapshot()
	require.Equal(t, snapshot, env.store.snapshot)
	admins, err := admin.New(owner, adminAddr)
	require.NoError(t, err)
	restored, err := crowdsale.Restore(
		snapshot,
		crowdsale.WithAdminRegistry(admins),
		crowdsale.WithTokenLedger(env.book),
		crowdsale.WithValueSender(env.sender),
	)
	require.NoError(t, err)
	require.Equal(t, snapshot, restored.Snapshot())
	require.Equal(t, types.StateOpen, restored.State(opening+2*day))
	require.Equal(t, uint64((opening+day)/10), snapshot.Sale.Block)
}

func TestDepositedCoversTransferred(t *testing.T) {
	env := newTestEnv(t, 10, 1_000_000)
	ctx := context.Background()
	investors := []common.Address{investor, investor2, investor3}
	wallets := []common.Address{incomeWallet, income2, income3}
	for i, addr := range investors {
		env.addDeal(t, addr, dealWith(wallets[i], opening+30*day))
		require.NoError(t, env.cs.UpdateInvestorKYC(ctx, call(adminAddr, opening), wallets[i], true))
		require.NoError(t, env.cs.AssignDepositTimeLock(ctx, call(adminAddr, opening), wallets[i], ledger.TimeLock{
			MainCliffAmountPercent:       33,
			MainCliffTime:                5 * day,
			AdditionalCliffAmountPercent: 33,
			AdditionalCliffTime:          20 * day,
		}))
	}
	check := func() {
		for _, entry := range env.cs.Snapshot().Deposits {
			require.GreaterOrEqual(t, entry.DepositedTokens.Cmp(entry.TransferredTokens), 0)
		}
	}
	for i, addr := range investors {
		for j := range 4 {
			_, err := env.cs.ReceiveContribution(ctx, pay(addr, opening+uint64(j*10*day), int64(7*(i+1)+j)))
			require.NoError(t, err)
			check()
		}
	}
	require.NoError(t, env.cs.FinishCrowdsale(ctx, call(adminAddr, closing)))
	for _, elapsed := range []uint64{0, 5 * day, 6 * day, 19 * day, 20 * day, 30 * day} {
		for _, wallet := range wallets {
			_, _ = env.cs.Claim(ctx, call(wallet, closing+elapsed), wallet)
			check()
		}
	}
	var minted int64
	for _, wallet := range wallets {
		entry, _ := env.cs.Deposit(wallet)
		require.Equal(t, entry.DepositedTokens, entry.TransferredTokens)
		require.Equal(t, entry.TransferredTokens, env.book.BalanceOf(wallet))
		minted += entry.TransferredTokens.Int64()
	}
	require.Equal(t, minted, env.book.TotalSupply().Int64())
}

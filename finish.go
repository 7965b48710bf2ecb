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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/ledger"
	"github.com/blinklabs-io/crowdsale/registry"
	"github.com/blinklabs-io/crowdsale/types"
)

// FinishCrowdsale closes the sale for good. Open invoices become deposit
// entries. When the soft cap was reached the escrowed value is forwarded to
// the deal wallets, otherwise the sale enters refund mode.
func (c *Crowdsale) FinishCrowdsale(ctx context.Context, call Call) error {
	return c.apply(ctx, "finish", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		state := tx.state
		if state.finished {
			return types.ErrAlreadyFinished
		}
		if !state.window.HasClosed(call.Now) {
			return fmt.Errorf(
				"%w: closing time %d not reached",
				types.ErrNotClosed,
				state.window.ClosingTime,
			)
		}
		state.finished = true
		state.finishTime = call.Now
		totalRaised := state.caps.Total()
		tx.emit(
			CrowdsaleFinishedEventType,
			CrowdsaleFinishedEvent{TotalRaised: totalRaised},
		)
		if err := settleInvoices(tx); err != nil {
			return err
		}
		if !state.caps.SoftCapReached() {
			state.refundMode = true
			tx.emit(
				RefundsEnabledEventType,
				RefundsEnabledEvent{TotalRaised: new(big.Int).Set(totalRaised)},
			)
			return nil
		}
		for _, fwd := range state.deposits.TakeEscrow() {
			c.forward(tx, fwd.Investor, fwd.BonusWallet, fwd.BonusAmount)
			c.forward(tx, fwd.Investor, fwd.IncomeWallet, fwd.IncomeAmount)
		}
		return nil
	})
}

func settleInvoices(tx *txn) error {
	for _, record := range tx.state.invoices.Records() {
		_, err := tx.state.deposits.AddDeposit(
			record.Investor,
			record.Investor,
			record.Invoice.TokenAmount,
			nil,
			ledger.Terms{},
		)
		if err != nil {
			return fmt.Errorf("settle invoice for %s: %w", record.Investor.Hex(), err)
		}
		tx.emit(
			InvoiceSettledEventType,
			InvoiceSettledEvent{
				Investor:   record.Investor,
				Amount:     record.Invoice.TokenAmount,
				ExternalID: record.Invoice.ExternalID,
			},
		)
	}
	tx.state.invoices = registry.NewInvoices()
	return nil
}

func (c *Crowdsale) forward(tx *txn, investor common.Address, to common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 || types.IsZeroAddress(to) {
		return
	}
	tx.send(to, amount)
	tx.emit(
		ValueForwardedEventType,
		ValueForwardedEvent{
			Investor: investor,
			To:       to,
			Amount:   new(big.Int).Set(amount),
		},
	)
}

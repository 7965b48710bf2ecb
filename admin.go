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
	"github.com/blinklabs-io/crowdsale/types"
)

// UpdateInvestorKYC sets the KYC status of a wallet. Setting the value it
// already has fails.
func (c *Crowdsale) UpdateInvestorKYC(ctx context.Context, call Call, wallet common.Address, passed bool) error {
	return c.apply(ctx, "update_kyc", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		if err := tx.state.deposits.SetKYC(wallet, passed); err != nil {
			return err
		}
		tx.emit(KycUpdatedEventType, KycUpdatedEvent{Wallet: wallet, Passed: passed})
		return nil
	})
}

// AssignDepositTimeLock sets the cliff schedule of a wallet. Cliff times are
// seconds since the crowdsale finished.
func (c *Crowdsale) AssignDepositTimeLock(ctx context.Context, call Call, wallet common.Address, lock ledger.TimeLock) error {
	return c.apply(ctx, "assign_timelock", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		singleStage, err := tx.state.deposits.AssignTimeLock(wallet, lock)
		if err != nil {
			return err
		}
		if singleStage {
			tx.emit(
				AdditionalCliffTimeGreaterThanZeroEventType,
				AdditionalCliffTimeGreaterThanZeroEvent{Wallet: wallet},
			)
		}
		tx.emit(
			DepositTimeLockAssignedEventType,
			DepositTimeLockAssignedEvent{
				Wallet:   wallet,
				MainAmt:  lock.MainCliffAmountPercent,
				MainTime: lock.MainCliffTime,
				AddAmt:   lock.AdditionalCliffAmountPercent,
				AddTime:  lock.AdditionalCliffTime,
			},
		)
		return nil
	})
}

func (c *Crowdsale) DeleteDepositTimeLock(ctx context.Context, call Call, wallet common.Address) error {
	return c.apply(ctx, "delete_timelock", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		if err := tx.state.deposits.DeleteTimeLock(wallet); err != nil {
			return err
		}
		tx.emit(DepositTimeLockDeletedEventType, DepositTimeLockDeletedEvent{Wallet: wallet})
		return nil
	})
}

// AddUpdatePreSaleDeal whitelists an investor with the given deal terms or
// replaces the terms of an existing deal
func (c *Crowdsale) AddUpdatePreSaleDeal(ctx context.Context, call Call, investor common.Address, deal types.Deal) error {
	return c.apply(ctx, "upsert_deal", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		if err := requireOpen(tx); err != nil {
			return err
		}
		added, err := tx.state.investors.Upsert(investor, deal, call.Now)
		if err != nil {
			return err
		}
		if added {
			tx.emit(InvestorAddedEventType, InvestorAddedEvent{Investor: investor})
		} else {
			tx.emit(InvestorUpdatedEventType, InvestorUpdatedEvent{Investor: investor})
		}
		return nil
	})
}

func (c *Crowdsale) DeletePreSaleDeal(ctx context.Context, call Call, investor common.Address) error {
	return c.apply(ctx, "delete_deal", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		if err := requireOpen(tx); err != nil {
			return err
		}
		movedKey, moved, err := tx.state.investors.Delete(investor)
		if err != nil {
			return err
		}
		if moved {
			tx.emit(
				DeletePreSaleDealInvestorsMapKeySkippedEventType,
				DeletePreSaleDealInvestorsMapKeySkippedEvent{MovedKey: movedKey},
			)
		}
		tx.emit(InvestorDeletedEventType, InvestorDeletedEvent{Investor: investor})
		return nil
	})
}

// AddUpdateInvoice records or replaces the token allocation for an
// off-chain purchase
func (c *Crowdsale) AddUpdateInvoice(ctx context.Context, call Call, investor common.Address, invoice types.Invoice) error {
	return c.apply(ctx, "upsert_invoice", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		if err := requireOpen(tx); err != nil {
			return err
		}
		added, err := tx.state.invoices.Upsert(investor, invoice)
		if err != nil {
			return err
		}
		if added {
			tx.emit(InvoiceAddedEventType, InvoiceAddedEvent{Investor: investor})
		} else {
			tx.emit(InvoiceUpdatedEventType, InvoiceUpdatedEvent{Investor: investor})
		}
		return nil
	})
}

func (c *Crowdsale) DeleteInvoice(ctx context.Context, call Call, investor common.Address) error {
	return c.apply(ctx, "delete_invoice", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		if err := requireOpen(tx); err != nil {
			return err
		}
		movedKey, moved, err := tx.state.invoices.Delete(investor)
		if err != nil {
			return err
		}
		if moved {
			tx.emit(
				DeleteInvoiceInvoiceMapKeysSkippedEventType,
				DeleteInvoiceInvoiceMapKeysSkippedEvent{MovedKey: movedKey},
			)
		}
		tx.emit(InvoiceDeletedEventType, InvoiceDeletedEvent{Investor: investor})
		return nil
	})
}

// SetRate changes the base token rate while the sale is open
func (c *Crowdsale) SetRate(ctx context.Context, call Call, rate *big.Int) error {
	return c.apply(ctx, "set_rate", call, func(tx *txn) error {
		if err := c.requireAdmin(call); err != nil {
			return err
		}
		if err := requireOpen(tx); err != nil {
			return err
		}
		if rate == nil || rate.Sign() <= 0 {
			return fmt.Errorf("%w: rate must be positive", types.ErrInvalidArgument)
		}
		oldRate := tx.state.rate
		tx.state.rate = new(big.Int).Set(rate)
		tx.emit(
			RateChangedEventType,
			RateChangedEvent{OldRate: oldRate, NewRate: new(big.Int).Set(rate)},
		)
		return nil
	})
}

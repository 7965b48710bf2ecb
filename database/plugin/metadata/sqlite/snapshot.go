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

package sqlite

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/crowdsale/database/models"
	"github.com/blinklabs-io/crowdsale/database/types"
	ctypes "github.com/blinklabs-io/crowdsale/types"
)

// DefaultSnapshotBatchSize is the number of rows per insert statement when
// a snapshot collection is rewritten
const DefaultSnapshotBatchSize = 500

// SetSnapshot replaces the stored crowdsale state with snapshot
func (d *MetadataStoreSqlite) SetSnapshot(
	snapshot *ctypes.Snapshot,
	txn types.Txn,
) error {
	if snapshot == nil {
		return errors.New("nil snapshot")
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	sale := snapshot.Sale
	tmpSale := models.Sale{
		ID:          models.SaleRowId,
		OpeningTime: types.Uint64(sale.OpeningTime),
		ClosingTime: types.Uint64(sale.ClosingTime),
		Rate:        types.NewBigInt(sale.Rate),
		SoftCap:     types.NewBigInt(sale.SoftCap),
		HardCap:     types.NewBigInt(sale.HardCap),
		Raised:      types.NewBigInt(sale.Raised),
		Finished:    sale.Finished,
		FinishTime:  types.Uint64(sale.FinishTime),
		RefundMode:  sale.RefundMode,
		Block:       types.Uint64(sale.Block),
	}
	if result := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&tmpSale); result.Error != nil {
		return fmt.Errorf("save sale: %w", result.Error)
	}
	// The collections are small and change order on swap-and-pop deletes,
	// so they are rewritten in full
	for _, model := range []any{
		&models.Deposit{},
		&models.KycPassed{},
		&models.Deal{},
		&models.Invoice{},
	} {
		if result := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model); result.Error != nil {
			return fmt.Errorf("clear %T: %w", model, result.Error)
		}
	}
	deposits := make([]models.Deposit, 0, len(snapshot.Deposits))
	for idx, entry := range snapshot.Deposits {
		deposits = append(deposits, models.Deposit{
			Investor:                     types.Address(entry.Investor),
			Position:                     idx,
			IncomeWallet:                 types.Address(entry.IncomeWallet),
			BonusWallet:                  types.Address(entry.BonusWallet),
			BonusSharePercent:            entry.BonusSharePercent,
			DepositedTokens:              types.NewBigInt(entry.DepositedTokens),
			TransferredTokens:            types.NewBigInt(entry.TransferredTokens),
			DepositedValue:               types.NewBigInt(entry.DepositedValue),
			KycPassed:                    entry.KycPassed,
			MainCliffAmountPercent:       entry.MainCliffAmountPercent,
			MainCliffTime:                types.Uint64(entry.MainCliffTime),
			AdditionalCliffAmountPercent: entry.AdditionalCliffAmountPercent,
			AdditionalCliffTime:          types.Uint64(entry.AdditionalCliffTime),
		})
	}
	kyc := make([]models.KycPassed, 0, len(snapshot.KycPassed))
	for _, wallet := range snapshot.KycPassed {
		kyc = append(kyc, models.KycPassed{Wallet: types.Address(wallet)})
	}
	deals := make([]models.Deal, 0, len(snapshot.Deals))
	for idx, record := range snapshot.Deals {
		deals = append(deals, models.Deal{
			Investor:          types.Address(record.Investor),
			Position:          idx,
			IncomeWallet:      types.Address(record.Deal.IncomeWallet),
			BonusWallet:       types.Address(record.Deal.BonusWallet),
			MinWeiAmount:      types.NewBigInt(record.Deal.MinWeiAmount),
			BonusRate:         types.NewBigInt(record.Deal.BonusRate),
			BonusDeadline:     types.Uint64(record.Deal.BonusDeadline),
			BonusSharePercent: record.Deal.BonusSharePercent,
		})
	}
	invoices := make([]models.Invoice, 0, len(snapshot.Invoices))
	for idx, record := range snapshot.Invoices {
		invoices = append(invoices, models.Invoice{
			Investor:    types.Address(record.Investor),
			Position:    idx,
			TokenAmount: types.NewBigInt(record.Invoice.TokenAmount),
			ExternalID:  record.Invoice.ExternalID,
		})
	}
	if err := createRows(db, d.batchSize, deposits); err != nil {
		return fmt.Errorf("save deposits: %w", err)
	}
	if err := createRows(db, d.batchSize, kyc); err != nil {
		return fmt.Errorf("save kyc: %w", err)
	}
	if err := createRows(db, d.batchSize, deals); err != nil {
		return fmt.Errorf("save deals: %w", err)
	}
	if err := createRows(db, d.batchSize, invoices); err != nil {
		return fmt.Errorf("save invoices: %w", err)
	}
	if d.metrics != nil {
		d.metrics.snapshotWrites.Inc()
	}
	return nil
}

func createRows[T any](db *gorm.DB, batchSize int, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(rows, batchSize).Error
}

// GetSnapshot loads the stored crowdsale state. It returns
// types.ErrSnapshotNotFound before the first commit.
func (d *MetadataStoreSqlite) GetSnapshot(txn types.Txn) (*ctypes.Snapshot, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var tmpSale models.Sale
	if result := db.First(&tmpSale, models.SaleRowId); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, types.ErrSnapshotNotFound
		}
		return nil, result.Error
	}
	ret := &ctypes.Snapshot{
		Sale: ctypes.SaleSnapshot{
			OpeningTime: uint64(tmpSale.OpeningTime),
			ClosingTime: uint64(tmpSale.ClosingTime),
			Rate:        tmpSale.Rate.Copy(),
			SoftCap:     tmpSale.SoftCap.Copy(),
			HardCap:     tmpSale.HardCap.Copy(),
			Raised:      tmpSale.Raised.Copy(),
			Finished:    tmpSale.Finished,
			FinishTime:  uint64(tmpSale.FinishTime),
			RefundMode:  tmpSale.RefundMode,
			Block:       uint64(tmpSale.Block),
		},
	}
	var deposits []models.Deposit
	if result := db.Order("position").Find(&deposits); result.Error != nil {
		return nil, result.Error
	}
	for _, tmpDeposit := range deposits {
		ret.Deposits = append(ret.Deposits, &ctypes.DepositEntry{
			Investor:                     tmpDeposit.Investor.Address(),
			IncomeWallet:                 tmpDeposit.IncomeWallet.Address(),
			BonusWallet:                  tmpDeposit.BonusWallet.Address(),
			BonusSharePercent:            tmpDeposit.BonusSharePercent,
			DepositedTokens:              tmpDeposit.DepositedTokens.Copy(),
			TransferredTokens:            tmpDeposit.TransferredTokens.Copy(),
			DepositedValue:               tmpDeposit.DepositedValue.Copy(),
			KycPassed:                    tmpDeposit.KycPassed,
			MainCliffAmountPercent:       tmpDeposit.MainCliffAmountPercent,
			MainCliffTime:                uint64(tmpDeposit.MainCliffTime),
			AdditionalCliffAmountPercent: tmpDeposit.AdditionalCliffAmountPercent,
			AdditionalCliffTime:          uint64(tmpDeposit.AdditionalCliffTime),
		})
	}
	var kyc []models.KycPassed
	if result := db.Order("id").Find(&kyc); result.Error != nil {
		return nil, result.Error
	}
	for _, tmpKyc := range kyc {
		ret.KycPassed = append(ret.KycPassed, tmpKyc.Wallet.Address())
	}
	var deals []models.Deal
	if result := db.Order("position").Find(&deals); result.Error != nil {
		return nil, result.Error
	}
	for _, tmpDeal := range deals {
		ret.Deals = append(ret.Deals, ctypes.DealRecord{
			Investor: tmpDeal.Investor.Address(),
			Deal: ctypes.Deal{
				IncomeWallet:      tmpDeal.IncomeWallet.Address(),
				BonusWallet:       tmpDeal.BonusWallet.Address(),
				MinWeiAmount:      tmpDeal.MinWeiAmount.Copy(),
				BonusRate:         tmpDeal.BonusRate.Copy(),
				BonusDeadline:     uint64(tmpDeal.BonusDeadline),
				BonusSharePercent: tmpDeal.BonusSharePercent,
			},
		})
	}
	var invoices []models.Invoice
	if result := db.Order("position").Find(&invoices); result.Error != nil {
		return nil, result.Error
	}
	for _, tmpInvoice := range invoices {
		ret.Invoices = append(ret.Invoices, ctypes.InvoiceRecord{
			Investor: tmpInvoice.Investor.Address(),
			Invoice: ctypes.Invoice{
				TokenAmount: tmpInvoice.TokenAmount.Copy(),
				ExternalID:  tmpInvoice.ExternalID,
			},
		})
	}
	return ret, nil
}

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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/crowdsale/database/models"
	"github.com/blinklabs-io/crowdsale/database/types"
)

// SetTokenBalance stores an account balance along with the new total supply
func (d *MetadataStoreSqlite) SetTokenBalance(
	account common.Address,
	balance *big.Int,
	totalSupply *big.Int,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpBalance := models.TokenBalance{
		Account: types.Address(account),
		Balance: types.NewBigInt(balance),
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance"}),
	}).Create(&tmpBalance)
	if result.Error != nil {
		return result.Error
	}
	result = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_supply"}),
	}).Create(&models.TokenState{
		ID:             models.TokenStateRowId,
		TransferLocked: true,
		TotalSupply:    types.NewBigInt(totalSupply),
	})
	return result.Error
}

// SetTransferLock stores the token transfer lock
func (d *MetadataStoreSqlite) SetTransferLock(
	locked bool,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"transfer_locked"}),
	}).Create(&models.TokenState{
		ID:             models.TokenStateRowId,
		TransferLocked: locked,
		TotalSupply:    types.NewBigInt(nil),
	})
	return result.Error
}

// GetTokenState returns all stored balances and the transfer lock. The
// found return is false when nothing has been stored yet.
func (d *MetadataStoreSqlite) GetTokenState(
	txn types.Txn,
) (map[common.Address]*big.Int, bool, bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, false, false, err
	}
	var tmpState models.TokenState
	if result := db.First(&tmpState, models.TokenStateRowId); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, false, nil
		}
		return nil, false, false, result.Error
	}
	var tmpBalances []models.TokenBalance
	if result := db.Find(&tmpBalances); result.Error != nil {
		return nil, false, false, result.Error
	}
	balances := make(map[common.Address]*big.Int, len(tmpBalances))
	for _, tmpBalance := range tmpBalances {
		if tmpBalance.Balance.Int == nil || tmpBalance.Balance.Sign() == 0 {
			continue
		}
		balances[tmpBalance.Account.Address()] = tmpBalance.Balance.Copy()
	}
	return balances, tmpState.TransferLocked, true, nil
}

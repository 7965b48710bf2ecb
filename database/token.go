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

package database

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/database/types"
	ctypes "github.com/blinklabs-io/crowdsale/types"
)

// TokenState is the persisted token book
type TokenState struct {
	Balances       map[common.Address]*big.Int
	TransferLocked bool
}

// writeEffects stores the payouts and token changes of an operation in the
// metadata transaction of its commit and returns the new payout IDs
func (d *Database) writeEffects(effects *ctypes.Effects, txn types.Txn) ([]string, error) {
	if effects.IsEmpty() {
		return nil, nil
	}
	payoutIDs, err := d.writePayouts(effects.Payouts, txn)
	if err != nil {
		return nil, err
	}
	for _, balance := range effects.Balances {
		if effects.TotalSupply == nil {
			return nil, errors.New("token balances without total supply")
		}
		err := d.metadata.SetTokenBalance(
			balance.Account,
			balance.Balance,
			effects.TotalSupply,
			txn,
		)
		if err != nil {
			return nil, fmt.Errorf("save token balance: %w", err)
		}
	}
	if effects.TransferLock != nil {
		if err := d.metadata.SetTransferLock(*effects.TransferLock, txn); err != nil {
			return nil, fmt.Errorf("save transfer lock: %w", err)
		}
	}
	return payoutIDs, nil
}

// LoadTokenState returns the persisted token book, or nil when nothing has
// been stored
func (d *Database) LoadTokenState(ctx context.Context) (*TokenState, error) {
	var ret *TokenState
	err := d.readMetadata(ctx, func(txn types.Txn) error {
		balances, locked, found, err := d.metadata.GetTokenState(txn)
		if err != nil || !found {
			return err
		}
		ret = &TokenState{
			Balances:       balances,
			TransferLocked: locked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// writeMetadata runs fn in a metadata transaction and commits it
func (d *Database) writeMetadata(ctx context.Context, fn func(types.Txn) error) error {
	txn, err := d.metadata.NewTransaction(ctx)
	if err != nil {
		return err
	}
	if err := fn(txn); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

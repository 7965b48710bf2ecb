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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/blinklabs-io/crowdsale/database/models"
	"github.com/blinklabs-io/crowdsale/database/types"
	ctypes "github.com/blinklabs-io/crowdsale/types"
)

// Payout is a value transfer waiting in, or settled from, the outbox
type Payout struct {
	ID        string         `json:"id"`
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// writePayouts adds pending outbox entries for payouts and returns their
// IDs. An external process performs the transfers and marks them sent.
func (d *Database) writePayouts(payouts []ctypes.Payout, txn types.Txn) ([]string, error) {
	ret := make([]string, 0, len(payouts))
	for _, tmpPayout := range payouts {
		if tmpPayout.Amount == nil || tmpPayout.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("invalid payout amount: %v", tmpPayout.Amount)
		}
		if ctypes.IsZeroAddress(tmpPayout.To) {
			return nil, errors.New("payout to zero address")
		}
		payout := &models.Payout{
			PayoutID:  uuid.NewString(),
			Recipient: types.Address(tmpPayout.To),
			Amount:    types.NewBigInt(tmpPayout.Amount),
			Status:    models.PayoutStatusPending,
		}
		if err := d.metadata.AddPayout(payout, txn); err != nil {
			return nil, fmt.Errorf("record payout: %w", err)
		}
		ret = append(ret, payout.PayoutID)
	}
	return ret, nil
}

// Payouts returns outbox entries with the given status, or all entries for
// an empty status
func (d *Database) Payouts(ctx context.Context, status string) ([]Payout, error) {
	var tmpPayouts []models.Payout
	err := d.readMetadata(ctx, func(txn types.Txn) error {
		var err error
		tmpPayouts, err = d.metadata.GetPayouts(status, txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	ret := make([]Payout, 0, len(tmpPayouts))
	for _, tmpPayout := range tmpPayouts {
		ret = append(ret, Payout{
			ID:        tmpPayout.PayoutID,
			Recipient: tmpPayout.Recipient.Address(),
			Amount:    tmpPayout.Amount.Copy(),
			Status:    tmpPayout.Status,
			CreatedAt: tmpPayout.CreatedAt,
		})
	}
	return ret, nil
}

// MarkPayoutSent marks a pending payout as settled
func (d *Database) MarkPayoutSent(ctx context.Context, id string) error {
	return d.writeMetadata(ctx, func(txn types.Txn) error {
		return d.metadata.SetPayoutStatus(id, models.PayoutStatusSent, txn)
	})
}

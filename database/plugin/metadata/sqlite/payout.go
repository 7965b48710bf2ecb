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
	"github.com/blinklabs-io/crowdsale/database/models"
	"github.com/blinklabs-io/crowdsale/database/types"
)

// AddPayout records a payout in the outbox
func (d *MetadataStoreSqlite) AddPayout(
	payout *models.Payout,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(payout); result.Error != nil {
		return result.Error
	}
	if d.metrics != nil {
		d.metrics.payouts.WithLabelValues(payout.Status).Inc()
	}
	return nil
}

// GetPayouts returns outbox entries in creation order. An empty status
// returns all entries.
func (d *MetadataStoreSqlite) GetPayouts(
	status string,
	txn types.Txn,
) ([]models.Payout, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var ret []models.Payout
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetPayoutStatus updates the status of an outbox entry
func (d *MetadataStoreSqlite) SetPayoutStatus(
	payoutID string,
	status string,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Payout{}).
		Where("payout_id = ?", payoutID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrPayoutNotFound
	}
	if d.metrics != nil {
		d.metrics.payouts.WithLabelValues(status).Inc()
	}
	return nil
}

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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blinklabs-io/crowdsale/database/types"
	"github.com/blinklabs-io/crowdsale/event"
	ctypes "github.com/blinklabs-io/crowdsale/types"
)

// Commit writes the crowdsale state, queues the payouts and token changes of
// effects and appends evts to the journal in one transaction. Each event is
// assigned its journal sequence and ID in place.
func (d *Database) Commit(
	ctx context.Context,
	snapshot *ctypes.Snapshot,
	evts []event.Event,
	effects *ctypes.Effects,
) error {
	d.commitMutex.Lock()
	defer d.commitMutex.Unlock()
	start := time.Now()
	sequence := d.lastSequence.Load()
	var payoutIDs []string
	txn := d.Transaction(ctx, true)
	err := txn.Do(func(txn *Txn) error {
		if err := d.metadata.SetSnapshot(snapshot, txn.Metadata()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		ids, err := d.writeEffects(effects, txn.Metadata())
		if err != nil {
			return err
		}
		payoutIDs = ids
		for idx := range evts {
			sequence++
			evts[idx].Sequence = sequence
			evts[idx].ID = uuid.NewString()
			data, err := encodeJournalEntry(evts[idx])
			if err != nil {
				return err
			}
			if err := d.blob.SetEvent(txn.Blob(), sequence, evts[idx].ID, data); err != nil {
				return fmt.Errorf("append event %d: %w", sequence, err)
			}
		}
		txn.SetJournalSequence(sequence)
		return nil
	})
	if err != nil {
		if d.metrics != nil {
			d.metrics.commitFailures.Inc()
		}
		return err
	}
	d.lastSequence.Store(sequence)
	if d.metrics != nil {
		d.metrics.commits.Inc()
		d.metrics.commitDuration.Observe(time.Since(start).Seconds())
		d.metrics.eventsWritten.Add(float64(len(evts)))
		d.metrics.lastSequence.Set(float64(sequence))
	}
	for idx, id := range payoutIDs {
		d.logger.Info(
			"payout queued",
			"payout", id,
			"recipient", effects.Payouts[idx].To.Hex(),
			"amount", effects.Payouts[idx].Amount.String(),
		)
	}
	d.logger.Debug(
		"committed crowdsale state",
		"events", len(evts),
		"sequence", sequence,
	)
	return nil
}

// LoadSnapshot returns the last committed crowdsale state. It returns
// types.ErrSnapshotNotFound when nothing has been committed.
func (d *Database) LoadSnapshot(ctx context.Context) (*ctypes.Snapshot, error) {
	var ret *ctypes.Snapshot
	err := d.readMetadata(ctx, func(txn types.Txn) error {
		var err error
		ret, err = d.metadata.GetSnapshot(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// readMetadata runs fn in a read-only metadata transaction
func (d *Database) readMetadata(ctx context.Context, fn func(types.Txn) error) error {
	txn, err := d.metadata.NewTransaction(ctx)
	if err != nil {
		return err
	}
	defer txn.Rollback() //nolint:errcheck
	return fn(txn)
}

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
	"sync"
	"time"

	"github.com/blinklabs-io/crowdsale/database/types"
)

// Txn spans one metadata and one blob transaction. Committing a read-write
// Txn writes the same commit marker to both stores, so a commit that reached
// only one store is detected when the database is next opened.
type Txn struct {
	db       *Database
	metadata types.Txn
	blob     types.Txn
	openErr  error
	mu       sync.Mutex
	done     bool
	writable bool
	// journalSequence is the journal position recorded by the commit marker
	journalSequence uint64
}

func NewTxn(ctx context.Context, db *Database, readWrite bool) *Txn {
	t := &Txn{
		db:              db,
		writable:        readWrite,
		journalSequence: db.lastSequence.Load(),
	}
	t.metadata, t.openErr = db.metadata.NewTransaction(ctx)
	t.blob = db.blob.NewTransaction(readWrite)
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

func (t *Txn) Metadata() types.Txn {
	return t.metadata
}

func (t *Txn) Blob() types.Txn {
	return t.blob
}

// SetJournalSequence sets the journal position written with the commit
func (t *Txn) SetJournalSequence(sequence uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.journalSequence = sequence
}

// Do runs fn and commits the transaction when fn succeeds. Both stores are
// rolled back otherwise.
func (t *Txn) Do(fn func(*Txn) error) error {
	if t.openErr != nil {
		return errors.Join(
			fmt.Errorf("open metadata transaction: %w", t.openErr),
			t.Rollback(),
		)
	}
	if err := fn(t); err != nil {
		return errors.Join(err, t.Rollback())
	}
	return t.Commit()
}

// Commit commits both stores. A read-only Txn is released instead.
func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.done:
		return nil
	case t.openErr != nil:
		return errors.Join(types.ErrNoStoreAvailable, t.discard())
	case !t.writable:
		return t.discard()
	}
	marker := types.CommitMarker{
		Timestamp:       time.Now().UnixMilli(),
		JournalSequence: t.journalSequence,
	}
	if err := t.db.writeCommitMarker(t, marker); err != nil {
		return errors.Join(fmt.Errorf("write commit marker: %w", err), t.discard())
	}
	t.done = true
	// The blob store goes first. If it fails nothing has been committed.
	if err := t.blob.Commit(); err != nil {
		_ = t.metadata.Rollback()
		return fmt.Errorf("commit blob store: %w", err)
	}
	if err := t.metadata.Commit(); err != nil {
		_ = t.metadata.Rollback()
		t.db.logger.Error(
			"partial commit: journal committed without metadata",
			"marker", marker.String(),
			"error", err,
		)
		return fmt.Errorf("commit metadata store after blob store: %w", err)
	}
	return nil
}

// Rollback discards both transactions. It is safe to call after Commit.
func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discard()
}

func (t *Txn) discard() error {
	if t.done {
		return nil
	}
	t.done = true
	var err error
	if t.blob != nil {
		if blobErr := t.blob.Rollback(); blobErr != nil {
			err = errors.Join(err, fmt.Errorf("blob rollback: %w", blobErr))
		}
	}
	if t.metadata != nil {
		if metaErr := t.metadata.Rollback(); metaErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata rollback: %w", metaErr))
		}
	}
	return err
}

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
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/blinklabs-io/crowdsale/database/types"
)

// sqliteTxn wraps a gorm transaction and implements types.Txn
type sqliteTxn struct {
	db       *gorm.DB
	finished bool
}

func (t *sqliteTxn) Commit() error {
	if t.finished {
		return nil
	}
	if err := t.db.Commit().Error; err != nil {
		return err
	}
	t.finished = true
	return nil
}

func (t *sqliteTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.db.Rollback().Error; err != nil &&
		!errors.Is(err, gorm.ErrInvalidTransaction) {
		return err
	}
	return nil
}

// NewTransaction starts a new metadata transaction. Statements run with ctx
// for tracing and cancellation.
func (d *MetadataStoreSqlite) NewTransaction(ctx context.Context) (types.Txn, error) {
	tx := d.DB().WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &sqliteTxn{db: tx}, nil
}

// resolveDB returns the *gorm.DB for the given transaction, or d.DB() if
// txn is nil
func (d *MetadataStoreSqlite) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return d.DB(), nil
	}
	stx, ok := txn.(*sqliteTxn)
	if !ok || stx == nil {
		return nil, types.ErrTxnWrongType
	}
	if stx.finished {
		return nil, errors.New("transaction already finished")
	}
	return stx.db, nil
}

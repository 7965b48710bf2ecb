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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/crowdsale/database/types"
)

const (
	DefaultGcInterval              = 5 * time.Minute
	DefaultGcDiscardRatio          = 0.5
	DefaultBlockCacheSize   uint64 = 64 << 20
	DefaultIndexCacheSize   uint64 = 32 << 20
	DefaultValueLogFileSize uint64 = 128 << 20
	DefaultMemTableSize     uint64 = 32 << 20
	DefaultValueThreshold   uint64 = 1 << 10
)

// badgerTxn wraps a badger transaction and implements types.Txn
type badgerTxn struct {
	store    *BlobStoreBadger
	tx       *badger.Txn
	finished bool
}

func (t *badgerTxn) Commit() error {
	if t.finished {
		return nil
	}
	if err := t.tx.Commit(); err != nil {
		return err
	}
	t.finished = true
	return nil
}

func (t *badgerTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.tx.Discard()
	t.finished = true
	return nil
}

// validateTxn returns the underlying *badgerTxn for a types.Txn created by
// this store
func (d *BlobStoreBadger) validateTxn(txn types.Txn) (*badgerTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	tmpTxn, ok := txn.(*badgerTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if tmpTxn.store != d {
		return nil, errors.New("transaction from different store")
	}
	if tmpTxn.finished {
		return nil, errors.New("transaction already finished")
	}
	return tmpTxn, nil
}

// BlobStoreBadger stores the event journal in badger
type BlobStoreBadger struct {
	promRegistry   prometheus.Registerer
	db             *badger.DB
	logger         *slog.Logger
	metrics        *badgerMetrics
	gc             gcConfig
	gcCancel       context.CancelFunc
	gcDone         chan struct{}
	dataDir        string
	blockCacheSize uint64
}

type gcConfig struct {
	enabled      bool
	interval     time.Duration
	discardRatio float64
}

// New creates a new blob store. Data is kept in memory when no data
// directory is configured.
func New(opts ...StoreOption) (*BlobStoreBadger, error) {
	d := &BlobStoreBadger{
		blockCacheSize: DefaultBlockCacheSize,
		gc: gcConfig{
			enabled:      true,
			interval:     DefaultGcInterval,
			discardRatio: DefaultGcDiscardRatio,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	badgerOpts, err := d.badgerOptions()
	if err != nil {
		return nil, err
	}
	blobDb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	d.db = blobDb
	if d.promRegistry != nil {
		d.metrics = newBadgerMetrics(d.promRegistry)
	}
	if d.gc.enabled && d.gc.interval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		d.gcCancel = cancel
		d.gcDone = make(chan struct{})
		go d.runGc(ctx)
	}
	return d, nil
}

func (d *BlobStoreBadger) badgerOptions() (badger.Options, error) {
	var ret badger.Options
	if d.dataDir == "" {
		ret = badger.DefaultOptions("").WithInMemory(true)
		// Value log GC does not apply to in-memory stores
		d.gc.enabled = false
	} else {
		if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
			return ret, fmt.Errorf("create data dir: %w", err)
		}
		ret = badger.DefaultOptions(filepath.Join(d.dataDir, "blob")).
			WithBlockCacheSize(int64(d.blockCacheSize)).          // #nosec G115
			WithIndexCacheSize(int64(DefaultIndexCacheSize)).     // #nosec G115
			WithValueLogFileSize(int64(DefaultValueLogFileSize)). // #nosec G115
			WithMemTableSize(int64(DefaultMemTableSize)).         // #nosec G115
			WithCompression(options.Snappy).
			WithSyncWrites(true)
	}
	return ret.
		WithLogger(newBadgerLogger(d.logger)).
		WithLoggingLevel(badger.WARNING).
		WithValueThreshold(int64(DefaultValueThreshold)), nil // #nosec G115
}

// runGc rewrites value log files until badger reports nothing left to
// reclaim, once per interval
func (d *BlobStoreBadger) runGc(ctx context.Context) {
	defer close(d.gcDone)
	ticker := time.NewTicker(d.gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for ctx.Err() == nil {
			err := d.db.RunValueLogGC(d.gc.discardRatio)
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			if err != nil {
				d.logger.Warn("value log GC failed", "error", err)
				break
			}
			if d.metrics != nil {
				d.metrics.gcRuns.Inc()
			}
		}
	}
}

// Close stops GC and closes the database
func (d *BlobStoreBadger) Close() error {
	if d.gcCancel != nil {
		d.gcCancel()
		<-d.gcDone
		d.gcCancel = nil
	}
	return d.db.Close()
}

// DB returns the database handle
func (d *BlobStoreBadger) DB() *badger.DB {
	return d.db
}

// NewTransaction creates a new badger transaction
func (d *BlobStoreBadger) NewTransaction(update bool) types.Txn {
	return &badgerTxn{store: d, tx: d.DB().NewTransaction(update)}
}

// Get retrieves a value from badger within a transaction
func (d *BlobStoreBadger) Get(txn types.Txn, key []byte) ([]byte, error) {
	tmpTxn, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	item, err := tmpTxn.tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Set stores a key-value pair in badger within a transaction
func (d *BlobStoreBadger) Set(txn types.Txn, key, val []byte) error {
	tmpTxn, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	return tmpTxn.tx.Set(key, val)
}

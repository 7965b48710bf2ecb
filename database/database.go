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
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/crowdsale/database/plugin/blob/badger"
	"github.com/blinklabs-io/crowdsale/database/plugin/metadata/sqlite"
)

// Config holds the database settings
type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// DataDir is the storage location. Both stores are kept in memory when
	// it is empty.
	DataDir string
	// BlobCacheSize is the badger block cache size in bytes. Zero keeps the
	// badger plugin default.
	BlobCacheSize uint64
}

// Database persists the crowdsale state to a SQLite metadata store and the
// event journal to a badger blob store. Both are stamped with the same
// commit timestamp on every commit.
type Database struct {
	logger       *slog.Logger
	blob         *badger.BlobStoreBadger
	metadata     *sqlite.MetadataStoreSqlite
	metrics      *databaseMetrics
	dataDir      string
	commitMutex  sync.Mutex
	lastSequence atomic.Uint64
}

// Blob returns the underlying blob store instance
func (d *Database) Blob() *badger.BlobStoreBadger {
	return d.blob
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *sqlite.MetadataStoreSqlite {
	return d.metadata
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(ctx context.Context, readWrite bool) *Txn {
	return NewTxn(ctx, d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (d *Database) init() error {
	markerSequence, err := d.verifyCommitMarker()
	if err != nil {
		return err
	}
	lastSequence, err := d.blob.GetLastEventSequence()
	if err != nil {
		return fmt.Errorf("failed to read journal sequence: %w", err)
	}
	if lastSequence != markerSequence {
		return fmt.Errorf(
			"journal sequence %d does not match commit marker sequence %d",
			lastSequence,
			markerSequence,
		)
	}
	d.lastSequence.Store(lastSequence)
	if d.metrics != nil {
		d.metrics.lastSequence.Set(float64(lastSequence))
	}
	return nil
}

// New creates a new database instance with optional persistence using the
// configured data directory
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.DiscardHandler)
	}
	metadataDb, err := sqlite.New(
		sqlite.WithLogger(logger),
		sqlite.WithPromRegistry(config.PromRegistry),
		sqlite.WithDataDir(config.DataDir),
	)
	if err != nil {
		if metadataDb != nil {
			_ = metadataDb.Close()
		}
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}
	blobOpts := []badger.StoreOption{
		badger.WithLogger(logger),
		badger.WithPromRegistry(config.PromRegistry),
		badger.WithDataDir(config.DataDir),
	}
	if config.BlobCacheSize > 0 {
		blobOpts = append(blobOpts, badger.WithBlockCacheSize(config.BlobCacheSize))
	}
	blobDb, err := badger.New(blobOpts...)
	if err != nil {
		_ = metadataDb.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	db := &Database{
		logger:   logger.With("component", "database"),
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  config.DataDir,
	}
	if config.PromRegistry != nil {
		db.metrics = newDatabaseMetrics(config.PromRegistry)
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}

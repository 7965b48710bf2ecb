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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/blinklabs-io/crowdsale/database/models"
)

const (
	// DefaultVacuumInterval is how often unused space is freed on disk
	DefaultVacuumInterval = 24 * time.Hour

	metadataFileName = "metadata.sqlite"
	// Every commit moves value, so writes are fully synced
	diskPragmas = "_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
)

// MetadataStoreSqlite is a SQLite-based store for the crowdsale state,
// the token book and the payout outbox
type MetadataStoreSqlite struct {
	promRegistry prometheus.Registerer
	db           *gorm.DB
	logger       *slog.Logger
	metrics      *sqliteMetrics
	dataDir      string
	// vacuumInterval of 0 disables the periodic vacuum
	vacuumInterval time.Duration
	vacuumCancel   context.CancelFunc
	vacuumDone     chan struct{}
	batchSize      int
}

// New creates a SQLite metadata store. Uses in-memory database if no data
// directory is configured.
func New(opts ...MetadataStoreOptionFunc) (*MetadataStoreSqlite, error) {
	d := &MetadataStoreSqlite{
		vacuumInterval: DefaultVacuumInterval,
		batchSize:      DefaultSnapshotBatchSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.batchSize <= 0 {
		d.batchSize = DefaultSnapshotBatchSize
	}
	if err := d.open(); err != nil {
		return nil, err
	}
	if d.promRegistry != nil {
		d.metrics = newSqliteMetrics(d.promRegistry)
	}
	if err := d.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		// The store is returned so the caller can close it
		return d, fmt.Errorf("enable tracing: %w", err)
	}
	if err := d.migrate(); err != nil {
		return d, err
	}
	// In-memory stores have nothing to reclaim
	if d.dataDir != "" && d.vacuumInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		d.vacuumCancel = cancel
		d.vacuumDone = make(chan struct{})
		go d.vacuumLoop(ctx)
	}
	return d, nil
}

func (d *MetadataStoreSqlite) open() error {
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
	if d.dataDir == "" {
		db, err := gorm.Open(sqlite.Open("file::memory:"), gormConfig)
		if err != nil {
			return err
		}
		sqlDb, err := db.DB()
		if err != nil {
			return err
		}
		// Each connection to an in-memory database sees its own data
		sqlDb.SetMaxOpenConns(1)
		d.db = db
		return nil
	}
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	dsn := fmt.Sprintf(
		"file:%s?%s",
		filepath.Join(d.dataDir, metadataFileName),
		diskPragmas,
	)
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return err
	}
	d.db = db
	return nil
}

func (d *MetadataStoreSqlite) migrate() error {
	tables := append([]any{&commitMarkerRow{}}, models.MigrateModels...)
	for _, table := range tables {
		if err := d.db.AutoMigrate(table); err != nil {
			return fmt.Errorf("migrate %T: %w", table, err)
		}
	}
	d.logger.Debug("metadata schema ready", "tables", len(tables))
	return nil
}

func (d *MetadataStoreSqlite) vacuumLoop(ctx context.Context) {
	defer close(d.vacuumDone)
	ticker := time.NewTicker(d.vacuumInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := d.db.WithContext(ctx).Exec("VACUUM").Error; err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Error(
				"failed to free unused space in metadata store",
				"error", err,
			)
			continue
		}
		if d.metrics != nil {
			d.metrics.vacuums.Inc()
		}
	}
}

// Close stops the vacuum loop and closes the database connection
func (d *MetadataStoreSqlite) Close() error {
	if d.vacuumCancel != nil {
		d.vacuumCancel()
		<-d.vacuumDone
		d.vacuumCancel = nil
	}
	db, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// DB returns the underlying GORM database handle
func (d *MetadataStoreSqlite) DB() *gorm.DB {
	return d.db
}

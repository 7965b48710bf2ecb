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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MetadataStoreOptionFunc func(*MetadataStoreSqlite)

func WithLogger(logger *slog.Logger) MetadataStoreOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.logger = logger
	}
}

// WithPromRegistry enables the vacuum, snapshot and payout metrics
func WithPromRegistry(registry prometheus.Registerer) MetadataStoreOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.promRegistry = registry
	}
}

// WithDataDir stores the database under dataDir instead of in memory
func WithDataDir(dataDir string) MetadataStoreOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.dataDir = dataDir
	}
}

// WithVacuumInterval sets how often the on-disk database is vacuumed. Zero
// disables vacuuming.
func WithVacuumInterval(interval time.Duration) MetadataStoreOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.vacuumInterval = interval
	}
}

// WithSnapshotBatchSize sets the rows per insert when snapshot collections
// are rewritten
func WithSnapshotBatchSize(size int) MetadataStoreOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.batchSize = size
	}
}

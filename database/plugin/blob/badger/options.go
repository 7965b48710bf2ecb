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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreOption configures a BlobStoreBadger
type StoreOption func(*BlobStoreBadger)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(b *BlobStoreBadger) {
		b.logger = logger
	}
}

// WithPromRegistry enables store metrics on the given registry
func WithPromRegistry(registry prometheus.Registerer) StoreOption {
	return func(b *BlobStoreBadger) {
		b.promRegistry = registry
	}
}

// WithDataDir places the journal under dataDir/blob. An empty value keeps
// the journal in memory.
func WithDataDir(dataDir string) StoreOption {
	return func(b *BlobStoreBadger) {
		b.dataDir = dataDir
	}
}

// WithBlockCacheSize sets the badger block cache size in bytes
func WithBlockCacheSize(size uint64) StoreOption {
	return func(b *BlobStoreBadger) {
		b.blockCacheSize = size
	}
}

// WithGc enables or disables periodic value log garbage collection
func WithGc(enabled bool) StoreOption {
	return func(b *BlobStoreBadger) {
		b.gc.enabled = enabled
	}
}

// WithGcInterval sets how often value log garbage collection runs
func WithGcInterval(interval time.Duration) StoreOption {
	return func(b *BlobStoreBadger) {
		b.gc.interval = interval
	}
}

// WithGcDiscardRatio sets the fraction of stale data a value log file must
// hold before it is rewritten
func WithGcDiscardRatio(ratio float64) StoreOption {
	return func(b *BlobStoreBadger) {
		b.gc.discardRatio = ratio
	}
}

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type badgerMetrics struct {
	gcRuns prometheus.Counter
}

func newBadgerMetrics(promRegistry prometheus.Registerer) *badgerMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &badgerMetrics{
		gcRuns: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_blob_gc_runs_total",
			Help: "number of badger value log GC runs that rewrote a file",
		}),
	}
}

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type databaseMetrics struct {
	commits        prometheus.Counter
	commitFailures prometheus.Counter
	commitDuration prometheus.Histogram
	eventsWritten  prometheus.Counter
	lastSequence   prometheus.Gauge
}

func newDatabaseMetrics(promRegistry prometheus.Registerer) *databaseMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &databaseMetrics{
		commits: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_database_commits_total",
			Help: "number of committed crowdsale operations",
		}),
		commitFailures: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_database_commit_failures_total",
			Help: "number of failed crowdsale commits",
		}),
		commitDuration: promautoFactory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crowdsale_database_commit_duration_seconds",
			Help:    "time taken to commit a crowdsale operation",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		eventsWritten: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_journal_events_written_total",
			Help: "number of events written to the journal",
		}),
		lastSequence: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "crowdsale_journal_last_sequence",
			Help: "sequence number of the last journal event",
		}),
	}
}

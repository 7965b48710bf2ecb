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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type sqliteMetrics struct {
	vacuums        prometheus.Counter
	snapshotWrites prometheus.Counter
	payouts        *prometheus.CounterVec
}

func newSqliteMetrics(promRegistry prometheus.Registerer) *sqliteMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &sqliteMetrics{
		vacuums: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_sqlite_vacuums_total",
			Help: "number of completed sqlite vacuum runs",
		}),
		snapshotWrites: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_sqlite_snapshot_writes_total",
			Help: "number of crowdsale state snapshots written",
		}),
		payouts: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdsale_sqlite_payouts_total",
			Help: "number of payout outbox entries by status",
		}, []string{"status"}),
	}
}

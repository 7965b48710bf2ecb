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

package crowdsale

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type crowdsaleMetrics struct {
	operationsTotal    *prometheus.CounterVec
	operationErrors    *prometheus.CounterVec
	operationLatency   *prometheus.HistogramVec
	contributionsTotal prometheus.Counter
	raisedWei          prometheus.Gauge
	depositEntries     prometheus.Gauge
	deals              prometheus.Gauge
	invoices           prometheus.Gauge
	claimedTokens      prometheus.Counter
	state              prometheus.Gauge
}

func (m *crowdsaleMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operationsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdsale_operations_total",
			Help: "total number of successful operations",
		},
		[]string{"operation"},
	)
	m.operationErrors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdsale_operation_errors_total",
			Help: "total number of rejected operations",
		},
		[]string{"operation"},
	)
	m.operationLatency = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crowdsale_operation_duration_seconds",
			Help:    "duration of operations including persistence",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
		[]string{"operation"},
	)
	m.contributionsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "crowdsale_contributions_total",
		Help: "total number of accepted contributions",
	})
	m.raisedWei = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "crowdsale_raised_wei",
		Help: "total value raised, approximated as a float",
	})
	m.depositEntries = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "crowdsale_deposit_entries",
		Help: "current number of deposit entries",
	})
	m.deals = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "crowdsale_deals",
		Help: "current number of pre-sale deals",
	})
	m.invoices = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "crowdsale_invoices",
		Help: "current number of open invoices",
	})
	m.claimedTokens = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "crowdsale_claimed_tokens_total",
		Help: "total tokens claimed, approximated as a float",
	})
	m.state = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "crowdsale_state",
		Help: "current crowdsale state (0=NotStarted, 1=Open, 2=Closed, 3=Finished)",
	})
}

func bigToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

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

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newApiMetrics(promRegistry prometheus.Registerer) *apiMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &apiMetrics{
		requests: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdsale_api_requests_total",
			Help: "number of API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		duration: promautoFactory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crowdsale_api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

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
	"io"
	"log/slog"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/crowdsale/bonus"
	"github.com/blinklabs-io/crowdsale/event"
)

// Params are the fixed terms of a sale
type Params struct {
	OpeningTime uint64
	ClosingTime uint64
	Rate        *big.Int
	SoftCap     *big.Int
	HardCap     *big.Int
}

type Config struct {
	logger         *slog.Logger
	promRegistry   prometheus.Registerer
	eventBus       *event.EventBus
	store          Store
	admins         AdminRegistry
	token          TokenLedger
	valueSender    ValueSender
	bonusSchedule  *bonus.Schedule
	tracerProvider trace.TracerProvider
}

// ConfigOptionFunc is a type that represents functions that modify the crowdsale config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new crowdsale config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		logger:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		bonusSchedule: bonus.DefaultSchedule(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithEventBus specifies the event bus that receives events after each successful operation
func WithEventBus(eventBus *event.EventBus) ConfigOptionFunc {
	return func(c *Config) {
		c.eventBus = eventBus
	}
}

// WithStore specifies where state, events and payouts are persisted. The default is to keep state in memory only
func WithStore(store Store) ConfigOptionFunc {
	return func(c *Config) {
		c.store = store
	}
}

// WithAdminRegistry specifies the admin registry used for capability checks
func WithAdminRegistry(admins AdminRegistry) ConfigOptionFunc {
	return func(c *Config) {
		c.admins = admins
	}
}

// WithTokenLedger specifies the token that claimed tokens are credited to
func WithTokenLedger(token TokenLedger) ConfigOptionFunc {
	return func(c *Config) {
		c.token = token
	}
}

// WithValueSender specifies the value transfer primitive used for refunds and escrow payouts when no store is configured
func WithValueSender(sender ValueSender) ConfigOptionFunc {
	return func(c *Config) {
		c.valueSender = sender
	}
}

// WithBonusSchedule overrides the default bonus schedule
func WithBonusSchedule(schedule *bonus.Schedule) ConfigOptionFunc {
	return func(c *Config) {
		c.bonusSchedule = schedule
	}
}

// WithTracerProvider specifies the OpenTelemetry tracer provider. This defaults to the global provider
func WithTracerProvider(tp trace.TracerProvider) ConfigOptionFunc {
	return func(c *Config) {
		c.tracerProvider = tp
	}
}

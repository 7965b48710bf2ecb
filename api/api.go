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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/crowdsale"
)

const (
	DefaultListenAddress = ":8080"
	DefaultRateLimit     = 120
	DefaultRateWindow    = time.Minute
)

// Config holds the API server settings
type Config struct {
	ListenAddress string
	// RateLimit is the number of requests per RateWindow allowed from a
	// single client IP. Zero disables rate limiting.
	RateLimit    int
	RateWindow   time.Duration
	PromRegistry prometheus.Registerer
	// Clock returns the current unix time in seconds. Defaults to the
	// system clock.
	Clock func() uint64
}

// Server is the crowdsale HTTP API. Callers are identified by the
// X-Caller-Address header, so it must only listen on a trusted network.
type Server struct {
	config     Config
	logger     *slog.Logger
	sale       Crowdsale
	journal    Journal
	payouts    PayoutOutbox
	admins     crowdsale.AdminRegistry
	validate   *validator.Validate
	metrics    *apiMetrics
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance. The journal and payout outbox are
// optional.
func New(
	cfg Config,
	sale Crowdsale,
	admins crowdsale.AdminRegistry,
	journal Journal,
	payouts PayoutOutbox,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultRateWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = func() uint64 {
			return uint64(time.Now().Unix()) // #nosec G115
		}
	}
	s := &Server{
		config:   cfg,
		logger:   logger,
		sale:     sale,
		admins:   admins,
		journal:  journal,
		payouts:  payouts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if cfg.PromRegistry != nil {
		s.metrics = newApiMetrics(cfg.PromRegistry)
	}
	return s
}

// Start starts the HTTP server in a background goroutine
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	// Bind first so port conflicts are reported immediately
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	s.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/blinklabs-io/crowdsale/api"
	"github.com/blinklabs-io/crowdsale/database"
	"github.com/blinklabs-io/crowdsale/event"
	"github.com/blinklabs-io/crowdsale/internal/config"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	var tracerProvider trace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err := setupTracing(signalCtx, cfg.Tracing)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("tracer shutdown error", "error", err)
			}
		}()
		tracerProvider = tp
	}

	promRegistry := prometheus.DefaultRegisterer
	db, err := database.New(&database.Config{
		Logger:       logger,
		PromRegistry: promRegistry,
		DataDir:      cfg.DatabasePath,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	eventBus := event.NewEventBus(promRegistry, logger)
	defer eventBus.Stop()
	eventBus.SubscribeFunc(event.AllEvents, func(evt event.Event) {
		logger.Info(
			"crowdsale event",
			"component", "node",
			"type", evt.Type,
			"sequence", evt.Sequence,
			"block", evt.Block,
		)
	})

	sale, err := OpenSale(
		signalCtx,
		cfg,
		db,
		eventBus,
		promRegistry,
		tracerProvider,
		logger,
	)
	if err != nil {
		return err
	}

	apiServer := api.New(
		api.Config{
			ListenAddress: cfg.ApiListenAddress(),
			RateLimit:     cfg.RateLimit,
			PromRegistry:  promRegistry,
		},
		sale.Crowdsale,
		sale.Admins,
		db,
		db,
		logger,
	)

	// Metrics listener
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsListenAddress(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "node",
		)
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return apiServer.Start(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("initiating graceful shutdown", "component", "node")
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		//nolint:contextcheck
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
		//nolint:contextcheck
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("node error", "error", err)
		return err
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}

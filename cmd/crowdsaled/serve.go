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

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/blinklabs-io/crowdsale/internal/node"
	"github.com/blinklabs-io/crowdsale/internal/version"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the crowdsale API service",
		RunE:  serveRunE,
	}
}

func serveRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(rootFlags.debug || cfg.Debug)
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...), "component", programName)
	}))
	if err != nil {
		return fmt.Errorf("set GOMAXPROCS: %w", err)
	}
	defer undo()
	logger.Info(
		"starting "+programName,
		"component", programName,
		"version", version.GetVersionString(),
		"api", cfg.ApiListenAddress(),
	)
	if err := node.Run(cfg, logger); err != nil {
		slog.Error("service stopped", "error", err)
		return err
	}
	return nil
}

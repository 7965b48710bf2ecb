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
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/crowdsale/internal/config"
)

const programName = "crowdsaled"

var rootFlags struct {
	configFile string
	debug      bool
}

var errNoConfig = errors.New("no config found in context")

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Crowdsale deposit, vesting and claim ledger service",
		SilenceUsage: true,
		// The default command is serve
		RunE: serveRunE,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(rootFlags.configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cmd.SetContext(config.WithContext(cmd.Context(), cfg))
			return nil
		},
	}
	rootCmd.PersistentFlags().
		StringVar(&rootFlags.configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		BoolVarP(&rootFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.AddCommand(
		serveCommand(),
		bonusCommand(),
		inspectCommand(),
		versionCommand(),
	)
	return rootCmd
}

// commandConfig returns the config loaded by the root command
func commandConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, errNoConfig
	}
	return cfg, nil
}

// skipConfig replaces the root config loading for commands that do not
// need a valid sale config
func skipConfig(_ *cobra.Command, _ []string) error {
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

// newLogger builds the JSON process logger and installs it as the default
func newLogger(debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

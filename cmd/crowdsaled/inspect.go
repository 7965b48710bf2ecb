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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/crowdsale/database"
)

// inspectRun opens the database of the configured sale and prints the
// result of fn as JSON. The service must not be running, since the journal
// is locked while open.
func inspectRun(
	cmd *cobra.Command,
	fn func(context.Context, *database.Database) (any, error),
) (err error) {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	db, err := database.New(&database.Config{
		DataDir: cfg.DatabasePath,
		Logger:  slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	})
	if db != nil {
		defer func() {
			err = errors.Join(err, db.Close())
		}()
	}
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	ret, err := fn(cmd.Context(), db)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(ret)
}

func inspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the stored crowdsale state",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "sale",
			Short: "Show the stored crowdsale snapshot",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return inspectRun(cmd, func(ctx context.Context, db *database.Database) (any, error) {
					return db.LoadSnapshot(ctx)
				})
			},
		},
	)
	var after uint64
	var limit int
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List journal events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inspectRun(cmd, func(_ context.Context, db *database.Database) (any, error) {
				return db.Events(after, limit)
			})
		},
	}
	eventsCmd.Flags().Uint64Var(&after, "after", 0, "only list events after this sequence")
	eventsCmd.Flags().IntVar(&limit, "limit", database.DefaultEventLimit, "maximum number of events")
	cmd.AddCommand(eventsCmd)
	var status string
	payoutsCmd := &cobra.Command{
		Use:   "payouts",
		Short: "List outbox payouts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inspectRun(cmd, func(ctx context.Context, db *database.Database) (any, error) {
				return db.Payouts(ctx, status)
			})
		},
	}
	payoutsCmd.Flags().StringVar(&status, "status", "", "only list payouts with this status (pending, sent)")
	cmd.AddCommand(payoutsCmd)
	return cmd
}

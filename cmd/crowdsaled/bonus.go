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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/crowdsale/bonus"
	"github.com/blinklabs-io/crowdsale/internal/config"
)

func bonusCommand() *cobra.Command {
	var elapsedDays int64
	cmd := &cobra.Command{
		Use:               "bonus",
		Short:             "Show the bonus schedule",
		PersistentPreRunE: skipConfig,
		Run: func(cmd *cobra.Command, args []string) {
			schedule := bonus.DefaultSchedule()
			// Fall back to the default table without a valid config
			cfg, err := config.LoadConfig(rootFlags.configFile)
			if err == nil {
				schedule, err = cfg.BonusSchedule()
			}
			if err != nil {
				slog.Warn(
					"using default bonus schedule",
					"component", programName,
					"error", err,
				)
				schedule = bonus.DefaultSchedule()
			}
			if elapsedDays >= 0 {
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"day %d: %d%%\n",
					elapsedDays,
					schedule.Percent(uint64(elapsedDays)),
				)
				return
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FROM DAY\tPERCENT")
			for _, step := range schedule.Steps() {
				fmt.Fprintf(tw, "%d\t%d\n", step.FromDay, step.Percent)
			}
			_ = tw.Flush()
		},
	}
	cmd.Flags().
		Int64Var(&elapsedDays, "day", -1, "show the bonus percent for a number of days after opening")
	return cmd
}

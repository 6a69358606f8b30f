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
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blinklabs-io/supersig/internal/config"
	"github.com/blinklabs-io/supersig/internal/node"
	"github.com/blinklabs-io/supersig/internal/scenario"
	"github.com/spf13/cobra"
)

func scenarioCommand() *cobra.Command {
	var persistent bool
	cmd := &cobra.Command{
		Use:   "scenario <file.yaml>",
		Short: "Apply a scripted sequence of operations and print the results as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			// The report goes to stdout
			logger := setupLogging(os.Stderr)
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			// Scenario runs get their own ledger seeded from the file
			runCfg := *cfg
			runCfg.Tracing = false
			if !persistent {
				runCfg.DatabasePath = ""
			}
			if sc.ExistentialDeposit > 0 {
				runCfg.Ledger.ExistentialDeposit = sc.ExistentialDeposit
			}
			if runCfg.Ledger.Endowments, err = sc.Endowments(); err != nil {
				return err
			}
			n, err := node.New(cmd.Context(), &runCfg, logger)
			if err != nil {
				return err
			}
			report, runErr := scenario.Run(cmd.Context(), n.Engine(), n.Ledger(), sc)
			closeErr := n.Close()
			if report != nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}
			return errors.Join(runErr, closeErr)
		},
	}
	cmd.Flags().BoolVar(
		&persistent,
		"persistent",
		false,
		"apply the scenario to the configured database path instead of a fresh in-memory database",
	)
	return cmd
}

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
	"strconv"

	"github.com/blinklabs-io/supersig/address"
	"github.com/blinklabs-io/supersig/types"
	"github.com/spf13/cobra"
)

func addressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address <unit-id | address>",
		Short: "Derive the governed address of a unit, or resolve an address to its unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addressing := address.NewModuleAddressing(address.DefaultPalletID)
			out := cmd.OutOrStdout()
			if id, err := strconv.ParseUint(args[0], 10, 64); err == nil {
				addr, err := addressing.DeriveAddress(types.UnitID(id))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n%s\n", addr.String(), addr.Hex())
				return nil
			}
			addr, err := types.ParseAddress(args[0])
			if err != nil {
				return err
			}
			unit, ok := addressing.ResolveUnitID(addr)
			if !ok {
				return fmt.Errorf("%s is not a unit address", addr)
			}
			fmt.Fprintln(out, unit.String())
			return nil
		},
	}
	return cmd
}

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

package executor

import (
	"context"

	"github.com/blinklabs-io/supersig/ledger"
	"github.com/blinklabs-io/supersig/types"
)

const (
	ModuleSystem   = "system"
	ModuleBalances = "balances"
)

// RemarkArgs carries an arbitrary note
type RemarkArgs struct {
	Remark []byte `cbor:"0,keyasint"`
}

// TransferArgs moves funds out of the acting account
type TransferArgs struct {
	To     types.Address `cbor:"0,keyasint"`
	Amount uint64        `cbor:"1,keyasint"`
}

// RegisterSystem adds system.remark, which does nothing but log
func RegisterSystem(r *Registry) {
	RegisterWithArgs(
		r,
		ModuleSystem,
		"remark",
		func(_ context.Context, actingAs types.Address, args *RemarkArgs) error {
			r.logger.Info(
				"remark",
				"component", "executor",
				"acting_as", actingAs.String(),
				"remark", string(args.Remark),
			)
			return nil
		},
	)
}

// RegisterBalances adds balances.transfer against the given ledger. The
// acting account is kept alive.
func RegisterBalances(r *Registry, l ledger.Ledger) {
	RegisterWithArgs(
		r,
		ModuleBalances,
		"transfer",
		func(_ context.Context, actingAs types.Address, args *TransferArgs) error {
			return l.Transfer(actingAs, args.To, args.Amount, false)
		},
	)
}

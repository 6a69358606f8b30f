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

package supersig

import (
	"context"

	"github.com/blinklabs-io/supersig/executor"
	"github.com/blinklabs-io/supersig/types"
)

const ModuleSupersig = "supersig"

type AddMembersArgs struct {
	Members []types.Member `cbor:"0,keyasint"`
}

type RemoveMembersArgs struct {
	Accounts []types.Address `cbor:"0,keyasint"`
}

type DeleteUnitArgs struct {
	Beneficiary types.Address `cbor:"0,keyasint"`
}

// RegisterCommands adds the supersig.* commands, which let a unit manage
// itself through its own proposals
func (e *Engine) RegisterCommands(r *executor.Registry) {
	executor.RegisterWithArgs(
		r,
		ModuleSupersig,
		"add_members",
		func(ctx context.Context, actingAs types.Address, args *AddMembersArgs) error {
			return e.AddMembers(ctx, actingAs, args.Members)
		},
	)
	executor.RegisterWithArgs(
		r,
		ModuleSupersig,
		"remove_members",
		func(ctx context.Context, actingAs types.Address, args *RemoveMembersArgs) error {
			return e.RemoveMembers(ctx, actingAs, args.Accounts)
		},
	)
	executor.RegisterWithArgs(
		r,
		ModuleSupersig,
		"delete_unit",
		func(ctx context.Context, actingAs types.Address, args *DeleteUnitArgs) error {
			return e.DeleteUnit(ctx, actingAs, args.Beneficiary)
		},
	)
}

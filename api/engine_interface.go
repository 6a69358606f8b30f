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

	"github.com/blinklabs-io/supersig"
	"github.com/blinklabs-io/supersig/types"
)

// Engine is the read-only view of the governance engine served by the API
type Engine interface {
	UnitsForAccount(ctx context.Context, account types.Address) ([]types.UnitID, error)
	UnitAddress(unit types.UnitID) (types.Address, error)
	Unit(ctx context.Context, unitAddr types.Address) (*supersig.UnitInfo, error)
	ListMembers(ctx context.Context, unitAddr types.Address) ([]types.Member, error)
	ListProposals(ctx context.Context, unitAddr types.Address) (*supersig.ProposalList, error)
	GetProposalState(
		ctx context.Context,
		unitAddr types.Address,
		call types.CallID,
	) (*supersig.ProposalState, error)
	ListExecutions(ctx context.Context, unitAddr types.Address) ([]supersig.ExecutionRecord, error)
}

var _ Engine = (*supersig.Engine)(nil)

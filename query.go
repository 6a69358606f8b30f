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
	"fmt"
	"time"

	"github.com/blinklabs-io/supersig/database"
	"github.com/blinklabs-io/supersig/types"
)

// UnitInfo summarizes a live unit
type UnitInfo struct {
	CreatedAt       time.Time     `json:"createdAt"`
	Address         types.Address `json:"address"`
	Creator         types.Address `json:"creator"`
	ID              types.UnitID  `json:"id"`
	TotalDeposit    uint64        `json:"totalDeposit"`
	CallNonce       uint64        `json:"callNonce"`
	TotalMembers    uint32        `json:"totalMembers"`
	ActiveProposals uint32        `json:"activeProposals"`
	Threshold       uint32        `json:"threshold"`
}

// ProposalState is an open proposal with its votes
type ProposalState struct {
	Data     []byte          `json:"data"`
	Voters   []types.Address `json:"voters"`
	Provider types.Address   `json:"provider"`
	CallID   types.CallID    `json:"callId"`
	Deposit  uint64          `json:"deposit"`
	Tally    uint32          `json:"tally"`
}

// ProposalList is the set of open proposals of a unit together with the
// member count the votes are weighed against
type ProposalList struct {
	Proposals   []ProposalState `json:"proposals"`
	MemberCount uint32          `json:"memberCount"`
}

// ExecutionRecord is the outcome of an executed proposal
type ExecutionRecord struct {
	ExecutedAt time.Time     `json:"executedAt"`
	Error      string        `json:"error,omitempty"`
	Provider   types.Address `json:"provider"`
	CallID     types.CallID  `json:"callId"`
	Success    bool          `json:"success"`
}

// UnitsForAccount returns the IDs of the live units the account belongs to,
// in ascending order
func (e *Engine) UnitsForAccount(
	ctx context.Context,
	account types.Address,
) ([]types.UnitID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := e.db.Metadata().GetUnitsForAccount(nil, account.Bytes())
	if err != nil {
		return nil, err
	}
	ret := make([]types.UnitID, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, types.UnitID(id))
	}
	return ret, nil
}

// UnitAddress returns the address governed by the given unit ID
func (e *Engine) UnitAddress(unit types.UnitID) (types.Address, error) {
	return e.addressing.DeriveAddress(unit)
}

// Unit returns a summary of the unit governed by unitAddr
func (e *Engine) Unit(ctx context.Context, unitAddr types.Address) (*UnitInfo, error) {
	var ret *UnitInfo
	err := e.view(ctx, func(txn *database.Txn) error {
		unit, total, err := e.resolveUnit(txn, unitAddr)
		if err != nil {
			return err
		}
		info := &UnitInfo{
			ID:           unit,
			Address:      unitAddr,
			TotalMembers: total,
			Threshold:    Threshold(total),
		}
		if info.TotalDeposit, err = e.members.TotalDeposit(txn, unit); err != nil {
			return err
		}
		if info.ActiveProposals, err = e.proposals.ActiveProposals(txn, unit); err != nil {
			return err
		}
		if info.CallNonce, err = e.proposals.CallNonce(txn, unit); err != nil {
			return err
		}
		row, err := e.db.Metadata().GetUnit(nil, uint64(unit))
		if err != nil {
			return err
		}
		if row != nil {
			info.CreatedAt = row.CreatedAt
			creator, err := types.NewAddress(row.Creator)
			if err != nil {
				return fmt.Errorf("unit %d creator: %w", unit, err)
			}
			info.Creator = creator
		}
		ret = info
		return nil
	})
	return ret, err
}

// ListMembers returns the members of the unit governed by unitAddr
func (e *Engine) ListMembers(
	ctx context.Context,
	unitAddr types.Address,
) ([]types.Member, error) {
	var ret []types.Member
	err := e.view(ctx, func(txn *database.Txn) error {
		unit, _, err := e.resolveUnit(txn, unitAddr)
		if err != nil {
			return err
		}
		ret, err = e.members.ListMembers(txn, unit)
		return err
	})
	return ret, err
}

// ListProposals returns the open proposals of the unit governed by unitAddr
// in call order
func (e *Engine) ListProposals(
	ctx context.Context,
	unitAddr types.Address,
) (*ProposalList, error) {
	var ret *ProposalList
	err := e.view(ctx, func(txn *database.Txn) error {
		unit, total, err := e.resolveUnit(txn, unitAddr)
		if err != nil {
			return err
		}
		entries, err := e.proposals.List(txn, unit)
		if err != nil {
			return err
		}
		ret = &ProposalList{
			MemberCount: total,
			Proposals:   make([]ProposalState, 0, len(entries)),
		}
		for _, entry := range entries {
			ret.Proposals = append(ret.Proposals, ProposalState{
				CallID:   entry.CallID,
				Data:     entry.Proposal.Data,
				Provider: entry.Proposal.Provider,
				Deposit:  entry.Proposal.Deposit,
				Voters:   entry.Voters,
				Tally:    entry.Tally,
			})
		}
		return nil
	})
	return ret, err
}

// GetProposalState returns a single open proposal
func (e *Engine) GetProposalState(
	ctx context.Context,
	unitAddr types.Address,
	call types.CallID,
) (*ProposalState, error) {
	var ret *ProposalState
	err := e.view(ctx, func(txn *database.Txn) error {
		unit, _, err := e.resolveUnit(txn, unitAddr)
		if err != nil {
			return err
		}
		proposal, err := e.proposals.Get(txn, unit, call)
		if err != nil {
			return err
		}
		if proposal == nil {
			return types.ErrCallNotFound
		}
		voters, err := e.proposals.Voters(txn, unit, call)
		if err != nil {
			return err
		}
		tally, err := e.proposals.Tally(txn, unit, call)
		if err != nil {
			return err
		}
		ret = &ProposalState{
			CallID:   call,
			Data:     proposal.Data,
			Provider: proposal.Provider,
			Deposit:  proposal.Deposit,
			Voters:   voters,
			Tally:    tally,
		}
		return nil
	})
	return ret, err
}

// ListExecutions returns the recorded call executions of a unit, oldest
// first. History outlives the unit.
func (e *Engine) ListExecutions(
	ctx context.Context,
	unitAddr types.Address,
) ([]ExecutionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unit, ok := e.addressing.ResolveUnitID(unitAddr)
	if !ok {
		return nil, types.ErrNotSupersig
	}
	rows, err := e.db.Metadata().GetExecutions(nil, uint64(unit))
	if err != nil {
		return nil, err
	}
	ret := make([]ExecutionRecord, 0, len(rows))
	for _, row := range rows {
		provider, err := types.NewAddress(row.Provider)
		if err != nil {
			return nil, fmt.Errorf("execution %d provider: %w", row.ID, err)
		}
		ret = append(ret, ExecutionRecord{
			CallID:     types.CallID(row.CallID),
			Provider:   provider,
			Success:    row.Success,
			Error:      row.Error,
			ExecutedAt: row.ExecutedAt,
		})
	}
	return ret, nil
}

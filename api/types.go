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
	"encoding/hex"
	"time"

	"github.com/blinklabs-io/supersig"
	"github.com/blinklabs-io/supersig/types"
)

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
	StatusCode int    `json:"status_code"`
}

type AccountUnitResponse struct {
	Address types.Address `json:"address"`
	ID      types.UnitID  `json:"id"`
}

type UnitResponse struct {
	CreatedAt       *time.Time    `json:"created_at,omitempty"`
	Address         types.Address `json:"address"`
	Creator         types.Address `json:"creator"`
	ID              types.UnitID  `json:"id"`
	TotalDeposit    uint64        `json:"total_deposit"`
	CallNonce       uint64        `json:"call_nonce"`
	TotalMembers    uint32        `json:"total_members"`
	ActiveProposals uint32        `json:"active_proposals"`
	Threshold       uint32        `json:"threshold"`
}

type MemberResponse struct {
	Account types.Address `json:"account"`
	Role    types.Role    `json:"role"`
}

type ProposalResponse struct {
	Data     string          `json:"data"`
	Voters   []types.Address `json:"voters"`
	Provider types.Address   `json:"provider"`
	CallID   types.CallID    `json:"call_id"`
	Deposit  uint64          `json:"deposit"`
	Tally    uint32          `json:"tally"`
}

type ProposalsResponse struct {
	Proposals   []ProposalResponse `json:"proposals"`
	MemberCount uint32             `json:"member_count"`
}

type ExecutionResponse struct {
	ExecutedAt time.Time     `json:"executed_at"`
	Error      string        `json:"error,omitempty"`
	Provider   types.Address `json:"provider"`
	CallID     types.CallID  `json:"call_id"`
	Success    bool          `json:"success"`
}

func newUnitResponse(info *supersig.UnitInfo) UnitResponse {
	ret := UnitResponse{
		Address:         info.Address,
		Creator:         info.Creator,
		ID:              info.ID,
		TotalDeposit:    info.TotalDeposit,
		CallNonce:       info.CallNonce,
		TotalMembers:    info.TotalMembers,
		ActiveProposals: info.ActiveProposals,
		Threshold:       info.Threshold,
	}
	if !info.CreatedAt.IsZero() {
		createdAt := info.CreatedAt.UTC()
		ret.CreatedAt = &createdAt
	}
	return ret
}

func newProposalResponse(p supersig.ProposalState) ProposalResponse {
	voters := p.Voters
	if voters == nil {
		voters = []types.Address{}
	}
	return ProposalResponse{
		Data:     hex.EncodeToString(p.Data),
		Voters:   voters,
		Provider: p.Provider,
		CallID:   p.CallID,
		Deposit:  p.Deposit,
		Tally:    p.Tally,
	}
}

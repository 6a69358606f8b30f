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

package event

import (
	"github.com/blinklabs-io/supersig/types"
)

const (
	UnitCreatedEventType            EventType = "supersig.unit_created"
	UnitRemovedEventType            EventType = "supersig.unit_removed"
	CallSubmittedEventType          EventType = "supersig.call_submitted"
	CallVotedEventType              EventType = "supersig.call_voted"
	CallRemovedEventType            EventType = "supersig.call_removed"
	CallExecutionAttemptedEventType EventType = "supersig.call_execution_attempted"
	MembersAddedEventType           EventType = "supersig.members_added"
	MembersRemovedEventType         EventType = "supersig.members_removed"
	MemberLeftEventType             EventType = "supersig.member_left"
)

// GovernanceEventTypes lists every event type emitted by the engine
var GovernanceEventTypes = []EventType{
	UnitCreatedEventType,
	UnitRemovedEventType,
	CallSubmittedEventType,
	CallVotedEventType,
	CallRemovedEventType,
	CallExecutionAttemptedEventType,
	MembersAddedEventType,
	MembersRemovedEventType,
	MemberLeftEventType,
}

type UnitCreatedEvent struct {
	UnitAddress types.Address  `json:"unitAddress"`
	Creator     types.Address  `json:"creator"`
	Members     []types.Member `json:"members"`
	UnitID      types.UnitID   `json:"unitId"`
	Deposit     uint64         `json:"deposit"`
}

type UnitRemovedEvent struct {
	UnitAddress types.Address `json:"unitAddress"`
	Beneficiary types.Address `json:"beneficiary"`
	UnitID      types.UnitID  `json:"unitId"`
	Amount      uint64        `json:"amount"`
}

type CallSubmittedEvent struct {
	UnitAddress types.Address `json:"unitAddress"`
	Provider    types.Address `json:"provider"`
	UnitID      types.UnitID  `json:"unitId"`
	CallID      types.CallID  `json:"callId"`
	Deposit     uint64        `json:"deposit"`
}

type CallVotedEvent struct {
	UnitAddress types.Address `json:"unitAddress"`
	Voter       types.Address `json:"voter"`
	UnitID      types.UnitID  `json:"unitId"`
	CallID      types.CallID  `json:"callId"`
	Weight      uint32        `json:"weight"`
	Tally       uint32        `json:"tally"`
}

type CallRemovedEvent struct {
	UnitAddress types.Address `json:"unitAddress"`
	RemovedBy   types.Address `json:"removedBy"`
	UnitID      types.UnitID  `json:"unitId"`
	CallID      types.CallID  `json:"callId"`
}

type CallExecutionAttemptedEvent struct {
	UnitAddress types.Address `json:"unitAddress"`
	Error       string        `json:"error,omitempty"`
	UnitID      types.UnitID  `json:"unitId"`
	CallID      types.CallID  `json:"callId"`
	Success     bool          `json:"success"`
}

// MembersAddedEvent carries the roles written, after dropping NotMember
// requests and merging duplicates, and the accounts that were not members
// before
type MembersAddedEvent struct {
	UnitAddress types.Address   `json:"unitAddress"`
	Members     []types.Member  `json:"members"`
	Added       []types.Address `json:"added"`
	UnitID      types.UnitID    `json:"unitId"`
}

type MembersRemovedEvent struct {
	UnitAddress types.Address   `json:"unitAddress"`
	Accounts    []types.Address `json:"accounts"`
	UnitID      types.UnitID    `json:"unitId"`
}

type MemberLeftEvent struct {
	UnitAddress types.Address `json:"unitAddress"`
	Account     types.Address `json:"account"`
	UnitID      types.UnitID  `json:"unitId"`
}

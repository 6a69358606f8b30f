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

// Package types holds the identifiers, roles and errors shared by the
// governance engine and its collaborators.
package types

import (
	"strconv"
)

// UnitID identifies a governed unit. Unit IDs are allocated from a global
// counter and are never reused.
type UnitID uint64

func (u UnitID) String() string {
	return strconv.FormatUint(uint64(u), 10)
}

// CallID identifies a proposal within a unit
type CallID uint64

func (c CallID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// Member pairs an account with the role it holds in a unit
type Member struct {
	Account Address `json:"account" yaml:"account"`
	Role    Role    `json:"role"    yaml:"role"`
}

// Proposal is an open call awaiting approval
type Proposal struct {
	Data     []byte  `cbor:"0,keyasint"`
	Provider Address `cbor:"1,keyasint"`
	Deposit  uint64  `cbor:"2,keyasint"`
}

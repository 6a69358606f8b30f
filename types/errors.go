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

package types

import "errors"

// Validation
var (
	ErrMustHaveAtLeastOneMember = errors.New("unit must have at least one member")
	ErrCallDataTooLarge         = errors.New("call data too large")
	ErrTooManyActiveProposals   = errors.New("too many active proposals")
	ErrTooManyAccounts          = errors.New("too many accounts in a single request")
)

// Not found
var (
	ErrNotSupersig  = errors.New("address is not a live supersig")
	ErrCallNotFound = errors.New("call not found")
)

// Authorization
var (
	ErrNotAllowed = errors.New("caller is not allowed")
	ErrNotMember  = errors.New("caller is not a member")
)

// ErrAlreadyVoted is returned when a member votes twice on the same call
var ErrAlreadyVoted = errors.New("already voted")

// Numeric
var (
	ErrOverflow     = errors.New("arithmetic overflow")
	ErrConversion   = errors.New("numeric conversion failed")
	ErrInvalidNonce = errors.New("invalid unit nonce")
)

// ErrBadEncodedCall is reported when a call fails to decode at execution time
var ErrBadEncodedCall = errors.New("bad encoded call")

// ErrSupersigHaveLockedFunds is returned when a unit cannot be deleted
// because its address still carries reservations
var ErrSupersigHaveLockedFunds = errors.New("supersig has locked funds")

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

// Package ledger defines the currency collaborator the governance engine
// moves and locks funds through, with an in-memory implementation and an
// undo journal used to roll back ledger effects of a failed operation.
package ledger

import (
	"errors"

	"github.com/blinklabs-io/supersig/types"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrKeepAlive           = errors.New("transfer would kill account")
	ErrExistentialDeposit  = errors.New("value below existential deposit")
	ErrConsumerRemaining   = errors.New("account has remaining consumers")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Ledger holds balances and reservations. Amounts are in the smallest
// currency unit.
type Ledger interface {
	// MinimumBalance is the smallest total balance an account can hold
	MinimumBalance() uint64
	// Transfer moves free balance. With allowDeath the sender may drop below
	// the minimum balance and be removed.
	Transfer(from, to types.Address, amount uint64, allowDeath bool) error
	// Reserve moves free balance into the reserved balance
	Reserve(account types.Address, amount uint64) error
	// Unreserve moves up to amount from reserved back to free and returns
	// the amount actually moved
	Unreserve(account types.Address, amount uint64) uint64
	FreeBalance(account types.Address) uint64
	TotalBalance(account types.Address) uint64
	// RegisterConsumer pins an existing account so it cannot be removed
	RegisterConsumer(account types.Address) error
	DeregisterConsumer(account types.Address)
}

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

package ledger

import (
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/blinklabs-io/supersig/types"
)

type account struct {
	free      uint64
	reserved  uint64
	consumers uint32
}

type changeKind uint8

const (
	changeTransfer changeKind = iota
	changeReserve
	changeUnreserve
	changeRegisterConsumer
	changeDeregisterConsumer
)

// change records the effect of one mutation. A zero amount means nothing
// happened.
type change struct {
	// reaped holds what a transfer sender had left when it was removed
	reaped *account
	from   types.Address
	to     types.Address
	amount uint64
	kind   changeKind
	// created is set when a transfer created the recipient
	created bool
}

func (a *account) total() uint64 {
	// free and reserved are bounded by the issuance, which fits uint64
	return a.free + a.reserved
}

// MemoryLedger is an in-memory Ledger with an existential deposit, keep
// alive transfers and consumer references
type MemoryLedger struct {
	accounts           map[types.Address]*account
	existentialDeposit uint64
	issuance           uint64
	mu                 sync.RWMutex
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger(existentialDeposit uint64) *MemoryLedger {
	return &MemoryLedger{
		accounts:           make(map[types.Address]*account),
		existentialDeposit: existentialDeposit,
	}
}

// Mint credits new funds to an account
func (l *MemoryLedger) Mint(to types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount > math.MaxUint64-l.issuance {
		return ErrBalanceOverflow
	}
	acct := l.accounts[to]
	if acct == nil {
		if amount < l.existentialDeposit {
			return ErrExistentialDeposit
		}
		acct = &account{}
		l.accounts[to] = acct
	}
	acct.free += amount
	l.issuance += amount
	return nil
}

// TotalIssuance returns the sum of all balances
func (l *MemoryLedger) TotalIssuance() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.issuance
}

func (l *MemoryLedger) MinimumBalance() uint64 {
	return l.existentialDeposit
}

func (l *MemoryLedger) Transfer(
	from, to types.Address,
	amount uint64,
	allowDeath bool,
) error {
	_, err := l.transfer(from, to, amount, allowDeath)
	return err
}

func (l *MemoryLedger) transfer(
	from, to types.Address,
	amount uint64,
	allowDeath bool,
) (change, error) {
	ret := change{kind: changeTransfer, from: from, to: to}
	if amount == 0 || from == to {
		return ret, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.accounts[from]
	if src == nil || src.free < amount {
		return ret, ErrInsufficientBalance
	}
	remaining := src.total() - amount
	kills := remaining < l.existentialDeposit
	if kills {
		if !allowDeath {
			return ret, ErrKeepAlive
		}
		if src.consumers > 0 {
			return ret, ErrConsumerRemaining
		}
	}
	dst := l.accounts[to]
	if dst == nil && amount < l.existentialDeposit {
		return ret, ErrExistentialDeposit
	}
	if dst == nil {
		dst = &account{}
		l.accounts[to] = dst
		ret.created = true
	}
	src.free -= amount
	dst.free += amount
	ret.amount = amount
	if kills {
		// Dust left behind by a removed account is burned
		l.issuance -= src.total()
		ret.reaped = &account{free: src.free, reserved: src.reserved}
		delete(l.accounts, from)
	}
	return ret, nil
}

func (l *MemoryLedger) Reserve(acct types.Address, amount uint64) error {
	_, err := l.reserve(acct, amount)
	return err
}

func (l *MemoryLedger) reserve(acct types.Address, amount uint64) (change, error) {
	ret := change{kind: changeReserve, from: acct}
	if amount == 0 {
		return ret, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.accounts[acct]
	if a == nil || a.free < amount {
		return ret, ErrInsufficientBalance
	}
	a.free -= amount
	a.reserved += amount
	ret.amount = amount
	return ret, nil
}

func (l *MemoryLedger) Unreserve(acct types.Address, amount uint64) uint64 {
	return l.unreserve(acct, amount).amount
}

func (l *MemoryLedger) unreserve(acct types.Address, amount uint64) change {
	ret := change{kind: changeUnreserve, from: acct}
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.accounts[acct]
	if a == nil {
		return ret
	}
	ret.amount = min(amount, a.reserved)
	a.reserved -= ret.amount
	a.free += ret.amount
	return ret
}

func (l *MemoryLedger) FreeBalance(acct types.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a := l.accounts[acct]; a != nil {
		return a.free
	}
	return 0
}

// ReservedBalance returns the reserved balance of an account
func (l *MemoryLedger) ReservedBalance(acct types.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a := l.accounts[acct]; a != nil {
		return a.reserved
	}
	return 0
}

func (l *MemoryLedger) TotalBalance(acct types.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a := l.accounts[acct]; a != nil {
		return a.total()
	}
	return 0
}

func (l *MemoryLedger) RegisterConsumer(acct types.Address) error {
	_, err := l.registerConsumer(acct)
	return err
}

func (l *MemoryLedger) registerConsumer(acct types.Address) (change, error) {
	ret := change{kind: changeRegisterConsumer, from: acct}
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.accounts[acct]
	if a == nil {
		return ret, ErrUnknownAccount
	}
	if a.consumers == math.MaxUint32 {
		return ret, ErrBalanceOverflow
	}
	a.consumers++
	ret.amount = 1
	return ret, nil
}

func (l *MemoryLedger) DeregisterConsumer(acct types.Address) {
	l.deregisterConsumer(acct)
}

func (l *MemoryLedger) deregisterConsumer(acct types.Address) change {
	ret := change{kind: changeDeregisterConsumer, from: acct}
	l.mu.Lock()
	defer l.mu.Unlock()
	if a := l.accounts[acct]; a != nil && a.consumers > 0 {
		a.consumers--
		ret.amount = 1
	}
	return ret
}

// Consumers returns the consumer reference count of an account
func (l *MemoryLedger) Consumers(acct types.Address) uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a := l.accounts[acct]; a != nil {
		return a.consumers
	}
	return 0
}

// Exists reports whether the ledger holds the account
func (l *MemoryLedger) Exists(acct types.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accounts[acct]
	return ok
}

// Accounts returns every known account in byte order
func (l *MemoryLedger) Accounts() []types.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.SortedFunc(maps.Keys(l.accounts), func(a, b types.Address) int {
		return slices.Compare(a[:], b[:])
	})
}

// undo reverses a single recorded change. Only the effect of that change is
// taken back, so later changes made by other callers to the same accounts
// are preserved.
func (l *MemoryLedger) undo(c change) {
	if c.amount == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch c.kind {
	case changeTransfer:
		if c.reaped != nil {
			src := l.accounts[c.from]
			if src == nil {
				src = &account{}
				l.accounts[c.from] = src
			}
			src.free += c.reaped.free
			src.reserved += c.reaped.reserved
			l.issuance += c.reaped.total()
		}
		dst := l.accounts[c.to]
		if dst == nil {
			return
		}
		moved := min(c.amount, dst.free)
		dst.free -= moved
		if c.created && dst.total() == 0 && dst.consumers == 0 {
			delete(l.accounts, c.to)
		}
		if moved == 0 {
			return
		}
		src := l.accounts[c.from]
		if src == nil {
			src = &account{}
			l.accounts[c.from] = src
		}
		src.free += moved
	case changeReserve:
		if a := l.accounts[c.from]; a != nil {
			moved := min(c.amount, a.reserved)
			a.reserved -= moved
			a.free += moved
		}
	case changeUnreserve:
		if a := l.accounts[c.from]; a != nil {
			moved := min(c.amount, a.free)
			a.free -= moved
			a.reserved += moved
		}
	case changeRegisterConsumer:
		if a := l.accounts[c.from]; a != nil && a.consumers > 0 {
			a.consumers--
		}
	case changeDeregisterConsumer:
		if a := l.accounts[c.from]; a != nil && a.consumers < math.MaxUint32 {
			a.consumers++
		}
	}
}

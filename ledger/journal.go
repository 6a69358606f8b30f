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
	"github.com/blinklabs-io/supersig/types"
)

// Journal wraps a Ledger for the duration of one operation and remembers
// how to undo every mutation made through it. Reads pass straight through.
//
// Undo entries are inverse operations, never account snapshots: the ledger
// is shared, and funds moved by other callers while the operation runs must
// survive a revert.
type Journal struct {
	ledger Ledger
	memory *MemoryLedger
	undo   []func()
}

var _ Ledger = (*Journal)(nil)

func NewJournal(ledger Ledger) *Journal {
	j := &Journal{ledger: ledger}
	// Only the concrete type; a wrapper may override the public methods
	if memory, ok := ledger.(*MemoryLedger); ok {
		j.memory = memory
	}
	return j
}

// Revert undoes every recorded mutation, newest first, and clears the journal
func (j *Journal) Revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Discard forgets the recorded mutations, making them permanent
func (j *Journal) Discard() {
	j.undo = nil
}

// Len returns the number of recorded mutations
func (j *Journal) Len() int {
	return len(j.undo)
}

func (j *Journal) recordChange(c change) {
	if c.amount == 0 {
		return
	}
	j.undo = append(j.undo, func() {
		j.memory.undo(c)
	})
}

func (j *Journal) MinimumBalance() uint64 {
	return j.ledger.MinimumBalance()
}

func (j *Journal) Transfer(
	from, to types.Address,
	amount uint64,
	allowDeath bool,
) error {
	if j.memory != nil {
		c, err := j.memory.transfer(from, to, amount, allowDeath)
		if err != nil {
			return err
		}
		j.recordChange(c)
		return nil
	}
	if err := j.ledger.Transfer(from, to, amount, allowDeath); err != nil {
		return err
	}
	j.undo = append(j.undo, func() {
		_ = j.ledger.Transfer(to, from, amount, true)
	})
	return nil
}

func (j *Journal) Reserve(account types.Address, amount uint64) error {
	if j.memory != nil {
		c, err := j.memory.reserve(account, amount)
		if err != nil {
			return err
		}
		j.recordChange(c)
		return nil
	}
	if err := j.ledger.Reserve(account, amount); err != nil {
		return err
	}
	j.undo = append(j.undo, func() {
		j.ledger.Unreserve(account, amount)
	})
	return nil
}

func (j *Journal) Unreserve(account types.Address, amount uint64) uint64 {
	if j.memory != nil {
		c := j.memory.unreserve(account, amount)
		j.recordChange(c)
		return c.amount
	}
	moved := j.ledger.Unreserve(account, amount)
	if moved > 0 {
		j.undo = append(j.undo, func() {
			_ = j.ledger.Reserve(account, moved)
		})
	}
	return moved
}

func (j *Journal) FreeBalance(account types.Address) uint64 {
	return j.ledger.FreeBalance(account)
}

func (j *Journal) TotalBalance(account types.Address) uint64 {
	return j.ledger.TotalBalance(account)
}

func (j *Journal) RegisterConsumer(account types.Address) error {
	if j.memory != nil {
		c, err := j.memory.registerConsumer(account)
		if err != nil {
			return err
		}
		j.recordChange(c)
		return nil
	}
	if err := j.ledger.RegisterConsumer(account); err != nil {
		return err
	}
	j.undo = append(j.undo, func() {
		j.ledger.DeregisterConsumer(account)
	})
	return nil
}

func (j *Journal) DeregisterConsumer(account types.Address) {
	if j.memory != nil {
		j.recordChange(j.memory.deregisterConsumer(account))
		return
	}
	j.ledger.DeregisterConsumer(account)
	j.undo = append(j.undo, func() {
		_ = j.ledger.RegisterConsumer(account)
	})
}

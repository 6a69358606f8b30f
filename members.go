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
	"math"

	"github.com/blinklabs-io/supersig/deposit"
	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/state"
	"github.com/blinklabs-io/supersig/types"
	"go.opentelemetry.io/otel/attribute"
)

// AddMembers adds or updates members of the unit governed by caller. The
// deposit for genuinely new members is reserved on the governed address.
func (e *Engine) AddMembers(
	ctx context.Context,
	caller types.Address,
	members []types.Member,
) error {
	if err := e.checkAccountCount(len(members)); err != nil {
		return err
	}
	return e.update(
		ctx,
		"AddMembers",
		func(op *operation) error {
			unit, _, err := e.resolveUnit(op.txn, caller)
			if err != nil {
				return err
			}
			added, err := e.members.AddMembers(op.txn, unit, members)
			if err != nil {
				return err
			}
			dep, err := e.calc.MemberDeposit(uint64(len(added)))
			if err != nil {
				return err
			}
			totalDeposit, err := e.members.TotalDeposit(op.txn, unit)
			if err != nil {
				return err
			}
			if dep > math.MaxUint64-totalDeposit {
				return types.ErrOverflow
			}
			if err := op.ledger.Reserve(caller, dep); err != nil {
				return fmt.Errorf("reserve membership deposit: %w", err)
			}
			if err := e.members.SetTotalDeposit(op.txn, unit, totalDeposit+dep); err != nil {
				return err
			}
			op.emit(
				event.MembersAddedEventType,
				event.MembersAddedEvent{
					UnitID:      unit,
					UnitAddress: caller,
					Members:     state.EffectiveMembers(members),
					Added:       added,
				},
			)
			return nil
		},
		unitAttrs(caller),
		attribute.Int("members", len(members)),
	)
}

// RemoveMembers removes members from the unit governed by caller and
// releases their share of the membership deposit. The unit must keep at
// least one member.
func (e *Engine) RemoveMembers(
	ctx context.Context,
	caller types.Address,
	accounts []types.Address,
) error {
	if err := e.checkAccountCount(len(accounts)); err != nil {
		return err
	}
	return e.update(
		ctx,
		"RemoveMembers",
		func(op *operation) error {
			unit, total, err := e.resolveUnit(op.txn, caller)
			if err != nil {
				return err
			}
			removed, err := e.members.RemoveMembers(op.txn, unit, accounts)
			if err != nil {
				return err
			}
			if err := e.refundMembers(op, unit, caller, total, len(removed)); err != nil {
				return err
			}
			op.emit(
				event.MembersRemovedEventType,
				event.MembersRemovedEvent{
					UnitID:      unit,
					UnitAddress: caller,
					Accounts:    removed,
				},
			)
			return nil
		},
		unitAttrs(caller),
		attribute.Int("accounts", len(accounts)),
	)
}

// LeaveUnit removes the caller from a unit. The last member cannot leave;
// the unit has to be deleted instead.
func (e *Engine) LeaveUnit(
	ctx context.Context,
	caller types.Address,
	unitAddr types.Address,
) error {
	return e.update(
		ctx,
		"LeaveUnit",
		func(op *operation) error {
			unit, total, err := e.resolveUnit(op.txn, unitAddr)
			if err != nil {
				return err
			}
			role, err := e.members.GetRole(op.txn, unit, caller)
			if err != nil {
				return err
			}
			if !role.IsMember() {
				return types.ErrNotMember
			}
			removed, err := e.members.RemoveMembers(
				op.txn,
				unit,
				[]types.Address{caller},
			)
			if err != nil {
				return err
			}
			if err := e.refundMembers(op, unit, unitAddr, total, len(removed)); err != nil {
				return err
			}
			op.emit(
				event.MemberLeftEventType,
				event.MemberLeftEvent{
					UnitID:      unit,
					UnitAddress: unitAddr,
					Account:     caller,
				},
			)
			return nil
		},
		unitAttrs(unitAddr),
	)
}

// refundMembers releases the proportional deposit of removed members, using
// the member count from before the removal
func (e *Engine) refundMembers(
	op *operation,
	unit types.UnitID,
	unitAddr types.Address,
	initialCount uint32,
	removed int,
) error {
	totalDeposit, err := e.members.TotalDeposit(op.txn, unit)
	if err != nil {
		return err
	}
	refund := deposit.ComputeProportionalRefund(
		totalDeposit,
		initialCount,
		uint32(removed), //nolint:gosec // removed < initialCount
	)
	op.ledger.Unreserve(unitAddr, refund)
	return e.members.SetTotalDeposit(op.txn, unit, totalDeposit-refund)
}

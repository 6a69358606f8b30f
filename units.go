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

	"github.com/blinklabs-io/supersig/database/models"
	dbtypes "github.com/blinklabs-io/supersig/database/types"
	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/types"
	"go.opentelemetry.io/otel/attribute"
)

// CreateUnit creates a governed unit with the given members. The creator
// funds the unit address with the membership deposit, or the minimum
// balance if that is larger, and the deposit is reserved there.
func (e *Engine) CreateUnit(
	ctx context.Context,
	creator types.Address,
	members []types.Member,
) (types.UnitID, types.Address, error) {
	if len(members) == 0 {
		return 0, types.Address{}, types.ErrMustHaveAtLeastOneMember
	}
	if err := e.checkAccountCount(len(members)); err != nil {
		return 0, types.Address{}, err
	}
	var unit types.UnitID
	var unitAddr types.Address
	err := e.update(
		ctx,
		"CreateUnit",
		func(op *operation) error {
			var err error
			unit, err = e.counter.Peek(op.txn)
			if err != nil {
				return err
			}
			unitAddr, err = e.addressing.DeriveAddress(unit)
			if err != nil {
				return fmt.Errorf("%w: %w", types.ErrInvalidNonce, err)
			}
			added, err := e.members.AddMembers(op.txn, unit, members)
			if err != nil {
				return err
			}
			if len(added) == 0 {
				return types.ErrMustHaveAtLeastOneMember
			}
			dep, err := e.calc.MemberDeposit(uint64(len(added)))
			if err != nil {
				return err
			}
			if err := op.ledger.Transfer(
				creator,
				unitAddr,
				max(dep, op.ledger.MinimumBalance()),
				false,
			); err != nil {
				return fmt.Errorf("fund unit address: %w", err)
			}
			if err := op.ledger.Reserve(unitAddr, dep); err != nil {
				return fmt.Errorf("reserve membership deposit: %w", err)
			}
			if err := e.members.SetTotalDeposit(op.txn, unit, dep); err != nil {
				return err
			}
			if err := op.ledger.RegisterConsumer(unitAddr); err != nil {
				return fmt.Errorf("register consumer: %w", err)
			}
			if err := e.counter.Advance(op.txn, unit); err != nil {
				return err
			}
			if err := e.db.Metadata().SetUnit(
				op.txn.Metadata(),
				&models.Unit{
					UnitID:    dbtypes.Uint64(unit),
					Address:   unitAddr.Bytes(),
					Creator:   creator.Bytes(),
					CreatedAt: time.Now(),
				},
			); err != nil {
				return err
			}
			current, err := e.members.ListMembers(op.txn, unit)
			if err != nil {
				return err
			}
			op.emit(
				event.UnitCreatedEventType,
				event.UnitCreatedEvent{
					UnitID:      unit,
					UnitAddress: unitAddr,
					Creator:     creator,
					Members:     current,
					Deposit:     dep,
				},
			)
			return nil
		},
		attribute.String("creator", creator.String()),
		attribute.Int("members", len(members)),
	)
	if err != nil {
		return 0, types.Address{}, err
	}
	e.metrics.unitCreated()
	e.config.logger.Info(
		"created unit",
		"component", "supersig",
		"unit", unit.String(),
		"address", unitAddr.String(),
		"creator", creator.String(),
	)
	return unit, unitAddr, nil
}

// DeleteUnit dissolves the unit governed by caller. Every deposit held for
// the unit is released, all of its state is cleared and the remaining
// balance of the unit address goes to beneficiary. The unit must not carry
// any other reservation.
func (e *Engine) DeleteUnit(
	ctx context.Context,
	caller types.Address,
	beneficiary types.Address,
) error {
	var unit types.UnitID
	err := e.update(
		ctx,
		"DeleteUnit",
		func(op *operation) error {
			var err error
			unit, _, err = e.resolveUnit(op.txn, caller)
			if err != nil {
				return err
			}
			totalDeposit, err := e.members.TotalDeposit(op.txn, unit)
			if err != nil {
				return err
			}
			op.ledger.Unreserve(caller, totalDeposit)
			entries, err := e.proposals.List(op.txn, unit)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				op.ledger.Unreserve(entry.Proposal.Provider, entry.Proposal.Deposit)
			}
			if err := e.members.Clear(op.txn, unit); err != nil {
				return err
			}
			if err := e.proposals.Clear(op.txn, unit); err != nil {
				return err
			}
			if err := e.db.Metadata().DeleteUnit(op.txn.Metadata(), uint64(unit)); err != nil {
				return err
			}
			op.ledger.DeregisterConsumer(caller)
			if op.ledger.TotalBalance(caller) != op.ledger.FreeBalance(caller) {
				return types.ErrSupersigHaveLockedFunds
			}
			amount := op.ledger.FreeBalance(caller)
			if err := op.ledger.Transfer(caller, beneficiary, amount, true); err != nil {
				return fmt.Errorf("pay beneficiary: %w", err)
			}
			op.emit(
				event.UnitRemovedEventType,
				event.UnitRemovedEvent{
					UnitID:      unit,
					UnitAddress: caller,
					Beneficiary: beneficiary,
					Amount:      amount,
				},
			)
			return nil
		},
		unitAttrs(caller),
	)
	if err != nil {
		return err
	}
	e.metrics.unitRemoved()
	e.config.logger.Info(
		"deleted unit",
		"component", "supersig",
		"unit", unit.String(),
		"beneficiary", beneficiary.String(),
	)
	return nil
}

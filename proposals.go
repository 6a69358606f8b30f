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
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/supersig/database/models"
	dbtypes "github.com/blinklabs-io/supersig/database/types"
	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ApprovalResult describes the effect of a single approval
type ApprovalResult struct {
	// ExecutionError holds the failure of an executed call. It is never
	// returned as the error of ApproveProposal.
	ExecutionError error
	UnitID         types.UnitID
	CallID         types.CallID
	Weight         uint32
	Tally          uint32
	Threshold      uint32
	Executed       bool
}

// SubmitProposal opens a proposal on the unit governed by unitAddr. The
// caller pays a deposit proportional to the size of data until the
// proposal is executed or removed.
func (e *Engine) SubmitProposal(
	ctx context.Context,
	caller types.Address,
	unitAddr types.Address,
	data []byte,
) (types.CallID, error) {
	var call types.CallID
	err := e.update(
		ctx,
		"SubmitProposal",
		func(op *operation) error {
			unit, _, err := e.resolveUnit(op.txn, unitAddr)
			if err != nil {
				return err
			}
			dep, err := e.calc.ComputeDeposit(uint64(len(data)))
			if err != nil {
				return err
			}
			call, err = e.proposals.Submit(op.txn, unit, data, caller, dep)
			if err != nil {
				return err
			}
			if err := op.ledger.Reserve(caller, dep); err != nil {
				return fmt.Errorf("reserve call deposit: %w", err)
			}
			op.emit(
				event.CallSubmittedEventType,
				event.CallSubmittedEvent{
					UnitID:      unit,
					UnitAddress: unitAddr,
					CallID:      call,
					Provider:    caller,
					Deposit:     dep,
				},
			)
			return nil
		},
		unitAttrs(unitAddr),
		attribute.Int("data.size", len(data)),
	)
	if err != nil {
		return 0, err
	}
	e.metrics.proposalSubmitted()
	return call, nil
}

// ApproveProposal records the caller's vote on a proposal. When the vote
// brings the tally to the majority threshold the proposal is consumed, the
// provider's deposit released, and the call executed as the governed
// address. The execution outcome is reported in the result.
func (e *Engine) ApproveProposal(
	ctx context.Context,
	caller types.Address,
	unitAddr types.Address,
	call types.CallID,
) (*ApprovalResult, error) {
	result := &ApprovalResult{CallID: call}
	var proposal *types.Proposal
	err := e.update(
		ctx,
		"ApproveProposal",
		func(op *operation) error {
			unit, total, err := e.resolveUnit(op.txn, unitAddr)
			if err != nil {
				return err
			}
			result.UnitID = unit
			proposal, err = e.proposals.Get(op.txn, unit, call)
			if err != nil {
				return err
			}
			if proposal == nil {
				return types.ErrCallNotFound
			}
			voted, err := e.proposals.HasVoted(op.txn, unit, call, caller)
			if err != nil {
				return err
			}
			if voted {
				return types.ErrAlreadyVoted
			}
			role, err := e.members.GetRole(op.txn, unit, caller)
			if err != nil {
				return err
			}
			if !role.IsMember() {
				return types.ErrNotMember
			}
			result.Weight = VoteWeight(role, total)
			result.Tally, err = e.proposals.CastVote(
				op.txn,
				unit,
				call,
				caller,
				result.Weight,
			)
			if err != nil {
				return err
			}
			result.Threshold = Threshold(total)
			op.emit(
				event.CallVotedEventType,
				event.CallVotedEvent{
					UnitID:      unit,
					UnitAddress: unitAddr,
					CallID:      call,
					Voter:       caller,
					Weight:      result.Weight,
					Tally:       result.Tally,
				},
			)
			if result.Tally < result.Threshold {
				return nil
			}
			// The proposal is consumed before execution so that a failed
			// call can never be voted on again
			if err := e.proposals.Remove(op.txn, unit, call); err != nil {
				return err
			}
			op.ledger.Unreserve(proposal.Provider, proposal.Deposit)
			result.Executed = true
			return nil
		},
		unitAttrs(unitAddr),
		attribute.String("call", call.String()),
	)
	if err != nil {
		return nil, err
	}
	e.metrics.voteCast()
	if result.Executed {
		result.ExecutionError = e.executeCall(
			ctx,
			result.UnitID,
			unitAddr,
			call,
			proposal,
		)
	}
	return result, nil
}

// executeCall runs an approved call outside the engine lock, so commands
// that act on the unit itself can re-enter the engine, and then records the
// outcome
func (e *Engine) executeCall(
	ctx context.Context,
	unit types.UnitID,
	unitAddr types.Address,
	call types.CallID,
	proposal *types.Proposal,
) error {
	ctx, span := e.tracer.Start(ctx, "supersig.ExecuteCall")
	defer span.End()
	var execErr error
	cmd, err := e.executor.Decode(proposal.Data)
	switch {
	case errors.Is(err, types.ErrBadEncodedCall):
		execErr = err
	case err != nil:
		execErr = fmt.Errorf("%w: %w", types.ErrBadEncodedCall, err)
	default:
		execErr = e.executor.Execute(ctx, cmd, unitAddr)
	}
	if execErr != nil {
		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
		e.config.logger.Warn(
			"call execution failed",
			"component", "supersig",
			"unit", unit.String(),
			"call", call.String(),
			"error", execErr,
		)
	} else {
		e.config.logger.Info(
			"call executed",
			"component", "supersig",
			"unit", unit.String(),
			"call", call.String(),
			"command", cmd.Name(),
		)
	}
	e.metrics.callExecuted(execErr == nil)
	execution := &models.Execution{
		UnitID:     dbtypes.Uint64(unit),
		CallID:     dbtypes.Uint64(call),
		Provider:   proposal.Provider.Bytes(),
		Success:    execErr == nil,
		ExecutedAt: time.Now(),
	}
	evt := event.CallExecutionAttemptedEvent{
		UnitID:      unit,
		UnitAddress: unitAddr,
		CallID:      call,
		Success:     execErr == nil,
	}
	if execErr != nil {
		execution.Error = truncateError(execErr.Error())
		evt.Error = execErr.Error()
	}
	// The outcome is recorded even if the caller has gone away
	if err := e.update(
		context.WithoutCancel(ctx),
		"RecordExecution",
		func(op *operation) error {
			if err := e.db.Metadata().AddExecution(op.txn.Metadata(), execution); err != nil {
				return err
			}
			op.emit(event.CallExecutionAttemptedEventType, evt)
			return nil
		},
	); err != nil {
		e.config.logger.Error(
			"failed to record call execution",
			"component", "supersig",
			"unit", unit.String(),
			"call", call.String(),
			"error", err,
		)
	}
	return execErr
}

const maxRecordedErrorLen = 512

func truncateError(msg string) string {
	if len(msg) <= maxRecordedErrorLen {
		return msg
	}
	return msg[:maxRecordedErrorLen]
}

// RemoveProposal withdraws an open proposal and releases its deposit. Only
// the governed address or the provider of the proposal may remove it.
func (e *Engine) RemoveProposal(
	ctx context.Context,
	caller types.Address,
	unitAddr types.Address,
	call types.CallID,
) error {
	return e.update(
		ctx,
		"RemoveProposal",
		func(op *operation) error {
			unit, _, err := e.resolveUnit(op.txn, unitAddr)
			if err != nil {
				return err
			}
			proposal, err := e.proposals.Get(op.txn, unit, call)
			if err != nil {
				return err
			}
			if proposal == nil {
				return types.ErrCallNotFound
			}
			if caller != unitAddr && caller != proposal.Provider {
				return types.ErrNotAllowed
			}
			if err := e.proposals.Remove(op.txn, unit, call); err != nil {
				return err
			}
			op.ledger.Unreserve(proposal.Provider, proposal.Deposit)
			op.emit(
				event.CallRemovedEventType,
				event.CallRemovedEvent{
					UnitID:      unit,
					UnitAddress: unitAddr,
					CallID:      call,
					RemovedBy:   caller,
				},
			)
			return nil
		},
		unitAttrs(unitAddr),
		attribute.String("call", call.String()),
	)
}

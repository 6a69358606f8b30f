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

// Package supersig implements a weighted multi-party governance engine. A
// group of members jointly controls a governed address and acts through it
// only once a weighted majority approves a proposal.
package supersig

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/supersig/address"
	"github.com/blinklabs-io/supersig/database"
	"github.com/blinklabs-io/supersig/deposit"
	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/executor"
	"github.com/blinklabs-io/supersig/ledger"
	"github.com/blinklabs-io/supersig/state"
	"github.com/blinklabs-io/supersig/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/supersig"

type Engine struct {
	config       Config
	db           *database.Database
	ledger       ledger.Ledger
	addressing   address.Addressing
	executor     executor.Executor
	eventBus     *event.EventBus
	tracer       trace.Tracer
	metrics      *engineMetrics
	members      *state.MembershipStore
	proposals    *state.ProposalStore
	calc         deposit.Calculator
	counter      state.UnitCounter
	mu           sync.Mutex
	ownsEventBus bool
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	e := &Engine{
		config:     cfg,
		db:         cfg.database,
		ledger:     cfg.ledger,
		addressing: cfg.addressing,
		executor:   cfg.executor,
		eventBus:   cfg.eventBus,
		members:    state.NewMembershipStore(),
		proposals: state.NewProposalStore(
			cfg.maxCallDataSize,
			cfg.maxCallsPerUnit,
		),
		calc: deposit.NewCalculator(cfg.depositPerByte),
	}
	if e.addressing == nil {
		e.addressing = address.NewModuleAddressing(address.DefaultPalletID)
	}
	if e.eventBus == nil {
		e.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
		e.ownsEventBus = true
	}
	if e.executor == nil {
		registry := executor.NewRegistry(cfg.logger)
		executor.RegisterSystem(registry)
		executor.RegisterBalances(registry, cfg.ledger)
		e.RegisterCommands(registry)
		e.executor = registry
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	e.tracer = tp.Tracer(tracerName)
	if cfg.promRegistry != nil {
		e.metrics = newEngineMetrics(cfg.promRegistry)
	}
	return e, nil
}

// EventBus returns the bus governance events are published on
func (e *Engine) EventBus() *event.EventBus {
	return e.eventBus
}

// Ledger returns the ledger the engine moves funds through
func (e *Engine) Ledger() ledger.Ledger {
	return e.ledger
}

// Addressing returns the unit address scheme
func (e *Engine) Addressing() address.Addressing {
	return e.addressing
}

// Close stops the event bus if the engine created it. The database is owned
// by the caller.
func (e *Engine) Close() error {
	if e.ownsEventBus {
		e.eventBus.Stop()
	}
	return nil
}

// operation carries the transactional context of a single mutating call
type operation struct {
	txn    *database.Txn
	ledger *ledger.Journal
	events []event.Event
}

func (op *operation) emit(eventType event.EventType, data any) {
	op.events = append(op.events, event.NewEvent(eventType, data))
}

// update runs fn under the engine lock with a read-write transaction and a
// ledger journal. Both are committed when fn succeeds and reverted when it
// fails. Events queued by fn are published after the lock is released.
func (e *Engine) update(
	ctx context.Context,
	name string,
	fn func(op *operation) error,
	attrs ...attribute.KeyValue,
) error {
	_, span := e.tracer.Start(
		ctx,
		"supersig."+name,
		trace.WithAttributes(attrs...),
	)
	defer span.End()
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	events, err := e.apply(fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.operationFailed(name)
		if isGovernanceError(err) {
			e.config.logger.Debug(
				"operation rejected",
				"component", "supersig",
				"operation", name,
				"error", err,
			)
		} else {
			e.config.logger.Error(
				"operation failed",
				"component", "supersig",
				"operation", name,
				"error", err,
			)
		}
		return err
	}
	for _, evt := range events {
		e.eventBus.Publish(evt.Type, evt)
	}
	return nil
}

func (e *Engine) apply(fn func(op *operation) error) ([]event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	op := &operation{
		txn:    e.db.Transaction(true),
		ledger: ledger.NewJournal(e.ledger),
	}
	if err := fn(op); err != nil {
		op.ledger.Revert()
		if err2 := op.txn.Rollback(); err2 != nil {
			return nil, fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return nil, err
	}
	if err := op.txn.Commit(); err != nil {
		op.ledger.Revert()
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	op.ledger.Discard()
	return op.events, nil
}

// view runs fn against a read-only snapshot
func (e *Engine) view(ctx context.Context, fn func(txn *database.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := e.db.Transaction(false)
	defer txn.Release()
	return fn(txn)
}

// resolveUnit maps a governed address to a live unit
func (e *Engine) resolveUnit(
	txn *database.Txn,
	addr types.Address,
) (types.UnitID, uint32, error) {
	unit, ok := e.addressing.ResolveUnitID(addr)
	if !ok {
		return 0, 0, types.ErrNotSupersig
	}
	total, err := e.members.TotalMembers(txn, unit)
	if err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return 0, 0, types.ErrNotSupersig
	}
	return unit, total, nil
}

func (e *Engine) checkAccountCount(count int) error {
	if uint64(count) > uint64(e.config.maxAccountsPerTransaction) {
		return types.ErrTooManyAccounts
	}
	return nil
}

// VoteWeight returns the weight of a vote cast with the given role in a unit
// of totalMembers members
func VoteWeight(role types.Role, totalMembers uint32) uint32 {
	switch role {
	case types.RoleMaster:
		return max(totalMembers/2, 1)
	case types.RoleStandard:
		return 1
	default:
		return 0
	}
}

// Threshold returns the accumulated weight at which a proposal executes
func Threshold(totalMembers uint32) uint32 {
	return totalMembers/2 + 1
}

func unitAttrs(addr types.Address) attribute.KeyValue {
	return attribute.String("unit.address", addr.String())
}

// isGovernanceError reports whether err is a typed governance or ledger
// rejection rather than an infrastructure failure
func isGovernanceError(err error) bool {
	for _, target := range []error{
		types.ErrMustHaveAtLeastOneMember,
		types.ErrCallDataTooLarge,
		types.ErrTooManyActiveProposals,
		types.ErrTooManyAccounts,
		types.ErrNotSupersig,
		types.ErrCallNotFound,
		types.ErrNotAllowed,
		types.ErrNotMember,
		types.ErrAlreadyVoted,
		types.ErrOverflow,
		types.ErrConversion,
		types.ErrInvalidNonce,
		types.ErrBadEncodedCall,
		types.ErrSupersigHaveLockedFunds,
		ledger.ErrInsufficientBalance,
		ledger.ErrKeepAlive,
		ledger.ErrExistentialDeposit,
		ledger.ErrConsumerRemaining,
		ledger.ErrUnknownAccount,
		ledger.ErrBalanceOverflow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

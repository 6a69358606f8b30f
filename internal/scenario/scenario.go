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

// Package scenario applies a scripted sequence of governance operations,
// read from YAML, to an engine and reports the outcome of each step.
package scenario

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/blinklabs-io/supersig"
	"github.com/blinklabs-io/supersig/executor"
	"github.com/blinklabs-io/supersig/ledger"
	"github.com/blinklabs-io/supersig/types"
	"gopkg.in/yaml.v3"
)

const (
	OpCreateUnit     = "createUnit"
	OpSubmit         = "submit"
	OpApprove        = "approve"
	OpRemoveProposal = "removeProposal"
	OpAddMembers     = "addMembers"
	OpRemoveMembers  = "removeMembers"
	OpLeave          = "leave"
	OpDeleteUnit     = "deleteUnit"
	// OpTransfer moves free balance directly on the ledger, outside governance
	OpTransfer = "transfer"
)

var (
	ErrUnknownOp         = errors.New("unknown operation")
	ErrUnknownReference  = errors.New("unknown reference")
	ErrUnexpectedOutcome = errors.New("unexpected step outcome")
)

// Scenario is a named set of endowed accounts and the steps run against them
type Scenario struct {
	Accounts           map[string]uint64 `yaml:"accounts"`
	Name               string            `yaml:"name"`
	Steps              []Step            `yaml:"steps"`
	ExistentialDeposit uint64            `yaml:"existentialDeposit"`
}

// Step is one engine operation. Accounts and units are referenced by name;
// an account name that is not a bech32 or hex address is mapped to the
// address holding the name's bytes.
type Step struct {
	Call        *Call        `yaml:"call"`
	Op          string       `yaml:"op"`
	Caller      string       `yaml:"caller"`
	Unit        string       `yaml:"unit"`
	Proposal    string       `yaml:"proposal"`
	As          string       `yaml:"as"`
	Beneficiary string       `yaml:"beneficiary"`
	To          string       `yaml:"to"`
	ExpectError string       `yaml:"expectError"`
	Members     []MemberSpec `yaml:"members"`
	Accounts    []string     `yaml:"accounts"`
	Amount      uint64       `yaml:"amount"`
}

// MemberSpec names a member. The role defaults to standard.
type MemberSpec struct {
	Role    *types.Role `yaml:"role"`
	Account string      `yaml:"account"`
}

// Call describes the command carried by a proposal. Exactly one field is
// expected to be set.
type Call struct {
	Transfer      *TransferSpec   `yaml:"transfer"`
	DeleteUnit    *DeleteUnitSpec `yaml:"deleteUnit"`
	Remark        *string         `yaml:"remark"`
	Raw           string          `yaml:"raw"`
	AddMembers    []MemberSpec    `yaml:"addMembers"`
	RemoveMembers []string        `yaml:"removeMembers"`
}

type TransferSpec struct {
	To     string `yaml:"to"`
	Amount uint64 `yaml:"amount"`
}

type DeleteUnitSpec struct {
	Beneficiary string `yaml:"beneficiary"`
}

// Load reads a scenario file
func Load(path string) (*Scenario, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(buf)
}

// Parse decodes a scenario document and checks its operations
func Parse(buf []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(buf, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, step := range sc.Steps {
		if !slices.Contains(knownOps, step.Op) {
			return nil, fmt.Errorf("step %d: %w: %q", i, ErrUnknownOp, step.Op)
		}
	}
	return &sc, nil
}

var knownOps = []string{
	OpCreateUnit,
	OpSubmit,
	OpApprove,
	OpRemoveProposal,
	OpAddMembers,
	OpRemoveMembers,
	OpLeave,
	OpDeleteUnit,
	OpTransfer,
}

// AccountAddress maps a scenario account name to an address
func AccountAddress(name string) (types.Address, error) {
	if addr, err := types.ParseAddress(name); err == nil {
		return addr, nil
	}
	if name == "" || len(name) > types.AddressLen {
		return types.Address{}, fmt.Errorf("invalid account name %q", name)
	}
	var ret types.Address
	copy(ret[:], name)
	return ret, nil
}

// Endowments returns the genesis balances keyed by address text
func (s *Scenario) Endowments() (map[string]uint64, error) {
	ret := make(map[string]uint64, len(s.Accounts))
	for name, amount := range s.Accounts {
		addr, err := AccountAddress(name)
		if err != nil {
			return nil, err
		}
		ret[addr.String()] = amount
	}
	return ret, nil
}

// StepResult is the outcome of a single step
type StepResult struct {
	Approval    *ApprovalReport `json:"approval,omitempty"`
	Unit        *types.UnitID   `json:"unit,omitempty"`
	UnitAddress *types.Address  `json:"unitAddress,omitempty"`
	CallID      *types.CallID   `json:"callId,omitempty"`
	Op          string          `json:"op"`
	Error       string          `json:"error,omitempty"`
	Index       int             `json:"index"`
}

type ApprovalReport struct {
	ExecutionError string `json:"executionError,omitempty"`
	Weight         uint32 `json:"weight"`
	Tally          uint32 `json:"tally"`
	Threshold      uint32 `json:"threshold"`
	Executed       bool   `json:"executed"`
}

// UnitReport is the final state of a named unit. Info is nil once the unit
// has been deleted.
type UnitReport struct {
	Info       *supersig.UnitInfo         `json:"info,omitempty"`
	Members    []types.Member             `json:"members,omitempty"`
	Proposals  []supersig.ProposalState   `json:"proposals,omitempty"`
	Executions []supersig.ExecutionRecord `json:"executions"`
	Address    types.Address              `json:"address"`
}

type Balance struct {
	Free  uint64 `json:"free"`
	Total uint64 `json:"total"`
}

// Report collects the results of a run
type Report struct {
	Units    map[string]UnitReport `json:"units"`
	Balances map[string]Balance    `json:"balances"`
	Name     string                `json:"name,omitempty"`
	Steps    []StepResult          `json:"steps"`
}

type runner struct {
	engine *supersig.Engine
	ledger ledger.Ledger
	units  map[string]types.Address
	calls  map[string]types.CallID
}

// Run applies every step in order. It stops at the first step whose outcome
// differs from its expectation and returns the partial report with an
// ErrUnexpectedOutcome error.
func Run(
	ctx context.Context,
	engine *supersig.Engine,
	l ledger.Ledger,
	sc *Scenario,
) (*Report, error) {
	r := &runner{
		engine: engine,
		ledger: l,
		units:  make(map[string]types.Address),
		calls:  make(map[string]types.CallID),
	}
	report := &Report{
		Name:     sc.Name,
		Units:    make(map[string]UnitReport),
		Balances: make(map[string]Balance),
	}
	var runErr error
	for i, step := range sc.Steps {
		result := StepResult{Index: i, Op: step.Op}
		err := r.apply(ctx, step, &result)
		if err != nil {
			result.Error = err.Error()
		}
		report.Steps = append(report.Steps, result)
		if err := checkOutcome(step, err); err != nil {
			runErr = fmt.Errorf("step %d (%s): %w", i, step.Op, err)
			break
		}
	}
	if err := r.summarize(ctx, l, sc, report); err != nil {
		return report, errors.Join(runErr, err)
	}
	return report, runErr
}

func checkOutcome(step Step, err error) error {
	switch {
	case step.ExpectError == "" && err != nil:
		return fmt.Errorf("%w: %w", ErrUnexpectedOutcome, err)
	case step.ExpectError != "" && err == nil:
		return fmt.Errorf(
			"%w: expected error containing %q",
			ErrUnexpectedOutcome,
			step.ExpectError,
		)
	case step.ExpectError != "" && !strings.Contains(err.Error(), step.ExpectError):
		return fmt.Errorf(
			"%w: expected error containing %q, got %w",
			ErrUnexpectedOutcome,
			step.ExpectError,
			err,
		)
	}
	return nil
}

// resolve looks up a unit name first, then an account name
func (r *runner) resolve(name string) (types.Address, error) {
	if addr, ok := r.units[name]; ok {
		return addr, nil
	}
	return AccountAddress(name)
}

func (r *runner) unit(name string) (types.Address, error) {
	if addr, ok := r.units[name]; ok {
		return addr, nil
	}
	if addr, err := types.ParseAddress(name); err == nil {
		return addr, nil
	}
	return types.Address{}, fmt.Errorf("%w: unit %q", ErrUnknownReference, name)
}

func (r *runner) members(specs []MemberSpec) ([]types.Member, error) {
	ret := make([]types.Member, 0, len(specs))
	for _, spec := range specs {
		addr, err := r.resolve(spec.Account)
		if err != nil {
			return nil, err
		}
		role := types.RoleStandard
		if spec.Role != nil {
			role = *spec.Role
		}
		ret = append(ret, types.Member{Account: addr, Role: role})
	}
	return ret, nil
}

func (r *runner) accounts(names []string) ([]types.Address, error) {
	ret := make([]types.Address, 0, len(names))
	for _, name := range names {
		addr, err := r.resolve(name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, addr)
	}
	return ret, nil
}

func (r *runner) apply(ctx context.Context, step Step, result *StepResult) error {
	caller, err := r.resolve(step.Caller)
	if err != nil {
		return err
	}
	switch step.Op {
	case OpCreateUnit:
		members, err := r.members(step.Members)
		if err != nil {
			return err
		}
		unit, addr, err := r.engine.CreateUnit(ctx, caller, members)
		if err != nil {
			return err
		}
		result.Unit = &unit
		result.UnitAddress = &addr
		if step.As != "" {
			r.units[step.As] = addr
		}
		return nil
	case OpSubmit:
		unitAddr, err := r.unit(step.Unit)
		if err != nil {
			return err
		}
		data, err := r.encodeCall(step.Call)
		if err != nil {
			return err
		}
		call, err := r.engine.SubmitProposal(ctx, caller, unitAddr, data)
		if err != nil {
			return err
		}
		result.CallID = &call
		if step.As != "" {
			r.calls[step.As] = call
		}
		return nil
	case OpApprove, OpRemoveProposal:
		unitAddr, err := r.unit(step.Unit)
		if err != nil {
			return err
		}
		call, ok := r.calls[step.Proposal]
		if !ok {
			return fmt.Errorf("%w: proposal %q", ErrUnknownReference, step.Proposal)
		}
		result.CallID = &call
		if step.Op == OpRemoveProposal {
			return r.engine.RemoveProposal(ctx, caller, unitAddr, call)
		}
		approval, err := r.engine.ApproveProposal(ctx, caller, unitAddr, call)
		if err != nil {
			return err
		}
		result.Approval = &ApprovalReport{
			Weight:    approval.Weight,
			Tally:     approval.Tally,
			Threshold: approval.Threshold,
			Executed:  approval.Executed,
		}
		if approval.ExecutionError != nil {
			result.Approval.ExecutionError = approval.ExecutionError.Error()
		}
		return nil
	case OpAddMembers:
		members, err := r.members(step.Members)
		if err != nil {
			return err
		}
		return r.engine.AddMembers(ctx, caller, members)
	case OpRemoveMembers:
		accounts, err := r.accounts(step.Accounts)
		if err != nil {
			return err
		}
		return r.engine.RemoveMembers(ctx, caller, accounts)
	case OpLeave:
		unitAddr, err := r.unit(step.Unit)
		if err != nil {
			return err
		}
		return r.engine.LeaveUnit(ctx, caller, unitAddr)
	case OpDeleteUnit:
		beneficiary, err := r.resolve(step.Beneficiary)
		if err != nil {
			return err
		}
		return r.engine.DeleteUnit(ctx, caller, beneficiary)
	case OpTransfer:
		to, err := r.resolve(step.To)
		if err != nil {
			return err
		}
		return r.ledger.Transfer(caller, to, step.Amount, false)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
}

func (r *runner) encodeCall(call *Call) ([]byte, error) {
	if call == nil {
		return nil, errors.New("submit requires a call")
	}
	switch {
	case call.Raw != "":
		return hex.DecodeString(call.Raw)
	case call.Remark != nil:
		return executor.Encode(
			executor.ModuleSystem,
			"remark",
			executor.RemarkArgs{Remark: []byte(*call.Remark)},
		)
	case call.Transfer != nil:
		to, err := r.resolve(call.Transfer.To)
		if err != nil {
			return nil, err
		}
		return executor.Encode(
			executor.ModuleBalances,
			"transfer",
			executor.TransferArgs{To: to, Amount: call.Transfer.Amount},
		)
	case call.AddMembers != nil:
		members, err := r.members(call.AddMembers)
		if err != nil {
			return nil, err
		}
		return executor.Encode(
			supersig.ModuleSupersig,
			"add_members",
			supersig.AddMembersArgs{Members: members},
		)
	case call.RemoveMembers != nil:
		accounts, err := r.accounts(call.RemoveMembers)
		if err != nil {
			return nil, err
		}
		return executor.Encode(
			supersig.ModuleSupersig,
			"remove_members",
			supersig.RemoveMembersArgs{Accounts: accounts},
		)
	case call.DeleteUnit != nil:
		beneficiary, err := r.resolve(call.DeleteUnit.Beneficiary)
		if err != nil {
			return nil, err
		}
		return executor.Encode(
			supersig.ModuleSupersig,
			"delete_unit",
			supersig.DeleteUnitArgs{Beneficiary: beneficiary},
		)
	}
	return nil, errors.New("empty call")
}

func (r *runner) summarize(
	ctx context.Context,
	l ledger.Ledger,
	sc *Scenario,
	report *Report,
) error {
	for name, addr := range r.units {
		unitReport := UnitReport{Address: addr}
		info, err := r.engine.Unit(ctx, addr)
		switch {
		case errors.Is(err, types.ErrNotSupersig):
		case err != nil:
			return err
		default:
			unitReport.Info = info
			if unitReport.Members, err = r.engine.ListMembers(ctx, addr); err != nil {
				return err
			}
			proposals, err := r.engine.ListProposals(ctx, addr)
			if err != nil {
				return err
			}
			unitReport.Proposals = proposals.Proposals
		}
		if unitReport.Executions, err = r.engine.ListExecutions(ctx, addr); err != nil {
			return err
		}
		report.Units[name] = unitReport
		report.Balances[name] = Balance{
			Free:  l.FreeBalance(addr),
			Total: l.TotalBalance(addr),
		}
	}
	for name := range sc.Accounts {
		addr, err := AccountAddress(name)
		if err != nil {
			return err
		}
		report.Balances[name] = Balance{
			Free:  l.FreeBalance(addr),
			Total: l.TotalBalance(addr),
		}
	}
	return nil
}

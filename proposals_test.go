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

package supersig_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/blinklabs-io/supersig"
	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/executor"
	"github.com/blinklabs-io/supersig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitProposal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, unitAddr := env.createUnit(t, standard(alice, bob, charlie))
	data := remark(t, "hello")

	call := env.submit(t, alice, unitAddr, data)
	assert.Equal(t, types.CallID(0), call)
	dep := uint64(len(data)) * testDepositPerByte
	assert.Equal(t, dep, env.ledger.ReservedBalance(alice))

	// Anyone may submit
	call = env.submit(t, dave, unitAddr, data)
	assert.Equal(t, types.CallID(1), call)

	state, err := env.engine.GetProposalState(ctx, unitAddr, 1)
	require.NoError(t, err)
	assert.Equal(t, dave, state.Provider)
	assert.Equal(t, data, state.Data)
	assert.Equal(t, dep, state.Deposit)
	assert.Empty(t, state.Voters)

	_, err = env.engine.SubmitProposal(ctx, alice, alice, data)
	require.ErrorIs(t, err, types.ErrNotSupersig)
}

// Oversized data consumes neither a deposit nor a call ID
func TestSubmitProposalTooLarge(t *testing.T) {
	env := newTestEnv(t, supersig.WithMaxCallDataSize(8))
	ctx := context.Background()
	_, unitAddr := env.createUnit(t, standard(alice, bob))

	_, err := env.engine.SubmitProposal(ctx, bob, unitAddr, make([]byte, 9))
	require.ErrorIs(t, err, types.ErrCallDataTooLarge)
	assert.Equal(t, uint64(0), env.ledger.ReservedBalance(bob))

	call := env.submit(t, bob, unitAddr, make([]byte, 8))
	assert.Equal(t, types.CallID(0), call)
}

func TestSubmitProposalInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, unitAddr := env.createUnit(t, standard(alice, bob))
	require.NoError(t, env.ledger.Mint(eve, 2*testExistentialDeposit))

	_, err := env.engine.SubmitProposal(ctx, eve, unitAddr, make([]byte, 64))
	require.Error(t, err)
	list, err := env.engine.ListProposals(ctx, unitAddr)
	require.NoError(t, err)
	assert.Empty(t, list.Proposals)
	call := env.submit(t, bob, unitAddr, make([]byte, 64))
	assert.Equal(t, types.CallID(0), call)
}

func TestTooManyActiveProposals(t *testing.T) {
	env := newTestEnv(t, supersig.WithMaxCallsPerUnit(2))
	ctx := context.Background()
	_, unitAddr := env.createUnit(t, standard(alice, bob, charlie))
	env.submit(t, alice, unitAddr, remark(t, "one"))
	env.submit(t, alice, unitAddr, remark(t, "two"))

	_, err := env.engine.SubmitProposal(ctx, alice, unitAddr, remark(t, "three"))
	require.ErrorIs(t, err, types.ErrTooManyActiveProposals)

	env.approve(t, alice, unitAddr, 0)
	res := env.approve(t, bob, unitAddr, 0)
	require.True(t, res.Executed)

	call := env.submit(t, alice, unitAddr, remark(t, "three"))
	assert.Equal(t, types.CallID(2), call)
}

func TestApproveStandardMajority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, votedCh := env.engine.EventBus().Subscribe(event.CallVotedEventType)
	_, execCh := env.engine.EventBus().Subscribe(event.CallExecutionAttemptedEventType)
	_, unitAddr := env.createUnit(t, standard(alice, bob, charlie))
	call := env.submit(t, alice, unitAddr, remark(t, "hello"))
	aliceFree := env.ledger.FreeBalance(alice)

	res := env.approve(t, bob, unitAddr, call)
	assert.Equal(t, uint32(1), res.Weight)
	assert.Equal(t, uint32(1), res.Tally)
	assert.Equal(t, uint32(2), res.Threshold)
	assert.False(t, res.Executed)
	evt := <-votedCh
	assert.Equal(t, bob, evt.Data.(event.CallVotedEvent).Voter)

	res = env.approve(t, alice, unitAddr, call)
	assert.Equal(t, uint32(2), res.Tally)
	assert.True(t, res.Executed)
	require.NoError(t, res.ExecutionError)

	// Proposal consumed and deposit released
	_, err := env.engine.GetProposalState(ctx, unitAddr, call)
	require.ErrorIs(t, err, types.ErrCallNotFound)
	assert.Equal(t, uint64(0), env.ledger.ReservedBalance(alice))
	assert.Greater(t, env.ledger.FreeBalance(alice), aliceFree)
	info, err := env.engine.Unit(ctx, unitAddr)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), info.ActiveProposals)

	select {
	case evt := <-execCh:
		data := evt.Data.(event.CallExecutionAttemptedEvent)
		assert.True(t, data.Success)
		assert.Equal(t, call, data.CallID)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for execution event")
	}
	execs, err := env.engine.ListExecutions(ctx, unitAddr)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.True(t, execs[0].Success)
	assert.Equal(t, alice, execs[0].Provider)
	assert.Equal(t, call, execs[0].CallID)

	// A consumed proposal cannot be voted on again
	_, err = env.engine.ApproveProposal(ctx, charlie, unitAddr, call)
	require.ErrorIs(t, err, types.ErrCallNotFound)
}

func TestMasterWeight(t *testing.T) {
	tests := []struct {
		totalMembers uint32
		weight       uint32
		threshold    uint32
		executed     bool
	}{
		{totalMembers: 1, weight: 1, threshold: 1, executed: true},
		{totalMembers: 2, weight: 1, threshold: 2, executed: false},
		{totalMembers: 3, weight: 1, threshold: 2, executed: false},
		{totalMembers: 4, weight: 2, threshold: 3, executed: false},
	}
	others := []types.Address{bob, charlie, dave}
	for _, test := range tests {
		t.Run(fmt.Sprintf("members=%d", test.totalMembers), func(t *testing.T) {
			env := newTestEnv(t)
			members := []types.Member{{Account: alice, Role: types.RoleMaster}}
			members = append(members, standard(others[:test.totalMembers-1]...)...)
			_, unitAddr := env.createUnit(t, members)
			call := env.submit(t, bob, unitAddr, remark(t, "master"))

			res := env.approve(t, alice, unitAddr, call)
			assert.Equal(t, test.weight, res.Weight)
			assert.Equal(t, test.weight, res.Tally)
			assert.Equal(t, test.threshold, res.Threshold)
			assert.Equal(t, test.executed, res.Executed)
			if !test.executed {
				// One standard vote on top of the master completes the majority
				res = env.approve(t, bob, unitAddr, call)
				assert.True(t, res.Executed)
			}
		})
	}
	assert.Equal(t, uint32(0), supersig.VoteWeight(types.RoleNotMember, 4))
	assert.Equal(t, uint32(5), supersig.VoteWeight(types.RoleMaster, 10))
}

func TestApproveErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, unitAddr := env.createUnit(t, standard(alice, bob, charlie))
	call := env.submit(t, alice, unitAddr, remark(t, "hello"))

	_, err := env.engine.ApproveProposal(ctx, alice, eve, call)
	require.ErrorIs(t, err, types.ErrNotSupersig)
	_, err = env.engine.ApproveProposal(ctx, alice, unitAddr, call+1)
	require.ErrorIs(t, err, types.ErrCallNotFound)
	_, err = env.engine.ApproveProposal(ctx, dave, unitAddr, call)
	require.ErrorIs(t, err, types.ErrNotMember)

	env.approve(t, bob, unitAddr, call)
	_, err = env.engine.ApproveProposal(ctx, bob, unitAddr, call)
	require.ErrorIs(t, err, types.ErrAlreadyVoted)
	state, err := env.engine.GetProposalState(ctx, unitAddr, call)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), state.Tally)
	assert.Equal(t, []types.Address{bob}, state.Voters)
}

func TestExecutionFailureKeepsVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, unitAddr := env.createUnit(t, standard(alice, bob, charlie))
	call := env.submit(t, charlie, unitAddr, encode(t, "test", "fail", nil))

	env.approve(t, alice, unitAddr, call)
	res := env.approve(t, bob, unitAddr, call)
	assert.True(t, res.Executed)
	require.ErrorIs(t, res.ExecutionError, errTestCommand)

	_, err := env.engine.GetProposalState(ctx, unitAddr, call)
	require.ErrorIs(t, err, types.ErrCallNotFound)
	assert.Equal(t, uint64(0), env.ledger.ReservedBalance(charlie))
	execs, err := env.engine.ListExecutions(ctx, unitAddr)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.False(t, execs[0].Success)
	assert.Contains(t, execs[0].Error, errTestCommand.Error())
}

func TestBadEncodedCall(t *testing.T) {
	env := newTestEnv(t)
	_, unitAddr := env.createUnit(t, standard(alice, bob))
	call := env.submit(t, alice, unitAddr, []byte{0xde, 0xad, 0xbe, 0xef})

	env.approve(t, alice, unitAddr, call)
	res := env.approve(t, bob, unitAddr, call)
	assert.True(t, res.Executed)
	require.ErrorIs(t, res.ExecutionError, types.ErrBadEncodedCall)

	// Unknown commands fail the same way
	call = env.submit(t, alice, unitAddr, encode(t, "nope", "missing", nil))
	env.approve(t, alice, unitAddr, call)
	res = env.approve(t, bob, unitAddr, call)
	require.ErrorIs(t, res.ExecutionError, types.ErrBadEncodedCall)
	require.ErrorIs(t, res.ExecutionError, executor.ErrUnknownCommand)

	// So do known commands whose arguments cannot be decoded
	unitBefore := env.ledger.TotalBalance(unitAddr)
	call = env.submit(t, alice, unitAddr, encode(t, executor.ModuleBalances, "transfer", "not a transfer"))
	env.approve(t, alice, unitAddr, call)
	res = env.approve(t, bob, unitAddr, call)
	assert.True(t, res.Executed)
	require.ErrorIs(t, res.ExecutionError, types.ErrBadEncodedCall)
	require.ErrorIs(t, res.ExecutionError, executor.ErrBadArguments)
	assert.Equal(t, unitBefore, env.ledger.TotalBalance(unitAddr))
}

func TestTransferThroughProposal(t *testing.T) {
	env := newTestEnv(t)
	_, unitAddr := env.createUnit(t, standard(alice, bob))
	require.NoError(t, env.ledger.Mint(unitAddr, 50_000))
	daveBefore := env.ledger.FreeBalance(dave)
	call := env.submit(t, alice, unitAddr, encode(
		t,
		executor.ModuleBalances,
		"transfer",
		executor.TransferArgs{To: dave, Amount: 20_000},
	))
	env.approve(t, alice, unitAddr, call)
	res := env.approve(t, bob, unitAddr, call)
	require.NoError(t, res.ExecutionError)
	assert.Equal(t, daveBefore+20_000, env.ledger.FreeBalance(dave))
	assert.Equal(t, uint64(30_000), env.ledger.FreeBalance(unitAddr))
}

func TestRemoveProposal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, removedCh := env.engine.EventBus().Subscribe(event.CallRemovedEventType)
	_, unitAddr := env.createUnit(t, standard(alice, bob, charlie))
	call0 := env.submit(t, alice, unitAddr, remark(t, "zero"))
	call1 := env.submit(t, alice, unitAddr, remark(t, "one"))
	env.approve(t, bob, unitAddr, call0)

	require.ErrorIs(t, env.engine.RemoveProposal(ctx, alice, eve, call0), types.ErrNotSupersig)
	require.ErrorIs(t, env.engine.RemoveProposal(ctx, alice, unitAddr, 7), types.ErrCallNotFound)
	require.ErrorIs(t, env.engine.RemoveProposal(ctx, bob, unitAddr, call0), types.ErrNotAllowed)

	// Provider
	require.NoError(t, env.engine.RemoveProposal(ctx, alice, unitAddr, call0))
	evt := <-removedCh
	assert.Equal(t, alice, evt.Data.(event.CallRemovedEvent).RemovedBy)
	// Governed address
	require.NoError(t, env.engine.RemoveProposal(ctx, unitAddr, unitAddr, call1))
	assert.Equal(t, uint64(0), env.ledger.ReservedBalance(alice))

	require.ErrorIs(t, env.engine.RemoveProposal(ctx, alice, unitAddr, call0), types.ErrCallNotFound)
	_, err := env.engine.ApproveProposal(ctx, charlie, unitAddr, call0)
	require.ErrorIs(t, err, types.ErrCallNotFound)
	info, err := env.engine.Unit(ctx, unitAddr)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), info.ActiveProposals)
	assert.Equal(t, uint64(2), info.CallNonce)
}

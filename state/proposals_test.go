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

package state

import (
	"math"
	"testing"

	"github.com/blinklabs-io/supersig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitLimits(t *testing.T) {
	db := newTestDatabase(t)
	store := NewProposalStore(8, 2)
	txn := db.Transaction(true)
	defer txn.Release()

	_, err := store.Submit(txn, 0, make([]byte, 9), alice, 9000)
	require.ErrorIs(t, err, types.ErrCallDataTooLarge)
	nonce, err := store.CallNonce(txn, 0)
	require.NoError(t, err)
	assert.Zero(t, nonce)

	call, err := store.Submit(txn, 0, []byte("call-a"), alice, 6000)
	require.NoError(t, err)
	assert.Equal(t, types.CallID(0), call)
	call, err = store.Submit(txn, 0, []byte("call-b"), bob, 6000)
	require.NoError(t, err)
	assert.Equal(t, types.CallID(1), call)
	_, err = store.Submit(txn, 0, []byte("call-c"), bob, 6000)
	require.ErrorIs(t, err, types.ErrTooManyActiveProposals)

	require.NoError(t, store.Remove(txn, 0, 0))
	call, err = store.Submit(txn, 0, []byte("call-c"), bob, 6000)
	require.NoError(t, err)
	// Call IDs are never reused
	assert.Equal(t, types.CallID(2), call)
	active, err := store.ActiveProposals(txn, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), active)

	proposal, err := store.Get(txn, 0, 2)
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, []byte("call-c"), proposal.Data)
	assert.Equal(t, bob, proposal.Provider)
	assert.Equal(t, uint64(6000), proposal.Deposit)
}

func TestCastVote(t *testing.T) {
	db := newTestDatabase(t)
	store := NewProposalStore(64, 10)
	txn := db.Transaction(true)
	defer txn.Release()

	_, err := store.CastVote(txn, 0, 0, alice, 1)
	require.ErrorIs(t, err, types.ErrCallNotFound)

	call, err := store.Submit(txn, 0, []byte("call"), alice, 4000)
	require.NoError(t, err)
	tally, err := store.CastVote(txn, 0, call, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tally)
	_, err = store.CastVote(txn, 0, call, alice, 1)
	require.ErrorIs(t, err, types.ErrAlreadyVoted)
	tally, err = store.Tally(txn, 0, call)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tally)

	tally, err = store.CastVote(txn, 0, call, bob, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), tally)

	// Weight saturates instead of wrapping
	tally, err = store.CastVote(txn, 0, call, charlie, math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), tally)

	voters, err := store.Voters(txn, 0, call)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.Address{alice, bob, charlie}, voters)
}

func TestRemoveProposal(t *testing.T) {
	db := newTestDatabase(t)
	store := NewProposalStore(64, 10)
	txn := db.Transaction(true)
	defer txn.Release()

	require.ErrorIs(t, store.Remove(txn, 0, 0), types.ErrCallNotFound)
	call, err := store.Submit(txn, 0, []byte("call"), alice, 4000)
	require.NoError(t, err)
	_, err = store.CastVote(txn, 0, call, alice, 1)
	require.NoError(t, err)
	require.NoError(t, store.Remove(txn, 0, call))

	proposal, err := store.Get(txn, 0, call)
	require.NoError(t, err)
	assert.Nil(t, proposal)
	voters, err := store.Voters(txn, 0, call)
	require.NoError(t, err)
	assert.Empty(t, voters)
	tally, err := store.Tally(txn, 0, call)
	require.NoError(t, err)
	assert.Zero(t, tally)
	voted, err := store.HasVoted(txn, 0, call, alice)
	require.NoError(t, err)
	assert.False(t, voted)
	active, err := store.ActiveProposals(txn, 0)
	require.NoError(t, err)
	assert.Zero(t, active)
}

func TestListAndClear(t *testing.T) {
	db := newTestDatabase(t)
	store := NewProposalStore(64, 10)
	txn := db.Transaction(true)
	defer txn.Release()

	for _, data := range []string{"a", "b", "c"} {
		_, err := store.Submit(txn, 5, []byte(data), alice, 1000)
		require.NoError(t, err)
	}
	_, err := store.Submit(txn, 6, []byte("other"), bob, 5000)
	require.NoError(t, err)
	_, err = store.CastVote(txn, 5, 1, bob, 1)
	require.NoError(t, err)

	entries, err := store.List(txn, 5)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, types.CallID(0), entries[0].CallID)
	assert.Equal(t, []byte("b"), entries[1].Proposal.Data)
	assert.Equal(t, []types.Address{bob}, entries[1].Voters)
	assert.Equal(t, uint32(1), entries[1].Tally)
	assert.Empty(t, entries[2].Voters)

	require.NoError(t, store.Clear(txn, 5))
	entries, err = store.List(txn, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
	nonce, err := store.CallNonce(txn, 5)
	require.NoError(t, err)
	assert.Zero(t, nonce)
	active, err := store.ActiveProposals(txn, 5)
	require.NoError(t, err)
	assert.Zero(t, active)
	voted, err := store.HasVoted(txn, 5, 1, bob)
	require.NoError(t, err)
	assert.False(t, voted)

	entries, err = store.List(txn, 6)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

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
	"errors"
	"fmt"
	"math"

	"github.com/blinklabs-io/supersig/database"
	dbtypes "github.com/blinklabs-io/supersig/database/types"
	"github.com/blinklabs-io/supersig/types"
)

// ProposalEntry is an open proposal together with its votes
type ProposalEntry struct {
	Proposal types.Proposal
	Voters   []types.Address
	CallID   types.CallID
	Tally    uint32
}

// ProposalStore keeps the open proposals of each unit, their vote records
// and tallies, the live proposal count and the call nonce. It does not
// touch the ledger.
type ProposalStore struct {
	maxCallDataSize uint32
	maxCallsPerUnit uint32
}

func NewProposalStore(maxCallDataSize, maxCallsPerUnit uint32) *ProposalStore {
	return &ProposalStore{
		maxCallDataSize: maxCallDataSize,
		maxCallsPerUnit: maxCallsPerUnit,
	}
}

// Submit stores a new proposal and returns its call ID
func (s *ProposalStore) Submit(
	txn *database.Txn,
	unit types.UnitID,
	data []byte,
	provider types.Address,
	deposit uint64,
) (types.CallID, error) {
	if uint64(len(data)) > uint64(s.maxCallDataSize) {
		return 0, types.ErrCallDataTooLarge
	}
	active, err := s.ActiveProposals(txn, unit)
	if err != nil {
		return 0, err
	}
	if active >= s.maxCallsPerUnit {
		return 0, types.ErrTooManyActiveProposals
	}
	nonce, err := getUint64(txn, unitKey(callNonceKeyPrefix, unit))
	if err != nil {
		return 0, err
	}
	if nonce == math.MaxUint64 {
		return 0, types.ErrOverflow
	}
	call := types.CallID(nonce)
	record, err := encodeRecord(types.Proposal{
		Data:     data,
		Provider: provider,
		Deposit:  deposit,
	})
	if err != nil {
		return 0, fmt.Errorf("encode proposal: %w", err)
	}
	if err := txn.BlobSet(callKey(proposalKeyPrefix, unit, call), record); err != nil {
		return 0, err
	}
	if err := setUint64(txn, unitKey(callNonceKeyPrefix, unit), nonce+1); err != nil {
		return 0, err
	}
	if err := setUint32(txn, unitKey(activeProposalsKeyPrefix, unit), active+1); err != nil {
		return 0, err
	}
	return call, nil
}

// Get returns the proposal, or nil if it is not open
func (s *ProposalStore) Get(
	txn *database.Txn,
	unit types.UnitID,
	call types.CallID,
) (*types.Proposal, error) {
	val, err := txn.BlobGet(callKey(proposalKeyPrefix, unit, call))
	if err != nil {
		if errors.Is(err, dbtypes.ErrBlobKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ret types.Proposal
	if err := decodeRecord(val, &ret); err != nil {
		return nil, fmt.Errorf("decode proposal %d/%d: %w", unit, call, err)
	}
	return &ret, nil
}

// HasVoted reports whether the account already voted on the proposal
func (s *ProposalStore) HasVoted(
	txn *database.Txn,
	unit types.UnitID,
	call types.CallID,
	account types.Address,
) (bool, error) {
	return exists(txn, voteKey(unit, call, account))
}

// CastVote records a vote and adds its weight to the tally, saturating at
// the maximum. It returns the new tally.
func (s *ProposalStore) CastVote(
	txn *database.Txn,
	unit types.UnitID,
	call types.CallID,
	account types.Address,
	weight uint32,
) (uint32, error) {
	ok, err := exists(txn, callKey(proposalKeyPrefix, unit, call))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, types.ErrCallNotFound
	}
	voted, err := s.HasVoted(txn, unit, call, account)
	if err != nil {
		return 0, err
	}
	if voted {
		return 0, types.ErrAlreadyVoted
	}
	tally, err := s.Tally(txn, unit, call)
	if err != nil {
		return 0, err
	}
	if weight > math.MaxUint32-tally {
		tally = math.MaxUint32
	} else {
		tally += weight
	}
	if err := txn.BlobSet(voteKey(unit, call, account), []byte{}); err != nil {
		return 0, err
	}
	if err := setUint32(txn, callKey(tallyKeyPrefix, unit, call), tally); err != nil {
		return 0, err
	}
	return tally, nil
}

// Tally returns the accumulated vote weight of a proposal
func (s *ProposalStore) Tally(
	txn *database.Txn,
	unit types.UnitID,
	call types.CallID,
) (uint32, error) {
	return getUint32(txn, callKey(tallyKeyPrefix, unit, call))
}

// Voters returns the accounts that voted on a proposal
func (s *ProposalStore) Voters(
	txn *database.Txn,
	unit types.UnitID,
	call types.CallID,
) ([]types.Address, error) {
	prefix := callKey(voteKeyPrefix, unit, call)
	var ret []types.Address
	err := txn.BlobScan(prefix, func(key, _ []byte) error {
		account, err := types.NewAddress(keySuffix(key, prefix))
		if err != nil {
			return err
		}
		ret = append(ret, account)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Remove deletes a proposal with its tally and votes
func (s *ProposalStore) Remove(
	txn *database.Txn,
	unit types.UnitID,
	call types.CallID,
) error {
	key := callKey(proposalKeyPrefix, unit, call)
	ok, err := exists(txn, key)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrCallNotFound
	}
	if err := txn.BlobDelete(key); err != nil {
		return err
	}
	if err := txn.BlobDelete(callKey(tallyKeyPrefix, unit, call)); err != nil {
		return err
	}
	if _, err := txn.BlobDeletePrefix(callKey(voteKeyPrefix, unit, call)); err != nil {
		return err
	}
	active, err := s.ActiveProposals(txn, unit)
	if err != nil {
		return err
	}
	if active > 0 {
		active--
	}
	return setUint32(txn, unitKey(activeProposalsKeyPrefix, unit), active)
}

// ActiveProposals returns the number of open proposals of the unit
func (s *ProposalStore) ActiveProposals(
	txn *database.Txn,
	unit types.UnitID,
) (uint32, error) {
	return getUint32(txn, unitKey(activeProposalsKeyPrefix, unit))
}

// CallNonce returns the call ID the next proposal will get
func (s *ProposalStore) CallNonce(
	txn *database.Txn,
	unit types.UnitID,
) (uint64, error) {
	return getUint64(txn, unitKey(callNonceKeyPrefix, unit))
}

// List returns the open proposals of the unit in call ID order
func (s *ProposalStore) List(
	txn *database.Txn,
	unit types.UnitID,
) ([]ProposalEntry, error) {
	prefix := unitKey(proposalKeyPrefix, unit)
	var ret []ProposalEntry
	err := txn.BlobScan(prefix, func(key, val []byte) error {
		suffix := keySuffix(key, prefix)
		if len(suffix) != 8 {
			return fmt.Errorf("malformed proposal key %x", key)
		}
		entry := ProposalEntry{
			CallID: types.CallID(beUint64(suffix)),
		}
		if err := decodeRecord(val, &entry.Proposal); err != nil {
			return fmt.Errorf("decode proposal %d/%d: %w", unit, entry.CallID, err)
		}
		ret = append(ret, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range ret {
		voters, err := s.Voters(txn, unit, ret[i].CallID)
		if err != nil {
			return nil, err
		}
		ret[i].Voters = voters
		tally, err := s.Tally(txn, unit, ret[i].CallID)
		if err != nil {
			return nil, err
		}
		ret[i].Tally = tally
	}
	return ret, nil
}

// Clear removes every proposal, tally and vote of the unit together with
// the live proposal count and the call nonce
func (s *ProposalStore) Clear(txn *database.Txn, unit types.UnitID) error {
	for _, prefix := range []string{
		proposalKeyPrefix,
		tallyKeyPrefix,
		voteKeyPrefix,
	} {
		if _, err := txn.BlobDeletePrefix(unitKey(prefix, unit)); err != nil {
			return err
		}
	}
	if err := txn.BlobDelete(unitKey(activeProposalsKeyPrefix, unit)); err != nil {
		return err
	}
	return txn.BlobDelete(unitKey(callNonceKeyPrefix, unit))
}

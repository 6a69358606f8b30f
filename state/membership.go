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

// MembershipStore keeps the member to role mapping of each unit together
// with the unit's member count and membership deposit. Member rows are
// mirrored into the metadata index in the same transaction.
type MembershipStore struct{}

func NewMembershipStore() *MembershipStore {
	return &MembershipStore{}
}

// GetRole returns the account's role in the unit, RoleNotMember if none
func (s *MembershipStore) GetRole(
	txn *database.Txn,
	unit types.UnitID,
	account types.Address,
) (types.Role, error) {
	val, err := txn.BlobGet(memberKey(unit, account))
	if err != nil {
		if errors.Is(err, dbtypes.ErrBlobKeyNotFound) {
			return types.RoleNotMember, nil
		}
		return types.RoleNotMember, err
	}
	if len(val) != 1 {
		return types.RoleNotMember, fmt.Errorf(
			"malformed role for %s in unit %d",
			account,
			unit,
		)
	}
	return types.Role(val[0]), nil
}

// EffectiveMembers returns the roles a member list actually assigns:
// RoleNotMember entries are dropped and, for an account listed more than
// once, the last role wins at the position of its first appearance.
func EffectiveMembers(members []types.Member) []types.Member {
	index := make(map[types.Address]int, len(members))
	var ret []types.Member
	for _, member := range members {
		if !member.Role.IsMember() {
			continue
		}
		if i, ok := index[member.Account]; ok {
			ret[i].Role = member.Role
			continue
		}
		index[member.Account] = len(ret)
		ret = append(ret, member)
	}
	return ret
}

// AddMembers writes the role of every listed member and returns the
// accounts that were not members before. Requests for RoleNotMember are
// ignored.
func (s *MembershipStore) AddMembers(
	txn *database.Txn,
	unit types.UnitID,
	members []types.Member,
) ([]types.Address, error) {
	total, err := s.TotalMembers(txn, unit)
	if err != nil {
		return nil, err
	}
	effective := EffectiveMembers(members)
	var added []types.Address
	for _, member := range effective {
		role, err := s.GetRole(txn, unit, member.Account)
		if err != nil {
			return nil, err
		}
		if !role.IsMember() {
			added = append(added, member.Account)
		}
	}
	if uint64(len(added)) > math.MaxUint32 {
		return nil, types.ErrConversion
	}
	addedCount := uint32(len(added)) //nolint:gosec // checked above
	if addedCount > math.MaxUint32-total {
		return nil, types.ErrOverflow
	}
	metadata := txn.DB().Metadata()
	for _, member := range effective {
		if err := txn.BlobSet(memberKey(unit, member.Account), []byte{byte(member.Role)}); err != nil {
			return nil, err
		}
		if metadata != nil {
			if err := metadata.SetMember(txn.Metadata(), uint64(unit), member.Account[:], uint8(member.Role)); err != nil {
				return nil, fmt.Errorf("index member: %w", err)
			}
		}
	}
	if err := setUint32(txn, unitKey(totalMembersKeyPrefix, unit), total+addedCount); err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMembers removes every listed account that is a member and returns
// them. Nothing is written if the unit would be left without members.
func (s *MembershipStore) RemoveMembers(
	txn *database.Txn,
	unit types.UnitID,
	accounts []types.Address,
) ([]types.Address, error) {
	total, err := s.TotalMembers(txn, unit)
	if err != nil {
		return nil, err
	}
	var removed []types.Address
	seen := make(map[types.Address]bool, len(accounts))
	for _, account := range accounts {
		if seen[account] {
			continue
		}
		seen[account] = true
		role, err := s.GetRole(txn, unit, account)
		if err != nil {
			return nil, err
		}
		if role.IsMember() {
			removed = append(removed, account)
		}
	}
	// removed can never exceed total while the aggregate is consistent
	if uint64(len(removed)) >= uint64(total) {
		return nil, types.ErrMustHaveAtLeastOneMember
	}
	metadata := txn.DB().Metadata()
	for _, account := range removed {
		if err := txn.BlobDelete(memberKey(unit, account)); err != nil {
			return nil, err
		}
		if metadata != nil {
			if err := metadata.DeleteMember(txn.Metadata(), uint64(unit), account[:]); err != nil {
				return nil, fmt.Errorf("unindex member: %w", err)
			}
		}
	}
	newTotal := total - uint32(len(removed)) //nolint:gosec // len(removed) < total
	if err := setUint32(txn, unitKey(totalMembersKeyPrefix, unit), newTotal); err != nil {
		return nil, err
	}
	return removed, nil
}

// TotalMembers returns the unit's member count. Zero means the unit does
// not exist.
func (s *MembershipStore) TotalMembers(
	txn *database.Txn,
	unit types.UnitID,
) (uint32, error) {
	return getUint32(txn, unitKey(totalMembersKeyPrefix, unit))
}

// TotalDeposit returns the amount reserved for the unit's member rows
func (s *MembershipStore) TotalDeposit(
	txn *database.Txn,
	unit types.UnitID,
) (uint64, error) {
	return getUint64(txn, unitKey(totalDepositKeyPrefix, unit))
}

func (s *MembershipStore) SetTotalDeposit(
	txn *database.Txn,
	unit types.UnitID,
	amount uint64,
) error {
	return setUint64(txn, unitKey(totalDepositKeyPrefix, unit), amount)
}

// ListMembers returns every member of the unit in account order
func (s *MembershipStore) ListMembers(
	txn *database.Txn,
	unit types.UnitID,
) ([]types.Member, error) {
	prefix := unitKey(memberKeyPrefix, unit)
	var ret []types.Member
	err := txn.BlobScan(prefix, func(key, val []byte) error {
		account, err := types.NewAddress(keySuffix(key, prefix))
		if err != nil {
			return err
		}
		if len(val) != 1 {
			return fmt.Errorf("malformed role for %s in unit %d", account, unit)
		}
		ret = append(ret, types.Member{Account: account, Role: types.Role(val[0])})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Clear removes every member row and the membership aggregates of the unit
func (s *MembershipStore) Clear(txn *database.Txn, unit types.UnitID) error {
	if _, err := txn.BlobDeletePrefix(unitKey(memberKeyPrefix, unit)); err != nil {
		return err
	}
	if err := txn.BlobDelete(unitKey(totalMembersKeyPrefix, unit)); err != nil {
		return err
	}
	return txn.BlobDelete(unitKey(totalDepositKeyPrefix, unit))
}

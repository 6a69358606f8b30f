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
	"encoding/binary"
	"slices"

	"github.com/blinklabs-io/supersig/types"
)

// Key layout. Every per-unit key starts with a two byte prefix followed by
// the big-endian unit ID, so a unit's rows of one kind form a contiguous
// range that can be cleared with a prefix delete.
const (
	unitNonceKey = "sn"

	memberKeyPrefix          = "sm" // + unit + account -> role
	totalMembersKeyPrefix    = "sc" // + unit -> uint32
	totalDepositKeyPrefix    = "sd" // + unit -> uint64
	proposalKeyPrefix        = "sp" // + unit + call -> cbor(types.Proposal)
	tallyKeyPrefix           = "st" // + unit + call -> uint32
	voteKeyPrefix            = "sv" // + unit + call + account -> empty
	activeProposalsKeyPrefix = "sa" // + unit -> uint32
	callNonceKeyPrefix       = "sk" // + unit -> uint64
)

func uint64Bytes(v uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, v)
	return ret
}

func uint32Bytes(v uint32) []byte {
	ret := make([]byte, 4)
	binary.BigEndian.PutUint32(ret, v)
	return ret
}

func unitKey(prefix string, unit types.UnitID) []byte {
	return slices.Concat([]byte(prefix), uint64Bytes(uint64(unit)))
}

func memberKey(unit types.UnitID, account types.Address) []byte {
	return slices.Concat(unitKey(memberKeyPrefix, unit), account[:])
}

func callKey(prefix string, unit types.UnitID, call types.CallID) []byte {
	return slices.Concat(unitKey(prefix, unit), uint64Bytes(uint64(call)))
}

func voteKey(
	unit types.UnitID,
	call types.CallID,
	account types.Address,
) []byte {
	return slices.Concat(callKey(voteKeyPrefix, unit, call), account[:])
}

func beUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// keySuffix returns the part of key after prefix
func keySuffix(key, prefix []byte) []byte {
	return key[len(prefix):]
}

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

	"github.com/blinklabs-io/supersig/database"
	"github.com/blinklabs-io/supersig/types"
)

// UnitCounter allocates unit IDs from the persistent global nonce
type UnitCounter struct{}

// Peek returns the next unit ID without consuming it. ErrInvalidNonce
// means the ID space is exhausted.
func (UnitCounter) Peek(txn *database.Txn) (types.UnitID, error) {
	nonce, err := getUint64(txn, []byte(unitNonceKey))
	if err != nil {
		return 0, err
	}
	if nonce == math.MaxUint64 {
		return 0, types.ErrInvalidNonce
	}
	return types.UnitID(nonce), nil
}

// Advance consumes the given unit ID
func (UnitCounter) Advance(txn *database.Txn, unit types.UnitID) error {
	if uint64(unit) == math.MaxUint64 {
		return types.ErrInvalidNonce
	}
	return txn.BlobSet([]byte(unitNonceKey), uint64Bytes(uint64(unit)+1))
}

// Set overwrites the nonce
func (UnitCounter) Set(txn *database.Txn, nonce uint64) error {
	return txn.BlobSet([]byte(unitNonceKey), uint64Bytes(nonce))
}

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

// Package address maps unit IDs to the ledger accounts that hold each
// unit's funds
package address

import (
	"bytes"
	"encoding/binary"

	"github.com/blinklabs-io/supersig/types"
)

// Addressing turns a unit ID into a spendable address and back
type Addressing interface {
	DeriveAddress(unit types.UnitID) (types.Address, error)
	ResolveUnitID(addr types.Address) (types.UnitID, bool)
}

const modulePrefix = "modl"

// DefaultPalletID identifies governed unit accounts
var DefaultPalletID = [8]byte{'i', 'd', '/', 's', 'u', 's', 'i', 'g'}

// ModuleAddressing derives sub-accounts of a module account:
// "modl" || pallet ID || little-endian unit ID, zero padded
type ModuleAddressing struct {
	prefix []byte
}

var _ Addressing = (*ModuleAddressing)(nil)

func NewModuleAddressing(palletID [8]byte) *ModuleAddressing {
	prefix := make([]byte, 0, len(modulePrefix)+len(palletID))
	prefix = append(prefix, modulePrefix...)
	prefix = append(prefix, palletID[:]...)
	return &ModuleAddressing{prefix: prefix}
}

func (m *ModuleAddressing) DeriveAddress(unit types.UnitID) (types.Address, error) {
	var ret types.Address
	n := copy(ret[:], m.prefix)
	binary.LittleEndian.PutUint64(ret[n:], uint64(unit))
	return ret, nil
}

func (m *ModuleAddressing) ResolveUnitID(addr types.Address) (types.UnitID, bool) {
	if !bytes.HasPrefix(addr[:], m.prefix) {
		return 0, false
	}
	idStart := len(m.prefix)
	idEnd := idStart + 8
	for _, b := range addr[idEnd:] {
		if b != 0 {
			return 0, false
		}
	}
	return types.UnitID(binary.LittleEndian.Uint64(addr[idStart:idEnd])), true
}

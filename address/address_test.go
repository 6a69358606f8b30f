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

package address_test

import (
	"math"
	"testing"

	"github.com/blinklabs-io/supersig/address"
	"github.com/blinklabs-io/supersig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveResolve(t *testing.T) {
	m := address.NewModuleAddressing(address.DefaultPalletID)
	for _, unit := range []types.UnitID{0, 1, 255, 1 << 40, math.MaxUint64} {
		addr, err := m.DeriveAddress(unit)
		require.NoError(t, err)
		resolved, ok := m.ResolveUnitID(addr)
		require.True(t, ok)
		assert.Equal(t, unit, resolved)
	}
}

func TestDeriveLayout(t *testing.T) {
	m := address.NewModuleAddressing(address.DefaultPalletID)
	addr, err := m.DeriveAddress(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("modlid/susig"), addr[:12])
	assert.Equal(t, byte(1), addr[12])
	assert.Equal(t, make([]byte, 19), addr[13:])
}

func TestResolveForeignAddress(t *testing.T) {
	m := address.NewModuleAddressing(address.DefaultPalletID)
	var alice types.Address
	copy(alice[:], "alice")
	_, ok := m.ResolveUnitID(alice)
	assert.False(t, ok)

	// Same layout, different module
	other := address.NewModuleAddressing([8]byte{'p', 'y', '/', 't', 'r', 's', 'r', 'y'})
	addr, err := other.DeriveAddress(3)
	require.NoError(t, err)
	_, ok = m.ResolveUnitID(addr)
	assert.False(t, ok)

	// Trailing bytes must be zero
	addr, err = m.DeriveAddress(3)
	require.NoError(t, err)
	addr[31] = 1
	_, ok = m.ResolveUnitID(addr)
	assert.False(t, ok)
}

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

package types_test

import (
	"strings"
	"testing"

	"github.com/blinklabs-io/supersig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressBech32RoundTrip(t *testing.T) {
	var addr types.Address
	copy(addr[:], "alice")
	s := addr.String()
	assert.True(t, strings.HasPrefix(s, types.AddressHRP+"1"))
	parsed, err := types.ParseAddress(s)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestAddressParseHex(t *testing.T) {
	var addr types.Address
	addr[31] = 0xff
	parsed, err := types.ParseAddress(addr.Hex())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestAddressParseErrors(t *testing.T) {
	_, err := types.ParseAddress("not-an-address")
	require.Error(t, err)
	_, err = types.NewAddress([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestRoleText(t *testing.T) {
	var r types.Role
	assert.Equal(t, types.RoleNotMember, r)
	assert.False(t, r.IsMember())
	require.NoError(t, r.UnmarshalText([]byte("Master")))
	assert.Equal(t, types.RoleMaster, r)
	assert.True(t, r.IsMember())
	require.Error(t, r.UnmarshalText([]byte("owner")))
}

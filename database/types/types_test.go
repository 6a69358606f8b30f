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
	"math"
	"testing"

	"github.com/blinklabs-io/supersig/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64ScanValue(t *testing.T) {
	for _, v := range []uint64{0, 123, math.MaxUint64} {
		orig := types.Uint64(v)
		valueOut, err := orig.Value()
		require.NoError(t, err)
		var scanned types.Uint64
		require.NoError(t, scanned.Scan(valueOut))
		assert.Equal(t, orig, scanned)
	}
}

func TestUint64ScanWrongType(t *testing.T) {
	var scanned types.Uint64
	require.Error(t, scanned.Scan(1.5))
	require.Error(t, scanned.Scan(int64(-1)))
	require.NoError(t, scanned.Scan(int64(5)))
	assert.Equal(t, types.Uint64(5), scanned)
}

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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/supersig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supersig.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	var acct types.Address
	acct[0] = 1
	path := writeConfigFile(t, `
databasePath: "/var/lib/supersig"
bindAddr: "127.0.0.1"
apiPort: 9000
shutdownTimeout: "5s"
tracing: true
governance:
  depositPerByte: 10
  maxCallsPerUnit: 4
ledger:
  existentialDeposit: 500
  endowments:
    `+acct.String()+`: 1000000
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/supersig", cfg.DatabasePath)
	assert.Equal(t, "127.0.0.1:9000", cfg.ApiListenAddress())
	assert.Equal(t, "127.0.0.1:12799", cfg.MetricsListenAddress())
	assert.True(t, cfg.Tracing)
	assert.Equal(t, uint64(10), cfg.Governance.DepositPerByte)
	assert.Equal(t, uint32(4), cfg.Governance.MaxCallsPerUnit)
	// Untouched keys keep their defaults
	assert.Equal(t, uint32(4096), cfg.Governance.MaxCallDataSize)
	assert.Equal(t, uint64(500), cfg.Ledger.ExistentialDeposit)

	timeout, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	endowments, err := cfg.Endowments()
	require.NoError(t, err)
	assert.Equal(t, map[types.Address]uint64{acct: 1000000}, endowments)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfigFile(t, "apiPort: 9000\n")
	t.Setenv("SUPERSIG_API_PORT", "9100")
	t.Setenv("SUPERSIG_DATABASE_PATH", "")
	t.Setenv("SUPERSIG_GOVERNANCE_MAX_CALLS_PER_UNIT", "2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Empty(t, cfg.DatabasePath)
	assert.Equal(t, uint32(2), cfg.Governance.MaxCallsPerUnit)
}

func TestLoadConfigInvalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{"bad yaml", "apiPort: [\n"},
		{"bad timeout", "shutdownTimeout: soon\n"},
		{"zero calls", "governance:\n  maxCallsPerUnit: 0\n"},
		{"bad endowment", "ledger:\n  endowments:\n    nobody: 10\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, testDef.content))
			require.Error(t, err)
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(t.Context()))
	cfg := DefaultConfig()
	ctx := WithContext(t.Context(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}

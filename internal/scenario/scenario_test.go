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

package scenario_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/supersig"
	"github.com/blinklabs-io/supersig/database"
	"github.com/blinklabs-io/supersig/internal/scenario"
	"github.com/blinklabs-io/supersig/ledger"
	"github.com/blinklabs-io/supersig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, sc *scenario.Scenario) (*supersig.Engine, *ledger.MemoryLedger) {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	l := ledger.NewMemoryLedger(sc.ExistentialDeposit)
	endowments, err := sc.Endowments()
	require.NoError(t, err)
	for acct, amount := range endowments {
		addr, err := types.ParseAddress(acct)
		require.NoError(t, err)
		require.NoError(t, l.Mint(addr, amount))
	}
	engine, err := supersig.New(supersig.NewConfig(
		supersig.WithDatabase(db),
		supersig.WithLedger(l),
	))
	require.NoError(t, err)
	t.Cleanup(func() {
		engine.Close() //nolint:errcheck
	})
	return engine, l
}

func TestRunCouncilScenario(t *testing.T) {
	sc, err := scenario.Load("testdata/council.yaml")
	require.NoError(t, err)
	engine, l := newEngine(t, sc)

	report, err := scenario.Run(t.Context(), engine, l, sc)
	require.NoError(t, err)
	require.Len(t, report.Steps, len(sc.Steps))
	assert.Equal(t, "council", report.Name)

	payApproval := report.Steps[6].Approval
	require.NotNil(t, payApproval)
	assert.True(t, payApproval.Executed)
	assert.Empty(t, payApproval.ExecutionError)
	assert.Equal(t, uint32(2), payApproval.Threshold)

	council, ok := report.Units["council"]
	require.True(t, ok)
	require.NotNil(t, council.Info)
	assert.Equal(t, uint32(2), council.Info.TotalMembers)
	require.Len(t, council.Members, 2)
	require.Len(t, council.Proposals, 1)
	require.Len(t, council.Executions, 2)
	for _, exec := range council.Executions {
		assert.True(t, exec.Success)
	}

	dave, err := scenario.AccountAddress("dave")
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), l.FreeBalance(dave))
	// 20000 funding - 5000 paid + a third of the 96000 member deposit
	// released when bob was removed
	assert.Equal(t, uint64(47000), report.Balances["council"].Free)
	assert.Equal(t, uint64(111000), report.Balances["council"].Total)
}

func TestRunStopsOnUnexpectedOutcome(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
accounts:
  alice: 1000000
steps:
  - op: createUnit
    caller: alice
    as: solo
    members:
      - account: alice
  - op: leave
    caller: alice
    unit: solo
  - op: createUnit
    caller: alice
    members:
      - account: alice
`))
	require.NoError(t, err)
	engine, l := newEngine(t, sc)

	report, err := scenario.Run(t.Context(), engine, l, sc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, scenario.ErrUnexpectedOutcome))
	// The run stops at the failing step
	require.Len(t, report.Steps, 2)
	assert.NotEmpty(t, report.Steps[1].Error)
	assert.NotNil(t, report.Units["solo"].Info)
}

func TestRunDeleteByUnit(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
accounts:
  alice: 1000000
steps:
  - op: createUnit
    caller: alice
    as: solo
    members:
      - account: alice
  - op: deleteUnit
    caller: alice
    beneficiary: alice
    expectError: not a live supersig
  - op: deleteUnit
    caller: solo
    beneficiary: alice
`))
	require.NoError(t, err)
	engine, l := newEngine(t, sc)

	report, err := scenario.Run(t.Context(), engine, l, sc)
	require.NoError(t, err)
	solo := report.Units["solo"]
	assert.Nil(t, solo.Info)
	assert.Empty(t, solo.Executions)
	assert.Equal(t, uint64(1000000), report.Balances["alice"].Free)
}

func TestParseErrors(t *testing.T) {
	_, err := scenario.Parse([]byte("steps:\n  - op: explode\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, scenario.ErrUnknownOp))

	_, err = scenario.Parse([]byte("steps: {"))
	require.Error(t, err)

	_, err = scenario.AccountAddress("a-name-that-is-far-too-long-for-an-address")
	require.Error(t, err)
}

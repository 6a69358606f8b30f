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

package supersig_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/supersig"
	"github.com/blinklabs-io/supersig/database"
	"github.com/blinklabs-io/supersig/executor"
	"github.com/blinklabs-io/supersig/ledger"
	"github.com/blinklabs-io/supersig/types"
	"github.com/stretchr/testify/require"
)

const (
	testExistentialDeposit = 1000
	testDepositPerByte     = 1000
	testEndowment          = 10_000_000
	// deposit for one 32 byte member row
	memberDeposit = 32 * testDepositPerByte
)

var errTestCommand = errors.New("test command failed")

var (
	alice   = testAccount("alice")
	bob     = testAccount("bob")
	charlie = testAccount("charlie")
	dave    = testAccount("dave")
	eve     = testAccount("eve")
)

func testAccount(name string) types.Address {
	var ret types.Address
	copy(ret[:], name)
	return ret
}

type testEnv struct {
	engine   *supersig.Engine
	ledger   *ledger.MemoryLedger
	db       *database.Database
	registry *executor.Registry
}

func newTestEnv(t *testing.T, opts ...supersig.ConfigOptionFunc) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	l := ledger.NewMemoryLedger(testExistentialDeposit)
	for _, acct := range []types.Address{alice, bob, charlie, dave} {
		require.NoError(t, l.Mint(acct, testEndowment))
	}
	registry := executor.NewRegistry(nil)
	executor.RegisterSystem(registry)
	executor.RegisterBalances(registry, l)
	registry.Register(
		"test",
		"fail",
		func(context.Context, types.Address, executor.Command) error {
			return errTestCommand
		},
	)
	cfgOpts := append(
		[]supersig.ConfigOptionFunc{
			supersig.WithDatabase(db),
			supersig.WithLedger(l),
			supersig.WithExecutor(registry),
			supersig.WithDepositPerByte(testDepositPerByte),
		},
		opts...,
	)
	engine, err := supersig.New(supersig.NewConfig(cfgOpts...))
	require.NoError(t, err)
	engine.RegisterCommands(registry)
	t.Cleanup(func() {
		engine.Close() //nolint:errcheck
	})
	return &testEnv{
		engine:   engine,
		ledger:   l,
		db:       db,
		registry: registry,
	}
}

func standard(accounts ...types.Address) []types.Member {
	ret := make([]types.Member, 0, len(accounts))
	for _, acct := range accounts {
		ret = append(ret, types.Member{Account: acct, Role: types.RoleStandard})
	}
	return ret
}

func (env *testEnv) createUnit(
	t *testing.T,
	members []types.Member,
) (types.UnitID, types.Address) {
	t.Helper()
	unit, addr, err := env.engine.CreateUnit(context.Background(), alice, members)
	require.NoError(t, err)
	return unit, addr
}

func encode(t *testing.T, module, method string, args any) []byte {
	t.Helper()
	data, err := executor.Encode(module, method, args)
	require.NoError(t, err)
	return data
}

func remark(t *testing.T, text string) []byte {
	t.Helper()
	return encode(t, executor.ModuleSystem, "remark", executor.RemarkArgs{Remark: []byte(text)})
}

func (env *testEnv) submit(
	t *testing.T,
	caller types.Address,
	unitAddr types.Address,
	data []byte,
) types.CallID {
	t.Helper()
	call, err := env.engine.SubmitProposal(context.Background(), caller, unitAddr, data)
	require.NoError(t, err)
	return call
}

func (env *testEnv) approve(
	t *testing.T,
	caller types.Address,
	unitAddr types.Address,
	call types.CallID,
) *supersig.ApprovalResult {
	t.Helper()
	res, err := env.engine.ApproveProposal(context.Background(), caller, unitAddr, call)
	require.NoError(t, err)
	return res
}

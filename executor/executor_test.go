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

package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/supersig/executor"
	"github.com/blinklabs-io/supersig/ledger"
	"github.com/blinklabs-io/supersig/types"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(name string) types.Address {
	var ret types.Address
	copy(ret[:], name)
	return ret
}

func TestDecodeExecute(t *testing.T) {
	r := executor.NewRegistry(nil)
	var gotActor types.Address
	var gotArgs *executor.RemarkArgs
	executor.RegisterWithArgs(
		r,
		"test",
		"echo",
		func(_ context.Context, actingAs types.Address, args *executor.RemarkArgs) error {
			gotActor = actingAs
			gotArgs = args
			return nil
		},
	)
	data, err := executor.Encode("test", "echo", executor.RemarkArgs{Remark: []byte("hi")})
	require.NoError(t, err)
	cmd, err := r.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "test.echo", cmd.Name())
	assert.Equal(t, &executor.RemarkArgs{Remark: []byte("hi")}, cmd.Params)
	require.NoError(t, r.Execute(context.Background(), cmd, testAccount("unit")))
	assert.Equal(t, testAccount("unit"), gotActor)
	assert.Equal(t, []byte("hi"), gotArgs.Remark)
	assert.Equal(t, []string{"test.echo"}, r.Commands())
}

func TestDecodeErrors(t *testing.T) {
	r := executor.NewRegistry(nil)
	executor.RegisterSystem(r)
	_, err := r.Decode([]byte{0xff, 0x00})
	require.ErrorIs(t, err, types.ErrBadEncodedCall)
	data, err := executor.Encode("nope", "missing", nil)
	require.NoError(t, err)
	_, err = r.Decode(data)
	require.ErrorIs(t, err, types.ErrBadEncodedCall)
	require.ErrorIs(t, err, executor.ErrUnknownCommand)
}

func TestDecodeMalformedArgs(t *testing.T) {
	r := executor.NewRegistry(nil)
	executor.RegisterSystem(r)
	executor.RegisterBalances(r, ledger.NewMemoryLedger(1000))

	// Known command, arguments of the wrong shape
	data, err := executor.Encode(executor.ModuleBalances, "transfer", "not a transfer")
	require.NoError(t, err)
	_, err = r.Decode(data)
	require.ErrorIs(t, err, types.ErrBadEncodedCall)
	require.ErrorIs(t, err, executor.ErrBadArguments)

	// Missing arguments
	data, err = executor.Encode(executor.ModuleSystem, "remark", nil)
	require.NoError(t, err)
	_, err = r.Decode(data)
	require.ErrorIs(t, err, types.ErrBadEncodedCall)
	require.ErrorIs(t, err, executor.ErrBadArguments)
}

func TestExecuteDecodesArgs(t *testing.T) {
	r := executor.NewRegistry(nil)
	executor.RegisterSystem(r)
	// A command built without Decode still gets its arguments checked
	cmd := executor.Command{Module: executor.ModuleSystem, Method: "remark"}
	require.ErrorIs(t, r.Execute(context.Background(), cmd, types.Address{}), executor.ErrBadArguments)
	data, err := executor.Encode(executor.ModuleSystem, "remark", executor.RemarkArgs{Remark: []byte("note")})
	require.NoError(t, err)
	cmd = executor.Command{Module: executor.ModuleSystem, Method: "remark"}
	var decoded executor.Command
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	cmd.Args = decoded.Args
	require.NoError(t, r.Execute(context.Background(), cmd, types.Address{}))
}

func TestHandlerErrorPropagates(t *testing.T) {
	r := executor.NewRegistry(nil)
	testErr := errors.New("handler failed")
	r.Register("test", "fail", func(context.Context, types.Address, executor.Command) error {
		return testErr
	})
	data, err := executor.Encode("test", "fail", nil)
	require.NoError(t, err)
	cmd, err := r.Decode(data)
	require.NoError(t, err)
	require.ErrorIs(t, r.Execute(context.Background(), cmd, types.Address{}), testErr)
}

func TestBalancesTransfer(t *testing.T) {
	l := ledger.NewMemoryLedger(1000)
	unit := testAccount("unit")
	bob := testAccount("bob")
	require.NoError(t, l.Mint(unit, 50_000))
	r := executor.NewRegistry(nil)
	executor.RegisterBalances(r, l)

	data, err := executor.Encode(executor.ModuleBalances, "transfer", executor.TransferArgs{To: bob, Amount: 20_000})
	require.NoError(t, err)
	cmd, err := r.Decode(data)
	require.NoError(t, err)
	require.NoError(t, r.Execute(context.Background(), cmd, unit))
	assert.Equal(t, uint64(30_000), l.FreeBalance(unit))
	assert.Equal(t, uint64(20_000), l.FreeBalance(bob))

	// The acting account is kept alive
	data, err = executor.Encode(executor.ModuleBalances, "transfer", executor.TransferArgs{To: bob, Amount: 30_000})
	require.NoError(t, err)
	cmd, err = r.Decode(data)
	require.NoError(t, err)
	require.ErrorIs(t, r.Execute(context.Background(), cmd, unit), ledger.ErrKeepAlive)
}

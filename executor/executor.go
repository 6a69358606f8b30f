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

// Package executor decodes and runs the opaque calls carried by proposals.
// Calls are CBOR encoded {module, method, args} triples dispatched to
// registered handlers.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/supersig/types"
	"github.com/fxamacker/cbor/v2"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad command arguments")
)

// Command is a decoded call
type Command struct {
	// Params holds the decoded arguments when the handler declares them
	Params any             `cbor:"-"`
	Module string          `cbor:"0,keyasint"`
	Method string          `cbor:"1,keyasint"`
	Args   cbor.RawMessage `cbor:"2,keyasint,omitempty"`
}

func (c Command) Name() string {
	return c.Module + "." + c.Method
}

// Executor is the boundary between governance and whatever the governed
// unit can do
type Executor interface {
	Decode(data []byte) (Command, error)
	Execute(ctx context.Context, cmd Command, actingAs types.Address) error
}

// Encode builds the wire form of a call. A nil args value omits arguments.
func Encode(module, method string, args any) ([]byte, error) {
	cmd := Command{Module: module, Method: method}
	if args != nil {
		raw, err := cbor.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s arguments: %w", module, method, err)
		}
		cmd.Args = raw
	}
	return cbor.Marshal(cmd)
}

// DecodeArgs unpacks the arguments of a call
func DecodeArgs(cmd Command, dst any) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("%w: %s: missing arguments", ErrBadArguments, cmd.Name())
	}
	if err := cbor.Unmarshal(cmd.Args, dst); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBadArguments, cmd.Name(), err)
	}
	return nil
}

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

package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/blinklabs-io/supersig/types"
	"github.com/fxamacker/cbor/v2"
)

// HandlerFunc runs one kind of call on behalf of actingAs. Arguments
// declared at registration are available decoded in cmd.Params.
type HandlerFunc func(ctx context.Context, actingAs types.Address, cmd Command) error

type handler struct {
	newArgs func() any
	run     HandlerFunc
}

// Registry is an Executor that dispatches to handlers by module and method
type Registry struct {
	logger   *slog.Logger
	handlers map[string]handler
	mu       sync.RWMutex
}

var _ Executor = (*Registry)(nil)

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Registry{
		logger:   logger,
		handlers: make(map[string]handler),
	}
}

// Register adds or replaces the handler for module.method, which takes no
// arguments
func (r *Registry) Register(module, method string, fn HandlerFunc) {
	r.register(module, method, handler{run: fn})
}

// RegisterWithArgs adds or replaces the handler for module.method. The
// arguments of every call are decoded into a new T by Decode, so a call
// with malformed arguments never reaches fn.
func RegisterWithArgs[T any](
	r *Registry,
	module, method string,
	fn func(ctx context.Context, actingAs types.Address, args *T) error,
) {
	r.register(
		module,
		method,
		handler{
			newArgs: func() any { return new(T) },
			run: func(ctx context.Context, actingAs types.Address, cmd Command) error {
				args, ok := cmd.Params.(*T)
				if !ok {
					return fmt.Errorf("%w: %s: arguments not decoded", ErrBadArguments, cmd.Name())
				}
				return fn(ctx, actingAs, args)
			},
		},
	)
}

func (r *Registry) register(module, method string, h handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[module+"."+method] = h
}

// Commands returns the registered command names
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		ret = append(ret, name)
	}
	slices.Sort(ret)
	return ret
}

// Decode parses a call, including its arguments, and checks that a handler
// exists for it. Every failure wraps types.ErrBadEncodedCall.
func (r *Registry) Decode(data []byte) (Command, error) {
	var cmd Command
	if err := cbor.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", types.ErrBadEncodedCall, err)
	}
	r.mu.RLock()
	h, ok := r.handlers[cmd.Name()]
	r.mu.RUnlock()
	if !ok {
		return Command{}, fmt.Errorf(
			"%w: %w: %s",
			types.ErrBadEncodedCall,
			ErrUnknownCommand,
			cmd.Name(),
		)
	}
	if err := h.decodeArgs(&cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", types.ErrBadEncodedCall, err)
	}
	return cmd, nil
}

func (h handler) decodeArgs(cmd *Command) error {
	if h.newArgs == nil || cmd.Params != nil {
		return nil
	}
	args := h.newArgs()
	if err := DecodeArgs(*cmd, args); err != nil {
		return err
	}
	cmd.Params = args
	return nil
}

func (r *Registry) Execute(
	ctx context.Context,
	cmd Command,
	actingAs types.Address,
) error {
	r.mu.RLock()
	h, ok := r.handlers[cmd.Name()]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name())
	}
	// Commands built by hand skip Decode
	if err := h.decodeArgs(&cmd); err != nil {
		return err
	}
	r.logger.Debug(
		"executing command",
		"component", "executor",
		"command", cmd.Name(),
		"acting_as", actingAs.String(),
	)
	return h.run(ctx, actingAs, cmd)
}

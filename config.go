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

package supersig

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/supersig/address"
	"github.com/blinklabs-io/supersig/database"
	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/executor"
	"github.com/blinklabs-io/supersig/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultDepositPerByte            = 1000
	DefaultMaxCallDataSize           = 4096
	DefaultMaxCallsPerUnit           = 16
	DefaultMaxAccountsPerTransaction = 64
)

type Config struct {
	promRegistry              prometheus.Registerer
	tracerProvider            trace.TracerProvider
	logger                    *slog.Logger
	database                  *database.Database
	ledger                    ledger.Ledger
	addressing                address.Addressing
	executor                  executor.Executor
	eventBus                  *event.EventBus
	depositPerByte            uint64
	maxCallDataSize           uint32
	maxCallsPerUnit           uint32
	maxAccountsPerTransaction uint32
}

// ConfigOptionFunc is a type that represents functions that modify the engine config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new engine config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:                    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		depositPerByte:            DefaultDepositPerByte,
		maxCallDataSize:           DefaultMaxCallDataSize,
		maxCallsPerUnit:           DefaultMaxCallsPerUnit,
		maxAccountsPerTransaction: DefaultMaxAccountsPerTransaction,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *Config) validate() error {
	if c.database == nil {
		return errors.New("no database configured")
	}
	if c.ledger == nil {
		return errors.New("no ledger configured")
	}
	if c.maxCallsPerUnit == 0 {
		return fmt.Errorf("invalid max calls per unit: %d", c.maxCallsPerUnit)
	}
	if c.maxAccountsPerTransaction == 0 {
		return fmt.Errorf(
			"invalid max accounts per transaction: %d",
			c.maxAccountsPerTransaction,
		)
	}
	return nil
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracerProvider specifies the OpenTelemetry tracer provider used for operation spans.
// The global provider is used when unset
func WithTracerProvider(provider trace.TracerProvider) ConfigOptionFunc {
	return func(c *Config) {
		c.tracerProvider = provider
	}
}

// WithDatabase specifies the database holding governance state
func WithDatabase(db *database.Database) ConfigOptionFunc {
	return func(c *Config) {
		c.database = db
	}
}

// WithLedger specifies the ledger that holds balances and reservations
func WithLedger(l ledger.Ledger) ConfigOptionFunc {
	return func(c *Config) {
		c.ledger = l
	}
}

// WithAddressing specifies how unit IDs map to governed addresses. Defaults to
// module sub-accounts of address.DefaultPalletID
func WithAddressing(addressing address.Addressing) ConfigOptionFunc {
	return func(c *Config) {
		c.addressing = addressing
	}
}

// WithExecutor specifies the executor for approved calls. By default a registry
// with the system, balances and supersig commands is used
func WithExecutor(exec executor.Executor) ConfigOptionFunc {
	return func(c *Config) {
		c.executor = exec
	}
}

// WithEventBus specifies the event bus to publish governance events on. A bus
// is created and owned by the engine when unset
func WithEventBus(eventBus *event.EventBus) ConfigOptionFunc {
	return func(c *Config) {
		c.eventBus = eventBus
	}
}

// WithDepositPerByte specifies the deposit charged per byte of stored data
func WithDepositPerByte(amount uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.depositPerByte = amount
	}
}

// WithMaxCallDataSize specifies the largest accepted encoded call
func WithMaxCallDataSize(size uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.maxCallDataSize = size
	}
}

// WithMaxCallsPerUnit specifies how many proposals a unit may have open at once
func WithMaxCallsPerUnit(count uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.maxCallsPerUnit = count
	}
}

// WithMaxAccountsPerTransaction bounds the member lists accepted by a single operation
func WithMaxAccountsPerTransaction(count uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.maxAccountsPerTransaction = count
	}
}

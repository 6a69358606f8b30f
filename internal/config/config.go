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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/supersig/types"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "supersig.config"

const (
	DefaultShutdownTimeout = "30s"
	EnvPrefix              = "supersig"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// GovernanceConfig holds the engine limits and deposit pricing
type GovernanceConfig struct {
	DepositPerByte            uint64 `yaml:"depositPerByte"            split_words:"true"`
	MaxCallDataSize           uint32 `yaml:"maxCallDataSize"           split_words:"true"`
	MaxCallsPerUnit           uint32 `yaml:"maxCallsPerUnit"           split_words:"true"`
	MaxAccountsPerTransaction uint32 `yaml:"maxAccountsPerTransaction" split_words:"true"`
}

// LedgerConfig configures the in-memory reference ledger. Endowments map
// account addresses to their genesis balance.
type LedgerConfig struct {
	Endowments         map[string]uint64 `yaml:"endowments"`
	ExistentialDeposit uint64            `yaml:"existentialDeposit" split_words:"true"`
}

type Config struct {
	DatabasePath    string           `yaml:"databasePath"    split_words:"true"`
	BindAddr        string           `yaml:"bindAddr"        split_words:"true"`
	ShutdownTimeout string           `yaml:"shutdownTimeout" split_words:"true"`
	Ledger          LedgerConfig     `yaml:"ledger"`
	Governance      GovernanceConfig `yaml:"governance"`
	ApiPort         uint             `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint             `yaml:"metricsPort"     split_words:"true"`
	Tracing         bool             `yaml:"tracing"`
	TracingStdout   bool             `yaml:"tracingStdout"   split_words:"true"`
}

// DefaultConfig returns the built-in defaults. An empty database path keeps
// all state in memory.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    "",
		BindAddr:        "0.0.0.0",
		ShutdownTimeout: DefaultShutdownTimeout,
		ApiPort:         8080,
		MetricsPort:     12799,
		Governance: GovernanceConfig{
			DepositPerByte:            1000,
			MaxCallDataSize:           4096,
			MaxCallsPerUnit:           16,
			MaxAccountsPerTransaction: 64,
		},
		Ledger: LedgerConfig{
			ExistentialDeposit: 1000,
		},
	}
}

// LoadConfig builds the configuration from the defaults, the YAML file (if
// any) and SUPERSIG_* environment variables, in that order
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		// Check for config file in this path: ~/.supersig/supersig.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".supersig", "supersig.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/supersig/supersig.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected by defaults
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if c.Governance.MaxCallsPerUnit == 0 {
		errs = append(errs, errors.New("governance.maxCallsPerUnit must be positive"))
	}
	if c.Governance.MaxAccountsPerTransaction == 0 {
		errs = append(
			errs,
			errors.New("governance.maxAccountsPerTransaction must be positive"),
		)
	}
	if _, err := c.Endowments(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return time.ParseDuration(DefaultShutdownTimeout)
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdownTimeout %q: %w", c.ShutdownTimeout, err)
	}
	return d, nil
}

// Endowments returns the parsed genesis balances
func (c *Config) Endowments() (map[types.Address]uint64, error) {
	ret := make(map[types.Address]uint64, len(c.Ledger.Endowments))
	for k, v := range c.Ledger.Endowments {
		addr, err := types.ParseAddress(k)
		if err != nil {
			return nil, fmt.Errorf("invalid endowment account %q: %w", k, err)
		}
		ret[addr] = v
	}
	return ret, nil
}

func (c *Config) ApiListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

func (c *Config) MetricsListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.MetricsPort)
}

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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/supersig/database/models"
	"github.com/blinklabs-io/supersig/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/supersig/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

// MetadataStore is the relational reporting index kept alongside the blob
// store. All methods accept a nil txn to read committed state.
type MetadataStore interface {
	// Database
	Close() error
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(types.Txn, int64) error
	Transaction() types.Txn

	// Units
	GetUnit(types.Txn, uint64) (*models.Unit, error)
	SetUnit(types.Txn, *models.Unit) error
	DeleteUnit(types.Txn, uint64) error

	// Membership index
	SetMember(types.Txn, uint64, []byte, uint8) error
	DeleteMember(types.Txn, uint64, []byte) error
	GetUnitsForAccount(types.Txn, []byte) ([]uint64, error)

	// Execution history
	AddExecution(types.Txn, *models.Execution) error
	GetExecutions(types.Txn, uint64) ([]models.Execution, error)
}

// New returns a metadata store of the named type
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	switch pluginName {
	case "sqlite":
		return sqlite.New(
			sqlite.WithDataDir(dataDir),
			sqlite.WithLogger(logger),
			sqlite.WithPromRegistry(promRegistry),
		)
	default:
		return nil, fmt.Errorf("unsupported metadata plugin: %s", pluginName)
	}
}

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

package sqlite

import (
	"github.com/blinklabs-io/supersig/database/models"
	"github.com/blinklabs-io/supersig/database/types"
)

// AddExecution appends to the execution history
func (d *MetadataStoreSqlite) AddExecution(
	txn types.Txn,
	execution *models.Execution,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(execution).Error
}

// GetExecutions returns the execution history of a unit, oldest first
func (d *MetadataStoreSqlite) GetExecutions(
	txn types.Txn,
	unitID uint64,
) ([]models.Execution, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Execution
	result := db.Where("unit_id = ?", types.Uint64(unitID)).
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

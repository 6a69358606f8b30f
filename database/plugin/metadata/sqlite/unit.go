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
	"errors"

	"github.com/blinklabs-io/supersig/database/models"
	"github.com/blinklabs-io/supersig/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUnit returns the index row for a unit, or nil if it does not exist
func (d *MetadataStoreSqlite) GetUnit(
	txn types.Txn,
	unitID uint64,
) (*models.Unit, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Unit
	result := db.Where("unit_id = ?", types.Uint64(unitID)).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// SetUnit creates or updates the index row for a unit
func (d *MetadataStoreSqlite) SetUnit(txn types.Txn, unit *models.Unit) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "creator"}),
	}).Create(unit).Error
}

// DeleteUnit removes a unit and all of its member index rows. Execution
// history is kept.
func (d *MetadataStoreSqlite) DeleteUnit(txn types.Txn, unitID uint64) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Where("unit_id = ?", types.Uint64(unitID)).Delete(&models.Member{}); result.Error != nil {
		return result.Error
	}
	return db.Where("unit_id = ?", types.Uint64(unitID)).Delete(&models.Unit{}).Error
}

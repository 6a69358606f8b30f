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
	"slices"

	"github.com/blinklabs-io/supersig/database/models"
	"github.com/blinklabs-io/supersig/database/types"
	"gorm.io/gorm/clause"
)

// SetMember upserts a member index row
func (d *MetadataStoreSqlite) SetMember(
	txn types.Txn,
	unitID uint64,
	account []byte,
	role uint8,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unit_id"}, {Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&models.Member{
		UnitID:  types.Uint64(unitID),
		Account: account,
		Role:    role,
	}).Error
}

// DeleteMember removes a member index row
func (d *MetadataStoreSqlite) DeleteMember(
	txn types.Txn,
	unitID uint64,
	account []byte,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where(
		"unit_id = ? AND account = ?",
		types.Uint64(unitID),
		account,
	).Delete(&models.Member{}).Error
}

// GetUnitsForAccount returns the IDs of every unit the account belongs to,
// in ascending order
func (d *MetadataStoreSqlite) GetUnitsForAccount(
	txn types.Txn,
	account []byte,
) ([]uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var rows []models.Member
	if result := db.Where("account = ?", account).Find(&rows); result.Error != nil {
		return nil, result.Error
	}
	ret := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, uint64(row.UnitID))
	}
	// unit_id is stored as text, so order numerically here
	slices.Sort(ret)
	return ret, nil
}

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

package models

import (
	"time"

	"github.com/blinklabs-io/supersig/database/types"
)

// Unit indexes a live governed unit for reporting
type Unit struct {
	CreatedAt time.Time
	Address   []byte       `gorm:"uniqueIndex;size:32;not null"`
	Creator   []byte       `gorm:"size:32;not null"`
	ID        uint         `gorm:"primarykey"`
	UnitID    types.Uint64 `gorm:"type:text;uniqueIndex;not null"`
}

func (Unit) TableName() string {
	return "unit"
}

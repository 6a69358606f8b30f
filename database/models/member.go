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

import "github.com/blinklabs-io/supersig/database/types"

// Member mirrors a membership row so units can be looked up by account
type Member struct {
	Account []byte       `gorm:"uniqueIndex:idx_member_unique,priority:2;index;size:32;not null"`
	ID      uint         `gorm:"primarykey"`
	UnitID  types.Uint64 `gorm:"type:text;uniqueIndex:idx_member_unique,priority:1;not null"`
	Role    uint8        `gorm:"not null"`
}

func (Member) TableName() string {
	return "member"
}

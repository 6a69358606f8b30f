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

// Execution records the outcome of a call that reached the approval
// threshold. Rows outlive the unit they belong to.
type Execution struct {
	ExecutedAt time.Time
	Provider   []byte       `gorm:"size:32;not null"`
	Error      string       `gorm:"size:512"`
	ID         uint         `gorm:"primarykey"`
	UnitID     types.Uint64 `gorm:"type:text;index:idx_execution_call,priority:1;not null"`
	CallID     types.Uint64 `gorm:"type:text;index:idx_execution_call,priority:2;not null"`
	Success    bool         `gorm:"not null"`
}

func (Execution) TableName() string {
	return "execution"
}

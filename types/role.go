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

package types

import (
	"fmt"
	"strings"
)

// Role is the relationship between an account and a unit. The zero value
// is RoleNotMember, which is never persisted.
type Role uint8

const (
	RoleNotMember Role = iota
	RoleStandard
	RoleMaster
)

func (r Role) String() string {
	switch r {
	case RoleStandard:
		return "standard"
	case RoleMaster:
		return "master"
	case RoleNotMember:
		return "not_member"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// IsMember reports whether the role grants membership
func (r Role) IsMember() bool {
	return r == RoleStandard || r == RoleMaster
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// ParseRole parses the text form of a role
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "":
		return RoleStandard, nil
	case "master":
		return RoleMaster, nil
	case "not_member", "notmember":
		return RoleNotMember, nil
	}
	return RoleNotMember, fmt.Errorf("unknown role: %q", s)
}

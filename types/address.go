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
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// AddressLen is the size in bytes of an account address
	AddressLen = 32

	// AddressHRP is the bech32 human readable part for account addresses
	AddressHRP = "ss"
)

// Address identifies an account on the ledger. Governed units are accounts
// too; their addresses are derived from the unit ID.
type Address [AddressLen]byte

// NewAddress builds an address from raw bytes
func NewAddress(b []byte) (Address, error) {
	var ret Address
	if len(b) != AddressLen {
		return ret, fmt.Errorf(
			"invalid address length: %d, expected %d",
			len(b),
			AddressLen,
		)
	}
	copy(ret[:], b)
	return ret, nil
}

// ParseAddress accepts either the bech32 form or 64 hex characters
func ParseAddress(s string) (Address, error) {
	if len(s) == AddressLen*2 {
		if raw, err := hex.DecodeString(s); err == nil {
			return NewAddress(raw)
		}
	}
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("decode address: %w", err)
	}
	if hrp != AddressHRP {
		return Address{}, fmt.Errorf("unexpected address prefix: %s", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("decode address: %w", err)
	}
	return NewAddress(raw)
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String returns the bech32 encoding of the address
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return a.Hex()
	}
	ret, err := bech32.Encode(AddressHRP, conv)
	if err != nil {
		return a.Hex()
	}
	return ret
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return errors.New("empty address")
	}
	tmp, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

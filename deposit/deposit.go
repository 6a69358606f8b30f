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

// Package deposit computes byte-proportional deposits and refunds
package deposit

import (
	"math/bits"

	"github.com/blinklabs-io/supersig/types"
)

// AccountSize is the storage cost in bytes of one member row
const AccountSize = types.AddressLen

// Calculator prices storage in units of the ledger currency per byte
type Calculator struct {
	DepositPerByte uint64
}

func NewCalculator(depositPerByte uint64) Calculator {
	return Calculator{DepositPerByte: depositPerByte}
}

// ComputeDeposit returns byteSize * DepositPerByte
func (c Calculator) ComputeDeposit(byteSize uint64) (uint64, error) {
	hi, lo := bits.Mul64(byteSize, c.DepositPerByte)
	if hi != 0 {
		return 0, types.ErrOverflow
	}
	return lo, nil
}

// MemberDeposit returns the deposit for storing count member rows
func (c Calculator) MemberDeposit(count uint64) (uint64, error) {
	hi, size := bits.Mul64(count, AccountSize)
	if hi != 0 {
		return 0, types.ErrOverflow
	}
	return c.ComputeDeposit(size)
}

// ComputeProportionalRefund returns floor(totalDeposit/initialCount) * removed.
// A unit always has at least one member, so a zero initialCount means the
// stored aggregates are already corrupt.
func ComputeProportionalRefund(
	totalDeposit uint64,
	initialCount uint32,
	removed uint32,
) uint64 {
	if initialCount == 0 {
		panic("deposit: proportional refund with zero member count")
	}
	if removed > initialCount {
		panic("deposit: refund for more members than the unit holds")
	}
	// per*removed <= totalDeposit because removed <= initialCount
	per := totalDeposit / uint64(initialCount)
	return per * uint64(removed)
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"github.com/holiman/uint256"
)

// Fees are 64-bit fixed point fractions: a fee of f charges f / 2^64 of
// the amount.

// ComputeFee returns ceil(amount * fee / 2^64).
func ComputeFee(amount *uint256.Int, fee uint64) (*uint256.Int, error) {
	return MulDivRoundingUp(amount, uint256.NewInt(fee), q64)
}

// AmountBeforeFee returns the smallest amount x such that
// x - ComputeFee(x, fee) covers afterFee.
func AmountBeforeFee(afterFee *uint256.Int, fee uint64) (*uint256.Int, error) {
	denominator := new(uint256.Int).Sub(q64, uint256.NewInt(fee))
	result, err := MulDivRoundingUp(afterFee, q64, denominator)
	if err != nil {
		return nil, err
	}
	if !FitsUint128(result) {
		return nil, ErrAmountOverflow
	}
	return result, nil
}

// FeeFromBips converts a fee in basis points (1/10000) to the 64-bit
// fixed point representation, rounding down.
func FeeFromBips(bips uint64) uint64 {
	if bips >= 10000 {
		return ^uint64(0)
	}
	f := new(uint256.Int).Mul(q64, uint256.NewInt(bips))
	f.Div(f, uint256.NewInt(10000))
	return f.Uint64()
}

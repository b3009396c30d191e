// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"github.com/holiman/uint256"
)

func sortRatios(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	if a.Gt(b) {
		return b, a
	}
	return a, b
}

// Amount0Delta returns the amount of token0 held by liquidity between the
// sqrt ratios a and b (64.128 fixed point, any order):
//
//	liquidity * (upper - lower) / (upper * lower)
func Amount0Delta(a, b, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lower, upper := sortRatios(a, b)
	if liquidity.IsZero() || lower.Eq(upper) {
		return new(uint256.Int), nil
	}
	if lower.IsZero() {
		return nil, ErrDivisionByZero
	}

	numerator := new(uint256.Int).Lsh(liquidity, 128)
	diff := new(uint256.Int).Sub(upper, lower)

	var (
		result *uint256.Int
		err    error
	)
	if roundUp {
		result, err = MulDivRoundingUp(numerator, diff, upper)
		if err != nil {
			return nil, err
		}
		result = divRoundingUp(result, lower)
	} else {
		result, err = MulDiv(numerator, diff, upper)
		if err != nil {
			return nil, err
		}
		result.Div(result, lower)
	}
	if !FitsUint128(result) {
		return nil, ErrAmountOverflow
	}
	return result, nil
}

// Amount1Delta returns the amount of token1 held by liquidity between the
// sqrt ratios a and b:
//
//	liquidity * (upper - lower) / 2^128
func Amount1Delta(a, b, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lower, upper := sortRatios(a, b)
	if liquidity.IsZero() || lower.Eq(upper) {
		return new(uint256.Int), nil
	}

	diff := new(uint256.Int).Sub(upper, lower)
	var (
		result *uint256.Int
		err    error
	)
	if roundUp {
		result, err = MulDivRoundingUp(liquidity, diff, q128)
	} else {
		result, err = MulDiv(liquidity, diff, q128)
	}
	if err != nil {
		return nil, ErrAmountOverflow
	}
	if !FitsUint128(result) {
		return nil, ErrAmountOverflow
	}
	return result, nil
}

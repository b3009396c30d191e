// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixedpoint implements the pure math kernels of the AMM core:
// tick to sqrt-ratio conversion, the compact sqrt-ratio encoding, token
// amount deltas for a liquidity between two prices, price movement from
// an amount, and fee arithmetic. Every function rounds in the direction
// requested by the caller and fails instead of truncating.
package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidTick       = errors.New("tick out of range")
	ErrInvalidSqrtRatio  = errors.New("sqrt ratio out of range")
	ErrSqrtRatioOverflow = errors.New("sqrt ratio not representable")
	ErrAmountOverflow    = errors.New("amount exceeds 128 bits")
	ErrMulDivOverflow    = errors.New("mulDiv result exceeds 256 bits")
	ErrDivisionByZero    = errors.New("division by zero")
)

var (
	one     = uint256.NewInt(1)
	q64     = new(uint256.Int).Lsh(one, 64)
	q128    = new(uint256.Int).Lsh(one, 128)
	maxU128 = new(uint256.Int).Sub(q128, one)
	maxU256 = new(uint256.Int).SetAllOne()
)

// Q128 returns 2^128, the unit of the X128 fixed point representation.
func Q128() *uint256.Int {
	return new(uint256.Int).Set(q128)
}

// MaxUint128 returns 2^128 - 1.
func MaxUint128() *uint256.Int {
	return new(uint256.Int).Set(maxU128)
}

// MulDiv computes x*y/d with a 512-bit intermediate product, rounding down.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	return mulDiv(x, y, d, false)
}

// MulDivRoundingUp computes ceil(x*y/d) with a 512-bit intermediate product.
func MulDivRoundingUp(x, y, d *uint256.Int) (*uint256.Int, error) {
	return mulDiv(x, y, d, true)
}

func mulDiv(x, y, d *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrMulDivOverflow
	}
	if roundUp && !new(uint256.Int).MulMod(x, y, d).IsZero() {
		if z.Eq(maxU256) {
			return nil, ErrMulDivOverflow
		}
		z.AddUint64(z, 1)
	}
	return z, nil
}

// divRoundingUp returns ceil(x/d); d must be non-zero.
func divRoundingUp(x, d *uint256.Int) *uint256.Int {
	q, r := new(uint256.Int).DivMod(x, d, new(uint256.Int))
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

// FitsUint128 reports whether x < 2^128.
func FitsUint128(x *uint256.Int) bool {
	return x.BitLen() <= 128
}

// ToUint256 converts a non-negative big.Int that fits 256 bits.
func ToUint256(x *big.Int) (*uint256.Int, bool) {
	if x.Sign() < 0 {
		return nil, false
	}
	v, overflow := uint256.FromBig(x)
	return v, !overflow
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// NextSqrtRatioFromAmount0 returns the price reached after amount of token0
// is added to (positive) or removed from (negative) the pool at price s
// with the given liquidity. The result is rounded up, so the price never
// moves further than the amount pays for. ok is false when the price would
// leave the representable range.
func NextSqrtRatioFromAmount0(s SqrtRatio, liquidity *uint256.Int, amount *big.Int) (SqrtRatio, bool) {
	if amount.Sign() == 0 {
		return s, true
	}
	if liquidity.IsZero() {
		return SqrtRatio{}, false
	}
	mag, ok := ToUint256(new(big.Int).Abs(amount))
	if !ok || !FitsUint128(mag) {
		return SqrtRatio{}, false
	}

	price := s.ToFixed()
	numerator := new(uint256.Int).Lsh(liquidity, 128)

	var next *uint256.Int
	if amount.Sign() > 0 {
		product, overflow := new(uint256.Int).MulOverflow(mag, price)
		var denominator *uint256.Int
		if !overflow {
			denominator, overflow = new(uint256.Int).AddOverflow(numerator, product)
		}
		if overflow {
			// numerator / (numerator / price + amount)
			alt := new(uint256.Int).Div(numerator, price)
			alt.Add(alt, mag)
			next = divRoundingUp(numerator, alt)
		} else {
			var err error
			next, err = MulDivRoundingUp(numerator, price, denominator)
			if err != nil {
				return SqrtRatio{}, false
			}
		}
	} else {
		product, overflow := new(uint256.Int).MulOverflow(mag, price)
		if overflow || !product.Lt(numerator) {
			return SqrtRatio{}, false
		}
		denominator := new(uint256.Int).Sub(numerator, product)
		var err error
		next, err = MulDivRoundingUp(numerator, price, denominator)
		if err != nil {
			return SqrtRatio{}, false
		}
	}

	r, err := NewSqrtRatio(next, true)
	if err != nil {
		return SqrtRatio{}, false
	}
	return r, true
}

// NextSqrtRatioFromAmount1 returns the price reached after amount of token1
// is added to (positive) or removed from (negative) the pool. The result is
// rounded down.
func NextSqrtRatioFromAmount1(s SqrtRatio, liquidity *uint256.Int, amount *big.Int) (SqrtRatio, bool) {
	if amount.Sign() == 0 {
		return s, true
	}
	if liquidity.IsZero() {
		return SqrtRatio{}, false
	}
	mag, ok := ToUint256(new(big.Int).Abs(amount))
	if !ok || !FitsUint128(mag) {
		return SqrtRatio{}, false
	}

	price := s.ToFixed()
	shifted := new(uint256.Int).Lsh(mag, 128)

	var next *uint256.Int
	if amount.Sign() > 0 {
		quotient := new(uint256.Int).Div(shifted, liquidity)
		sum, overflow := new(uint256.Int).AddOverflow(price, quotient)
		if overflow {
			return SqrtRatio{}, false
		}
		next = sum
	} else {
		quotient := divRoundingUp(shifted, liquidity)
		if !quotient.Lt(price) {
			return SqrtRatio{}, false
		}
		next = new(uint256.Int).Sub(price, quotient)
	}

	r, err := NewSqrtRatio(next, false)
	if err != nil {
		return SqrtRatio{}, false
	}
	return r, true
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the smallest tick whose sqrt ratio is representable.
	MinTick int32 = -887272
	// MaxTick is the largest tick whose sqrt ratio is representable.
	MaxTick int32 = 887272
)

// tickMultipliers[i] is 2^128 / sqrt(1.0001)^(2^i), rounded.
var tickMultipliers = [20]*uint256.Int{
	uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
	uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
	uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
	uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
	uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
	uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
	uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
	uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
	uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
	uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
	uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
}

var (
	// MinSqrtRatio is the sqrt ratio of MinTick.
	MinSqrtRatio = mustTickToSqrtRatio(MinTick)
	// MaxSqrtRatio is the sqrt ratio of MaxTick.
	MaxSqrtRatio = mustTickToSqrtRatio(MaxTick)
)

// TickToSqrtRatio returns sqrt(1.0001^tick) as a compact sqrt ratio,
// rounded down.
func TickToSqrtRatio(tick int32) (SqrtRatio, error) {
	fixed, err := TickToFixed(tick)
	if err != nil {
		return SqrtRatio{}, err
	}
	return NewSqrtRatio(fixed, false)
}

// TickToFixed returns sqrt(1.0001^tick) as a 64.128 fixed point value.
func TickToFixed(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTick, tick)
	}
	abs := uint32(tick)
	if tick < 0 {
		abs = uint32(-tick)
	}

	ratio := new(uint256.Int)
	if abs&1 != 0 {
		ratio.Set(tickMultipliers[0])
	} else {
		ratio.Set(q128)
	}
	for i := 1; i < len(tickMultipliers); i++ {
		if abs&(1<<i) != 0 {
			ratio.Mul(ratio, tickMultipliers[i])
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxU256, ratio)
	}
	return ratio, nil
}

// SqrtRatioToTick returns the greatest tick whose sqrt ratio is less than
// or equal to r.
func SqrtRatioToTick(r SqrtRatio) (int32, error) {
	return sqrtRatioToTick(r, TickToSqrtRatio)
}

func sqrtRatioToTick(r SqrtRatio, toRatio func(int32) (SqrtRatio, error)) (int32, error) {
	if r.Lt(MinSqrtRatio) || r.Gt(MaxSqrtRatio) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSqrtRatio, r)
	}
	target := r.ToFixed()

	// binary search for the last tick whose ratio is <= target
	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ratio, err := toRatio(mid)
		if err != nil {
			return 0, err
		}
		if ratio.ToFixed().Gt(target) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo, nil
}

func mustTickToSqrtRatio(tick int32) SqrtRatio {
	r, err := TickToSqrtRatio(tick)
	if err != nil {
		panic(err)
	}
	return r
}

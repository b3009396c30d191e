// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/ammcore/fixedpoint"
)

// All narrowing and widening of packed fields goes through this file.
// Signed sub-word fields are always read back with signExtend or
// readInt128/readInt256.

// signExtend interprets the low bits of v as a two's complement number.
func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// fitsInt128 reports whether -2^127 < x < 2^127. The lower bound is
// exclusive so that every representable value can be negated.
func fitsInt128(x *big.Int) bool {
	return x.Cmp(maxInt128) <= 0 && x.Cmp(minInt128) > 0
}

func checkInt128(x *big.Int, errKind error) error {
	if !fitsInt128(x) {
		return fmt.Errorf("%w: %s", errKind, x)
	}
	return nil
}

func fitsUint128(x *big.Int) bool {
	return x.Sign() >= 0 && x.Cmp(maxUint128) <= 0
}

// putUint128 writes the low 128 bits of v big-endian into 16 bytes.
func putUint128(dst []byte, v *uint256.Int) {
	binary.BigEndian.PutUint64(dst[0:8], v[1])
	binary.BigEndian.PutUint64(dst[8:16], v[0])
}

func readUint128(src []byte) *uint256.Int {
	return new(uint256.Int).SetBytes16(src[:16])
}

// putInt128 writes a value satisfying fitsInt128 as 16 bytes of two's
// complement.
func putInt128(dst []byte, v *big.Int) {
	u := new(uint256.Int)
	u.SetFromBig(new(big.Int).Abs(v))
	if v.Sign() < 0 {
		u.Neg(u)
	}
	putUint128(dst, u)
}

func readInt128(src []byte) *big.Int {
	v := new(big.Int).SetBytes(src[:16])
	if src[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return v
}

func putInt256(dst []byte, v *big.Int) {
	u := new(uint256.Int)
	u.SetFromBig(new(big.Int).Abs(v))
	if v.Sign() < 0 {
		u.Neg(u)
	}
	u.PutUint256(dst)
}

func readInt256(src []byte) *big.Int {
	u := new(uint256.Int).SetBytes32(src[:32])
	if u.Sign() < 0 {
		u.Neg(u)
		return new(big.Int).Neg(u.ToBig())
	}
	return u.ToBig()
}

// fitsInt256 reports whether x is a valid two's complement 256-bit value.
func fitsInt256(x *big.Int) bool {
	return x.BitLen() < 256
}

// =========================================================================
// Record encodings
// =========================================================================

const (
	poolStateSize        = fixedpoint.SqrtRatioBytes + 4 + 16
	feesPerLiquiditySize = 64
	tickInfoSize         = 16 + 16 + feesPerLiquiditySize
	positionSize         = 16 + feesPerLiquiditySize + 16 + 16
	savedBalancesSize    = 32
)

// encodePoolState packs sqrt ratio (12) | tick (4) | liquidity (16).
func encodePoolState(s PoolState) []byte {
	out := make([]byte, poolStateSize)
	ratio := s.SqrtRatio.Bytes()
	copy(out[:12], ratio[:])
	binary.BigEndian.PutUint32(out[12:16], uint32(s.Tick))
	putUint128(out[16:32], s.Liquidity)
	return out
}

func decodePoolState(b []byte) PoolState {
	if len(b) != poolStateSize {
		return PoolState{Liquidity: new(uint256.Int)}
	}
	return PoolState{
		SqrtRatio: fixedpoint.SqrtRatioFromBytes(b[:12]),
		Tick:      int32(signExtend(uint64(binary.BigEndian.Uint32(b[12:16])), 32)),
		Liquidity: readUint128(b[16:32]),
	}
}

func encodeFeesPerLiquidity(f FeesPerLiquidity) []byte {
	out := make([]byte, feesPerLiquiditySize)
	f.Value0.PutUint256(out[:32])
	f.Value1.PutUint256(out[32:64])
	return out
}

func decodeFeesPerLiquidity(b []byte) FeesPerLiquidity {
	if len(b) != feesPerLiquiditySize {
		return newFeesPerLiquidity()
	}
	return FeesPerLiquidity{
		Value0: new(uint256.Int).SetBytes32(b[:32]),
		Value1: new(uint256.Int).SetBytes32(b[32:64]),
	}
}

// encodeTickInfo packs net (16, signed) | gross (16) | fees outside (64).
func encodeTickInfo(t TickInfo) []byte {
	out := make([]byte, tickInfoSize)
	putInt128(out[:16], t.LiquidityNet)
	putUint128(out[16:32], t.LiquidityGross)
	copy(out[32:], encodeFeesPerLiquidity(t.FeesOutside))
	return out
}

func decodeTickInfo(b []byte) TickInfo {
	if len(b) != tickInfoSize {
		return newTickInfo()
	}
	return TickInfo{
		LiquidityNet:   readInt128(b[:16]),
		LiquidityGross: readUint128(b[16:32]),
		FeesOutside:    decodeFeesPerLiquidity(b[32:]),
	}
}

// encodePosition packs liquidity (16) | fees inside last (64) | owed (16+16).
func encodePosition(p Position) []byte {
	out := make([]byte, positionSize)
	putUint128(out[:16], p.Liquidity)
	copy(out[16:80], encodeFeesPerLiquidity(p.FeesPerLiquidityInsideLast))
	putUint128(out[80:96], p.FeesOwed0)
	putUint128(out[96:112], p.FeesOwed1)
	return out
}

func decodePosition(b []byte) Position {
	if len(b) != positionSize {
		return newPosition()
	}
	return Position{
		Liquidity:                  readUint128(b[:16]),
		FeesPerLiquidityInsideLast: decodeFeesPerLiquidity(b[16:80]),
		FeesOwed0:                  readUint128(b[80:96]),
		FeesOwed1:                  readUint128(b[96:112]),
	}
}

// encodeSavedBalances packs two unsigned 128-bit balances.
func encodeSavedBalances(b0, b1 *uint256.Int) []byte {
	out := make([]byte, savedBalancesSize)
	putUint128(out[:16], b0)
	putUint128(out[16:32], b1)
	return out
}

func decodeSavedBalances(b []byte) (*uint256.Int, *uint256.Int) {
	if len(b) != savedBalancesSize {
		return new(uint256.Int), new(uint256.Int)
	}
	return readUint128(b[:16]), readUint128(b[16:32])
}

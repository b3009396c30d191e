// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"github.com/holiman/uint256"
)

const (
	mantissaBits = 94
	regionBits   = 2
	// SqrtRatioBytes is the width of a packed SqrtRatio.
	SqrtRatioBytes = 12
)

// regionShift[r] is the left shift applied to the mantissa of region r to
// produce the 64.128 fixed point value.
var regionShift = [4]uint{2, 34, 66, 98}

var mantissaLimit = new(uint256.Int).Lsh(one, mantissaBits)

// SqrtRatio is the compact 96-bit encoding of a square root price.
//
// Bits 94 and 95 select one of four regions and the low 94 bits hold a
// mantissa. The decoded value is a 64.128 fixed point number equal to
// mantissa << regionShift[region]. The zero value marks an uninitialized
// pool.
type SqrtRatio uint256.Int

// NewSqrtRatio encodes a 64.128 fixed point value, rounding up or down to
// the nearest representable value.
func NewSqrtRatio(x *uint256.Int, roundUp bool) (SqrtRatio, error) {
	for region, shift := range regionShift {
		if x.BitLen() > int(shift)+mantissaBits {
			continue
		}
		m := new(uint256.Int).Rsh(x, shift)
		if roundUp && !new(uint256.Int).Lsh(m, shift).Eq(x) {
			m.AddUint64(m, 1)
		}
		if !m.Lt(mantissaLimit) {
			// carry out of the mantissa, retry in the next region
			continue
		}
		m[1] |= uint64(region) << (mantissaBits - 64)
		return SqrtRatio(*m), nil
	}
	return SqrtRatio{}, ErrSqrtRatioOverflow
}

// SqrtRatioFromBytes decodes a big-endian packed compact value.
func SqrtRatioFromBytes(b []byte) SqrtRatio {
	var v uint256.Int
	v.SetBytes(b)
	return SqrtRatio(v)
}

// Bytes returns the 12-byte big-endian packing.
func (r SqrtRatio) Bytes() [SqrtRatioBytes]byte {
	v := uint256.Int(r)
	var out [SqrtRatioBytes]byte
	full := v.Bytes32()
	copy(out[:], full[32-SqrtRatioBytes:])
	return out
}

// ToFixed decodes the compact value into a 64.128 fixed point number.
func (r SqrtRatio) ToFixed() *uint256.Int {
	v := uint256.Int(r)
	region := (v[1] >> (mantissaBits - 64)) & (1<<regionBits - 1)
	m := new(uint256.Int).Set(&v)
	m[1] &= 1<<(mantissaBits-64) - 1
	return m.Lsh(m, regionShift[region])
}

// IsZero reports whether r is the zero value.
func (r SqrtRatio) IsZero() bool {
	v := uint256.Int(r)
	return v.IsZero()
}

// Cmp compares the decoded values of r and o.
func (r SqrtRatio) Cmp(o SqrtRatio) int {
	return r.ToFixed().Cmp(o.ToFixed())
}

// Lt reports whether r decodes to a smaller value than o.
func (r SqrtRatio) Lt(o SqrtRatio) bool {
	return r.Cmp(o) < 0
}

// Gt reports whether r decodes to a larger value than o.
func (r SqrtRatio) Gt(o SqrtRatio) bool {
	return r.Cmp(o) > 0
}

// Canonical re-encodes r, so that equal prices compare equal with ==.
func (r SqrtRatio) Canonical() SqrtRatio {
	c, err := NewSqrtRatio(r.ToFixed(), false)
	if err != nil {
		return r
	}
	return c
}

func (r SqrtRatio) String() string {
	return r.ToFixed().Hex()
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dex implements a singleton AMM core with flash accounting.
// All pools live in one PoolManager. Callers open a lock, run any number of
// swaps, position updates and fee collections against it, and the lock only
// closes once every token debt accrued under its id has been paid or
// withdrawn. Pools are either concentrated liquidity pools with per-tick
// bookkeeping or stableswap pools with one fixed active range, and may name
// an extension whose hooks run around pool operations.
package dex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/ammcore/fixedpoint"
)

// PoolManagerAddress is the default address the core holds assets under.
const PoolManagerAddress = "0x0000000000000000000000000000000000009010"

// NativeToken is the token address of the chain's native asset.
var NativeToken = common.Address{}

const (
	// MaxTickSpacing bounds the tick spacing of concentrated pools.
	MaxTickSpacing int32 = 698605
	// MaxAmplification bounds the stableswap amplification factor.
	MaxAmplification uint8 = 16

	concentratedFlag uint32 = 1 << 31
)

var (
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// =========================================================================
// Pool configuration
// =========================================================================

// PoolConfig is the immutable configuration of a pool. It packs into 32
// bytes: extension (20) | fee (8) | type config (4).
//
// The type config of a concentrated pool has bit 31 set and the tick
// spacing in the low 31 bits. A stableswap pool keeps the amplification in
// bits 24-30 and a signed 24-bit center tick in bits 0-23. An all-zero type
// config is a full range pool.
type PoolConfig struct {
	Extension common.Address
	// Fee is the fraction of the input charged as fee, in units of 2^-64.
	Fee uint64

	typeConfig uint32
}

// NewConcentratedPoolConfig returns the config of a concentrated pool.
func NewConcentratedPoolConfig(fee uint64, tickSpacing int32, extension common.Address) PoolConfig {
	return PoolConfig{
		Extension:  extension,
		Fee:        fee,
		typeConfig: concentratedFlag | (uint32(tickSpacing) &^ concentratedFlag),
	}
}

// NewStableswapPoolConfig returns the config of a stableswap pool whose
// active range is centered on centerTick and narrows with amplification.
func NewStableswapPoolConfig(fee uint64, amplification uint8, centerTick int32, extension common.Address) PoolConfig {
	return PoolConfig{
		Extension:  extension,
		Fee:        fee,
		typeConfig: uint32(amplification&0x7f)<<24 | uint32(centerTick)&0xffffff,
	}
}

// NewFullRangePoolConfig returns the config of a pool providing liquidity
// over every tick.
func NewFullRangePoolConfig(fee uint64, extension common.Address) PoolConfig {
	return PoolConfig{Extension: extension, Fee: fee}
}

// IsConcentrated reports whether the pool uses per-tick liquidity.
func (c PoolConfig) IsConcentrated() bool {
	return c.typeConfig&concentratedFlag != 0
}

// TickSpacing is only meaningful for concentrated pools.
func (c PoolConfig) TickSpacing() int32 {
	return int32(c.typeConfig &^ concentratedFlag)
}

func (c PoolConfig) Amplification() uint8 {
	return uint8(c.typeConfig>>24) & 0x7f
}

// CenterTick returns the sign extended center of a stableswap range.
func (c PoolConfig) CenterTick() int32 {
	return int32(signExtend(uint64(c.typeConfig&0xffffff), 24))
}

// IsFullRange reports whether the pool is a stableswap pool over all ticks.
func (c PoolConfig) IsFullRange() bool {
	return c.typeConfig == 0
}

// ActiveRange returns the fixed tick range holding all liquidity of a
// stableswap pool.
func (c PoolConfig) ActiveRange() (lower, upper int32) {
	width := fixedpoint.MaxTick >> c.Amplification()
	center := c.CenterTick()
	lower, upper = center-width, center+width
	if lower < fixedpoint.MinTick {
		lower = fixedpoint.MinTick
	}
	if upper > fixedpoint.MaxTick {
		upper = fixedpoint.MaxTick
	}
	return lower, upper
}

// Validate checks the curve parameters.
func (c PoolConfig) Validate() error {
	if c.IsConcentrated() {
		if s := c.TickSpacing(); s <= 0 || s > MaxTickSpacing {
			return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, s)
		}
		return nil
	}
	if c.Amplification() > MaxAmplification {
		return fmt.Errorf("%w: %d", ErrInvalidAmplification, c.Amplification())
	}
	if center := c.CenterTick(); center < fixedpoint.MinTick || center > fixedpoint.MaxTick {
		return fmt.Errorf("%w: center %d", ErrInvalidTick, center)
	}
	return nil
}

// Pack returns the 32-byte encoding.
func (c PoolConfig) Pack() [32]byte {
	var out [32]byte
	copy(out[:20], c.Extension[:])
	binary.BigEndian.PutUint64(out[20:28], c.Fee)
	binary.BigEndian.PutUint32(out[28:32], c.typeConfig)
	return out
}

// UnpackPoolConfig decodes a 32-byte encoding.
func UnpackPoolConfig(b [32]byte) PoolConfig {
	return PoolConfig{
		Extension:  common.BytesToAddress(b[:20]),
		Fee:        binary.BigEndian.Uint64(b[20:28]),
		typeConfig: binary.BigEndian.Uint32(b[28:32]),
	}
}

// =========================================================================
// Pool identity
// =========================================================================

// PoolID is the BLAKE3 hash of a packed PoolKey.
type PoolID [32]byte

func (id PoolID) Hex() string {
	return common.Hash(id).Hex()
}

// PoolKey uniquely identifies a pool.
type PoolKey struct {
	Token0 common.Address
	Token1 common.Address
	Config PoolConfig
}

// Validate checks token ordering and the config.
func (k PoolKey) Validate() error {
	if bytes.Compare(k.Token0[:], k.Token1[:]) >= 0 {
		return fmt.Errorf("%w: %s >= %s", ErrTokensNotSorted, k.Token0.Hex(), k.Token1.Hex())
	}
	return k.Config.Validate()
}

// Pack returns token0 | token1 | config.
func (k PoolKey) Pack() [72]byte {
	var out [72]byte
	copy(out[:20], k.Token0[:])
	copy(out[20:40], k.Token1[:])
	cfg := k.Config.Pack()
	copy(out[40:], cfg[:])
	return out
}

// ID returns the unique pool identifier.
func (k PoolKey) ID() PoolID {
	packed := k.Pack()
	h := blake3.New()
	h.Write(packed[:])
	var id PoolID
	h.Digest().Read(id[:])
	return id
}

// =========================================================================
// Pool state
// =========================================================================

// PoolState is the price and active liquidity of a pool.
type PoolState struct {
	SqrtRatio fixedpoint.SqrtRatio
	Tick      int32
	Liquidity *uint256.Int
}

// IsInitialized returns true if the pool has a price.
func (s PoolState) IsInitialized() bool {
	return !s.SqrtRatio.IsZero()
}

// FeesPerLiquidity is a pair of X128 fees-per-liquidity accumulators. All
// arithmetic on them wraps modulo 2^256.
type FeesPerLiquidity struct {
	Value0 *uint256.Int
	Value1 *uint256.Int
}

func newFeesPerLiquidity() FeesPerLiquidity {
	return FeesPerLiquidity{Value0: new(uint256.Int), Value1: new(uint256.Int)}
}

// Sub returns f - o with wraparound.
func (f FeesPerLiquidity) Sub(o FeesPerLiquidity) FeesPerLiquidity {
	return FeesPerLiquidity{
		Value0: new(uint256.Int).Sub(f.Value0, o.Value0),
		Value1: new(uint256.Int).Sub(f.Value1, o.Value1),
	}
}

// Clone returns a deep copy.
func (f FeesPerLiquidity) Clone() FeesPerLiquidity {
	return FeesPerLiquidity{Value0: f.Value0.Clone(), Value1: f.Value1.Clone()}
}

// TickInfo is the per-tick record of a concentrated pool.
type TickInfo struct {
	// LiquidityNet is added to active liquidity when the price crosses the
	// tick upward and subtracted when it crosses downward.
	LiquidityNet *big.Int
	// LiquidityGross is the total liquidity referencing the tick.
	LiquidityGross *uint256.Int
	// FeesOutside is the fees-per-liquidity checkpoint on the side of the
	// tick away from the current price.
	FeesOutside FeesPerLiquidity
}

func newTickInfo() TickInfo {
	return TickInfo{
		LiquidityNet:   new(big.Int),
		LiquidityGross: new(uint256.Int),
		FeesOutside:    newFeesPerLiquidity(),
	}
}

// =========================================================================
// Positions
// =========================================================================

// PositionID identifies a position of an owner within a pool.
type PositionID struct {
	Salt  [24]byte
	Lower int32
	Upper int32
}

// Pack returns salt | lower | upper.
func (p PositionID) Pack() [32]byte {
	var out [32]byte
	copy(out[:24], p.Salt[:])
	binary.BigEndian.PutUint32(out[24:28], uint32(p.Lower))
	binary.BigEndian.PutUint32(out[28:32], uint32(p.Upper))
	return out
}

// UnpackPositionID decodes a 32-byte encoding.
func UnpackPositionID(b [32]byte) PositionID {
	var p PositionID
	copy(p.Salt[:], b[:24])
	p.Lower = int32(binary.BigEndian.Uint32(b[24:28]))
	p.Upper = int32(binary.BigEndian.Uint32(b[28:32]))
	return p
}

// Position is a liquidity position with its fee snapshot.
type Position struct {
	Liquidity *uint256.Int
	// FeesPerLiquidityInsideLast is the fees-per-liquidity inside the
	// position's range when it was last updated.
	FeesPerLiquidityInsideLast FeesPerLiquidity
	// FeesOwed0 and FeesOwed1 hold fees realized by liquidity changes that
	// have not been collected yet.
	FeesOwed0 *uint256.Int
	FeesOwed1 *uint256.Int
}

func newPosition() Position {
	return Position{
		Liquidity:                  new(uint256.Int),
		FeesPerLiquidityInsideLast: newFeesPerLiquidity(),
		FeesOwed0:                  new(uint256.Int),
		FeesOwed1:                  new(uint256.Int),
	}
}

// IsEmpty reports whether the position holds neither liquidity nor fees.
func (p Position) IsEmpty() bool {
	return p.Liquidity.IsZero() && p.FeesOwed0.IsZero() && p.FeesOwed1.IsZero()
}

// =========================================================================
// Balance deltas
// =========================================================================

// BalanceDelta is the signed token movement of an operation. Positive means
// the locker owes the pool, negative means the pool owes the locker.
type BalanceDelta struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// NewBalanceDelta creates a new balance delta.
func NewBalanceDelta(amount0, amount1 *big.Int) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Set(amount0),
		Amount1: new(big.Int).Set(amount1),
	}
}

// ZeroBalanceDelta returns a delta of zero for both tokens.
func ZeroBalanceDelta() BalanceDelta {
	return BalanceDelta{Amount0: new(big.Int), Amount1: new(big.Int)}
}

// Add returns the sum of two deltas.
func (d BalanceDelta) Add(other BalanceDelta) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Add(d.Amount0, other.Amount0),
		Amount1: new(big.Int).Add(d.Amount1, other.Amount1),
	}
}

// Negate returns the negated delta.
func (d BalanceDelta) Negate() BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Neg(d.Amount0),
		Amount1: new(big.Int).Neg(d.Amount1),
	}
}

// IsZero returns true if both amounts are zero.
func (d BalanceDelta) IsZero() bool {
	return d.Amount0.Sign() == 0 && d.Amount1.Sign() == 0
}

// =========================================================================
// Lockers
// =========================================================================

// Locker is the id and address authorized to act within an open lock.
type Locker struct {
	ID   uint32
	Addr common.Address
}

// Pack returns id (4) | address (20).
func (l Locker) Pack() [24]byte {
	var out [24]byte
	binary.BigEndian.PutUint32(out[:4], l.ID)
	copy(out[4:], l.Addr[:])
	return out
}

// UnpackLocker decodes a 24-byte encoding.
func UnpackLocker(b [24]byte) Locker {
	return Locker{
		ID:   binary.BigEndian.Uint32(b[:4]),
		Addr: common.BytesToAddress(b[4:]),
	}
}

// =========================================================================
// Swap parameters
// =========================================================================

// SwapParams describes a swap against one pool.
type SwapParams struct {
	// Amount of the specified token. Positive amounts are exact input,
	// negative amounts are exact output.
	Amount *big.Int
	// IsToken1 selects token1 as the specified token.
	IsToken1 bool
	// SqrtRatioLimit is the price at which the swap stops.
	SqrtRatioLimit fixedpoint.SqrtRatio
	// SkipAhead is the number of empty bitmap words the tick search may
	// skip before returning a step boundary.
	SkipAhead uint32
}

// IsExactOut reports whether the amount is an exact output.
func (p SwapParams) IsExactOut() bool {
	return p.Amount.Sign() < 0
}

// IsPriceIncreasing reports the direction the swap moves the price.
func (p SwapParams) IsPriceIncreasing() bool {
	return p.IsToken1 != p.IsExactOut()
}

// =========================================================================
// Errors
// =========================================================================

// Validation errors
var (
	ErrPoolNotInitialized     = errors.New("pool not initialized")
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrTokensNotSorted        = errors.New("tokens not sorted")
	ErrInvalidTickSpacing     = errors.New("invalid tick spacing")
	ErrInvalidAmplification   = errors.New("invalid amplification")
	ErrInvalidTick            = errors.New("invalid tick")
	ErrInvalidTickRange       = errors.New("invalid tick range")
	ErrBoundsNotAligned       = errors.New("bounds not aligned to tick spacing")
	ErrStableswapBounds       = errors.New("bounds must equal the stableswap range")
	ErrInvalidSqrtRatioLimit  = errors.New("invalid sqrt ratio limit")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrExtensionNotRegistered = errors.New("extension not registered")
	ErrExtensionRegistered    = errors.New("extension already registered")
	ErrExtensionMaskMismatch  = errors.New("extension address does not encode hook mask")
)

// Authorization errors
var (
	ErrNotLocker           = errors.New("caller is not the active locker")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNoCode              = errors.New("address has no code")
	ErrExtensionCallFailed = errors.New("extension call failed")
	ErrCallFailed          = errors.New("call failed")
)

// Accounting errors
var (
	ErrDebtsNotZeroed        = errors.New("debts not zeroed")
	ErrDebtOverflow          = errors.New("debt overflow")
	ErrSavedBalanceOverflow  = errors.New("saved balance overflow")
	ErrSwapAmountOverflow    = errors.New("swap amount overflow")
	ErrAmountOverflow        = errors.New("amount overflow")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrLiquidityOverflow     = errors.New("liquidity overflow")
	ErrMaxLiquidityPerTick   = errors.New("max liquidity per tick exceeded")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

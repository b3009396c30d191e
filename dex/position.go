// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/ammcore/fixedpoint"
)

// PositionFeesAndLiquidity is the current liquidity of a position and the
// fees it could collect right now.
type PositionFeesAndLiquidity struct {
	Liquidity *uint256.Int
	Fees0     *uint256.Int
	Fees1     *uint256.Int
}

// MaxLiquidityPerTick is the most gross liquidity a single tick may
// reference so that the sum over every usable tick fits in 128 bits.
func MaxLiquidityPerTick(tickSpacing int32) *uint256.Int {
	minTick := (fixedpoint.MinTick / tickSpacing) * tickSpacing
	maxTick := (fixedpoint.MaxTick / tickSpacing) * tickSpacing
	numTicks := uint64((maxTick-minTick)/tickSpacing) + 1
	return new(uint256.Int).Div(fixedpoint.MaxUint128(), uint256.NewInt(numTicks))
}

// validatePositionBounds checks lower and upper against the curve of cfg.
func validatePositionBounds(cfg PoolConfig, lower, upper int32) error {
	if !cfg.IsConcentrated() {
		l, u := cfg.ActiveRange()
		if lower != l || upper != u {
			return fmt.Errorf("%w: [%d, %d) != [%d, %d)", ErrStableswapBounds, lower, upper, l, u)
		}
		return nil
	}
	if lower >= upper || lower < fixedpoint.MinTick || upper > fixedpoint.MaxTick {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidTickRange, lower, upper)
	}
	if spacing := cfg.TickSpacing(); lower%spacing != 0 || upper%spacing != 0 {
		return fmt.Errorf("%w: [%d, %d) spacing %d", ErrBoundsNotAligned, lower, upper, spacing)
	}
	return nil
}

// UpdatePosition adds liquidityDelta to the position pid of the locker. A
// positive delta deposits tokens, a negative one withdraws them; the
// returned delta is added to the frame's debts. Fees earned since the last
// update are moved to the position's owed fees.
func (tx *Tx) UpdatePosition(key PoolKey, pid PositionID, liquidityDelta *big.Int) (BalanceDelta, error) {
	if err := tx.check(); err != nil {
		return BalanceDelta{}, err
	}
	var delta BalanceDelta
	err := tx.pm.atomic(func() error {
		var err error
		delta, err = tx.pm.updatePosition(tx.locker, key, pid, liquidityDelta)
		return err
	})
	if err != nil {
		return BalanceDelta{}, err
	}
	return delta, nil
}

func (pm *PoolManager) updatePosition(locker Locker, key PoolKey, pid PositionID, liquidityDelta *big.Int) (BalanceDelta, error) {
	if liquidityDelta == nil {
		return BalanceDelta{}, fmt.Errorf("%w: nil liquidity delta", ErrInvalidAmount)
	}
	if err := checkInt128(liquidityDelta, ErrLiquidityOverflow); err != nil {
		return BalanceDelta{}, err
	}
	if err := key.Validate(); err != nil {
		return BalanceDelta{}, err
	}
	if err := validatePositionBounds(key.Config, pid.Lower, pid.Upper); err != nil {
		return BalanceDelta{}, err
	}
	if err := pm.beforeUpdatePosition(locker, key, pid, liquidityDelta); err != nil {
		return BalanceDelta{}, err
	}

	id := key.ID()
	state, err := pm.initializedPoolState(id)
	if err != nil {
		return BalanceDelta{}, err
	}
	global, err := pm.loadPoolFees(id)
	if err != nil {
		return BalanceDelta{}, err
	}
	inside, err := pm.feesInside(id, key.Config, state.Tick, global, pid.Lower, pid.Upper)
	if err != nil {
		return BalanceDelta{}, err
	}

	pos, err := pm.loadPosition(id, locker.Addr, pid)
	if err != nil {
		return BalanceDelta{}, err
	}
	newLiquidity := new(big.Int).Add(pos.Liquidity.ToBig(), liquidityDelta)
	if newLiquidity.Sign() < 0 {
		return BalanceDelta{}, fmt.Errorf("%w: position has %s", ErrInsufficientLiquidity, pos.Liquidity)
	}
	if newLiquidity.Cmp(maxInt128) > 0 {
		return BalanceDelta{}, fmt.Errorf("%w: position liquidity %s", ErrLiquidityOverflow, newLiquidity)
	}

	delta := ZeroBalanceDelta()
	if liquidityDelta.Sign() != 0 {
		if delta, err = pm.liquidityAmounts(state.SqrtRatio, pid.Lower, pid.Upper, liquidityDelta); err != nil {
			return BalanceDelta{}, err
		}

		active := true
		if key.Config.IsConcentrated() {
			if err := pm.updateTick(id, key.Config.TickSpacing(), pid.Lower, liquidityDelta, false); err != nil {
				return BalanceDelta{}, err
			}
			if err := pm.updateTick(id, key.Config.TickSpacing(), pid.Upper, liquidityDelta, true); err != nil {
				return BalanceDelta{}, err
			}
			active = state.Tick >= pid.Lower && state.Tick < pid.Upper
		}
		if active {
			total := new(big.Int).Add(state.Liquidity.ToBig(), liquidityDelta)
			if !fitsUint128(total) {
				return BalanceDelta{}, fmt.Errorf("%w: pool liquidity %s", ErrLiquidityOverflow, total)
			}
			state.Liquidity.SetFromBig(total)
			pm.storePoolState(id, state)
		}
	}

	owed0, owed1, err := pendingFees(pos, inside)
	if err != nil {
		return BalanceDelta{}, err
	}
	pos.FeesOwed0, pos.FeesOwed1 = owed0, owed1
	pos.Liquidity.SetFromBig(newLiquidity)
	pos.FeesPerLiquidityInsideLast = inside
	pm.storePosition(id, locker.Addr, pid, pos)

	if err := pm.accountDebt(locker.ID, key.Token0, delta.Amount0); err != nil {
		return BalanceDelta{}, err
	}
	if err := pm.accountDebt(locker.ID, key.Token1, delta.Amount1); err != nil {
		return BalanceDelta{}, err
	}
	if err := pm.emitPositionUpdated(id, locker, pid, liquidityDelta, delta); err != nil {
		return BalanceDelta{}, err
	}
	if err := pm.afterUpdatePosition(locker, key, pid, liquidityDelta, delta); err != nil {
		return BalanceDelta{}, err
	}
	pm.metrics.positionUpdates.Inc()
	return delta, nil
}

// liquidityAmounts returns the token amounts backing liquidityDelta over
// [lower, upper) at price sqrtRatio. Deposits round up and withdrawals
// round down, both in favor of the pool.
func (pm *PoolManager) liquidityAmounts(sqrtRatio fixedpoint.SqrtRatio, lower, upper int32, liquidityDelta *big.Int) (BalanceDelta, error) {
	sqrtLower, err := pm.ticks.SqrtRatio(lower)
	if err != nil {
		return BalanceDelta{}, err
	}
	sqrtUpper, err := pm.ticks.SqrtRatio(upper)
	if err != nil {
		return BalanceDelta{}, err
	}
	roundUp := liquidityDelta.Sign() > 0
	liquidity, _ := fixedpoint.ToUint256(new(big.Int).Abs(liquidityDelta))

	amount0, amount1 := new(uint256.Int), new(uint256.Int)
	switch {
	case sqrtRatio.Cmp(sqrtLower) <= 0:
		amount0, err = amountDelta(false, sqrtLower, sqrtUpper, liquidity, roundUp)
	case sqrtRatio.Lt(sqrtUpper):
		if amount0, err = amountDelta(false, sqrtRatio, sqrtUpper, liquidity, roundUp); err != nil {
			break
		}
		amount1, err = amountDelta(true, sqrtLower, sqrtRatio, liquidity, roundUp)
	default:
		amount1, err = amountDelta(true, sqrtLower, sqrtUpper, liquidity, roundUp)
	}
	if err != nil {
		return BalanceDelta{}, err
	}

	delta := BalanceDelta{Amount0: amount0.ToBig(), Amount1: amount1.ToBig()}
	if !roundUp {
		delta = delta.Negate()
	}
	if !fitsInt128(delta.Amount0) || !fitsInt128(delta.Amount1) {
		return BalanceDelta{}, fmt.Errorf("%w: %s, %s", ErrAmountOverflow, delta.Amount0, delta.Amount1)
	}
	return delta, nil
}

// updateTick applies liquidityDelta to one bound of a position and flips
// the tick in the bitmap when its gross liquidity crosses zero.
func (pm *PoolManager) updateTick(id PoolID, spacing, tick int32, liquidityDelta *big.Int, upper bool) error {
	info, err := pm.loadTick(id, tick)
	if err != nil {
		return err
	}
	wasInitialized := !info.LiquidityGross.IsZero()

	gross := new(big.Int).Add(info.LiquidityGross.ToBig(), liquidityDelta)
	if gross.Sign() < 0 {
		return fmt.Errorf("%w: tick %d", ErrInsufficientLiquidity, tick)
	}
	if gross.Cmp(MaxLiquidityPerTick(spacing).ToBig()) > 0 {
		return fmt.Errorf("%w: tick %d", ErrMaxLiquidityPerTick, tick)
	}
	if upper {
		info.LiquidityNet.Sub(info.LiquidityNet, liquidityDelta)
	} else {
		info.LiquidityNet.Add(info.LiquidityNet, liquidityDelta)
	}
	info.LiquidityGross.SetFromBig(gross)

	if wasInitialized != (gross.Sign() != 0) {
		if err := pm.bitmap(id).FlipTick(tick, spacing); err != nil {
			return err
		}
	}
	pm.storeTick(id, tick, info)
	return nil
}

// feesInside returns the fees per liquidity earned inside [lower, upper).
// A stableswap pool only earns while the price is inside its single range,
// so its global accumulator already is the inside value.
func (pm *PoolManager) feesInside(id PoolID, cfg PoolConfig, tick int32, global FeesPerLiquidity, lower, upper int32) (FeesPerLiquidity, error) {
	if !cfg.IsConcentrated() {
		return global.Clone(), nil
	}
	lowerInfo, err := pm.loadTick(id, lower)
	if err != nil {
		return FeesPerLiquidity{}, err
	}
	upperInfo, err := pm.loadTick(id, upper)
	if err != nil {
		return FeesPerLiquidity{}, err
	}

	below := lowerInfo.FeesOutside
	if tick < lower {
		below = global.Sub(lowerInfo.FeesOutside)
	}
	above := upperInfo.FeesOutside
	if tick >= upper {
		above = global.Sub(upperInfo.FeesOutside)
	}
	return global.Sub(below).Sub(above), nil
}

// pendingFees returns the owed fees of pos once the growth from its last
// checkpoint to inside is realized. Owed amounts wrap at 128 bits.
func pendingFees(pos Position, inside FeesPerLiquidity) (*uint256.Int, *uint256.Int, error) {
	growth := inside.Sub(pos.FeesPerLiquidityInsideLast)
	q128 := fixedpoint.Q128()
	mask := fixedpoint.MaxUint128()

	earned0, err := fixedpoint.MulDiv(growth.Value0, pos.Liquidity, q128)
	if err != nil {
		return nil, nil, err
	}
	earned1, err := fixedpoint.MulDiv(growth.Value1, pos.Liquidity, q128)
	if err != nil {
		return nil, nil, err
	}
	owed0 := new(uint256.Int).Add(pos.FeesOwed0, earned0)
	owed0.And(owed0, mask)
	owed1 := new(uint256.Int).Add(pos.FeesOwed1, earned1)
	owed1.And(owed1, mask)
	return owed0, owed1, nil
}

// CollectFees pays out every fee owed to the position pid of the locker.
func (tx *Tx) CollectFees(key PoolKey, pid PositionID) (*uint256.Int, *uint256.Int, error) {
	if err := tx.check(); err != nil {
		return nil, nil, err
	}
	var amount0, amount1 *uint256.Int
	err := tx.pm.atomic(func() error {
		var err error
		amount0, amount1, err = tx.pm.collectFees(tx.locker, key, pid)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

func (pm *PoolManager) collectFees(locker Locker, key PoolKey, pid PositionID) (*uint256.Int, *uint256.Int, error) {
	if err := key.Validate(); err != nil {
		return nil, nil, err
	}
	if err := validatePositionBounds(key.Config, pid.Lower, pid.Upper); err != nil {
		return nil, nil, err
	}
	if err := pm.beforeCollectFees(locker, key, pid); err != nil {
		return nil, nil, err
	}

	id := key.ID()
	state, err := pm.initializedPoolState(id)
	if err != nil {
		return nil, nil, err
	}
	global, err := pm.loadPoolFees(id)
	if err != nil {
		return nil, nil, err
	}
	inside, err := pm.feesInside(id, key.Config, state.Tick, global, pid.Lower, pid.Upper)
	if err != nil {
		return nil, nil, err
	}
	pos, err := pm.loadPosition(id, locker.Addr, pid)
	if err != nil {
		return nil, nil, err
	}
	amount0, amount1, err := pendingFees(pos, inside)
	if err != nil {
		return nil, nil, err
	}

	pos.FeesOwed0, pos.FeesOwed1 = new(uint256.Int), new(uint256.Int)
	pos.FeesPerLiquidityInsideLast = inside
	pm.storePosition(id, locker.Addr, pid, pos)

	if err := pm.accountDebt(locker.ID, key.Token0, new(big.Int).Neg(amount0.ToBig())); err != nil {
		return nil, nil, err
	}
	if err := pm.accountDebt(locker.ID, key.Token1, new(big.Int).Neg(amount1.ToBig())); err != nil {
		return nil, nil, err
	}
	if err := pm.emitFeesCollected(id, locker.Addr, pid, amount0, amount1); err != nil {
		return nil, nil, err
	}
	if err := pm.afterCollectFees(locker, key, pid, amount0, amount1); err != nil {
		return nil, nil, err
	}
	pm.metrics.feeCollections.Inc()
	return amount0, amount1, nil
}

// PoolFeesPerLiquidityInside returns the fees per liquidity earned inside
// [lower, upper) of the pool of key.
func (pm *PoolManager) PoolFeesPerLiquidityInside(key PoolKey, lower, upper int32) (FeesPerLiquidity, error) {
	id := key.ID()
	state, err := pm.initializedPoolState(id)
	if err != nil {
		return FeesPerLiquidity{}, err
	}
	global, err := pm.loadPoolFees(id)
	if err != nil {
		return FeesPerLiquidity{}, err
	}
	return pm.feesInside(id, key.Config, state.Tick, global, lower, upper)
}

// GetPositionFeesAndLiquidity returns the liquidity of a position and the
// fees CollectFees would pay for it now.
func (pm *PoolManager) GetPositionFeesAndLiquidity(key PoolKey, owner common.Address, pid PositionID) (PositionFeesAndLiquidity, error) {
	inside, err := pm.PoolFeesPerLiquidityInside(key, pid.Lower, pid.Upper)
	if err != nil {
		return PositionFeesAndLiquidity{}, err
	}
	pos, err := pm.loadPosition(key.ID(), owner, pid)
	if err != nil {
		return PositionFeesAndLiquidity{}, err
	}
	fees0, fees1, err := pendingFees(pos, inside)
	if err != nil {
		return PositionFeesAndLiquidity{}, err
	}
	return PositionFeesAndLiquidity{Liquidity: pos.Liquidity, Fees0: fees0, Fees1: fees1}, nil
}

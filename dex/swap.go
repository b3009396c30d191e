// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/ammcore/fixedpoint"
)

// Swap trades against the pool of key until the specified amount is
// exhausted or the price reaches params.SqrtRatioLimit. The returned delta
// is added to the frame's debts.
func (tx *Tx) Swap(key PoolKey, params SwapParams) (BalanceDelta, PoolState, error) {
	if err := tx.check(); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	var (
		delta BalanceDelta
		after PoolState
	)
	err := tx.pm.atomic(func() error {
		var err error
		delta, after, err = tx.pm.swap(tx.locker, key, params)
		return err
	})
	if err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	return delta, after, nil
}

func (pm *PoolManager) swap(locker Locker, key PoolKey, params SwapParams) (BalanceDelta, PoolState, error) {
	if params.Amount == nil || !fitsInt128(params.Amount) {
		return BalanceDelta{}, PoolState{}, fmt.Errorf("%w: swap amount %v", ErrInvalidAmount, params.Amount)
	}
	if err := key.Validate(); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	id := key.ID()

	if err := pm.beforeSwap(locker, key, params); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	state, err := pm.initializedPoolState(id)
	if err != nil {
		return BalanceDelta{}, PoolState{}, err
	}

	increasing := params.IsPriceIncreasing()
	limit := params.SqrtRatioLimit
	if limit.Lt(fixedpoint.MinSqrtRatio) || limit.Gt(fixedpoint.MaxSqrtRatio) ||
		(increasing && limit.Lt(state.SqrtRatio)) || (!increasing && limit.Gt(state.SqrtRatio)) {
		return BalanceDelta{}, PoolState{}, fmt.Errorf("%w: %s from %s", ErrInvalidSqrtRatioLimit, limit, state.SqrtRatio)
	}
	if params.Amount.Sign() == 0 {
		return ZeroBalanceDelta(), state, nil
	}

	fees, err := pm.loadPoolFees(id)
	if err != nil {
		return BalanceDelta{}, PoolState{}, err
	}

	var (
		cfg        = key.Config
		remaining  = new(big.Int).Set(params.Amount)
		calculated = new(big.Int)
		sqrtRatio  = state.SqrtRatio
		tick       = state.Tick
		liquidity  = state.Liquidity.Clone()
		crossed    int
		feesMoved  bool
	)
	bitmap := pm.bitmap(id)
	rangeLower, rangeUpper := cfg.ActiveRange()

	for remaining.Sign() != 0 && sqrtRatio.Cmp(limit) != 0 {
		var (
			boundary    int32
			initialized bool
			stepLiq     = liquidity
		)
		if cfg.IsConcentrated() {
			boundary, initialized, err = bitmap.Search(tick, cfg.TickSpacing(), !increasing, params.SkipAhead)
			if err != nil {
				return BalanceDelta{}, PoolState{}, err
			}
		} else {
			boundary, stepLiq = stableswapBoundary(tick, increasing, rangeLower, rangeUpper, liquidity)
		}

		boundaryRatio, err := pm.ticks.SqrtRatio(boundary)
		if err != nil {
			return BalanceDelta{}, PoolState{}, err
		}
		target := boundaryRatio
		if (increasing && limit.Lt(boundaryRatio)) || (!increasing && limit.Gt(boundaryRatio)) {
			target = limit
		}

		next := target
		if !stepLiq.IsZero() {
			step, err := swapStep(sqrtRatio, stepLiq, target, remaining, params.IsToken1, cfg.Fee)
			if err != nil {
				return BalanceDelta{}, PoolState{}, err
			}
			next = step.next
			remaining.Sub(remaining, step.consumed)
			calculated.Add(calculated, step.calculated)
			if !step.fee.IsZero() {
				perLiq := perLiquidity(step.fee, stepLiq)
				if increasing {
					fees.Value1.Add(fees.Value1, perLiq)
				} else {
					fees.Value0.Add(fees.Value0, perLiq)
				}
				feesMoved = true
			}
		}

		switch {
		case next.Cmp(boundaryRatio) == 0:
			if initialized {
				if err := pm.crossTick(id, boundary, increasing, liquidity, fees); err != nil {
					return BalanceDelta{}, PoolState{}, err
				}
				crossed++
			}
			if increasing {
				tick = boundary
			} else {
				tick = boundary - 1
			}
		case next.Cmp(sqrtRatio) != 0:
			if tick, err = pm.ticks.Tick(next); err != nil {
				return BalanceDelta{}, PoolState{}, err
			}
		}
		sqrtRatio = next
	}

	specified := new(big.Int).Sub(params.Amount, remaining)
	if err := checkInt128(specified, ErrSwapAmountOverflow); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	if err := checkInt128(calculated, ErrSwapAmountOverflow); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	delta := BalanceDelta{Amount0: specified, Amount1: calculated}
	if params.IsToken1 {
		delta = BalanceDelta{Amount0: calculated, Amount1: specified}
	}

	state = PoolState{SqrtRatio: sqrtRatio, Tick: tick, Liquidity: liquidity}
	pm.storePoolState(id, state)
	if feesMoved {
		pm.storePoolFees(id, fees)
	}
	if err := pm.accountDebt(locker.ID, key.Token0, delta.Amount0); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	if err := pm.accountDebt(locker.ID, key.Token1, delta.Amount1); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	if err := pm.emitSwapped(id, locker, delta, state); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	if err := pm.afterSwap(locker, key, params, delta, state); err != nil {
		return BalanceDelta{}, PoolState{}, err
	}
	pm.metrics.swaps.Inc()
	pm.metrics.ticksCrossed.Add(float64(crossed))
	return delta, state, nil
}

// crossTick moves liquidity across an initialized tick and flips its
// outside fee checkpoint. liquidity is updated in place.
func (pm *PoolManager) crossTick(id PoolID, tick int32, increasing bool, liquidity *uint256.Int, fees FeesPerLiquidity) error {
	info, err := pm.loadTick(id, tick)
	if err != nil {
		return err
	}
	next := liquidity.ToBig()
	if increasing {
		next.Add(next, info.LiquidityNet)
	} else {
		next.Sub(next, info.LiquidityNet)
	}
	if !fitsUint128(next) {
		return fmt.Errorf("%w: crossing tick %d", ErrLiquidityOverflow, tick)
	}
	liquidity.SetFromBig(next)
	info.FeesOutside = fees.Sub(info.FeesOutside)
	pm.storeTick(id, tick, info)
	return nil
}

// stableswapBoundary returns the next tick a stableswap step may move to
// and the liquidity active until it. Liquidity is only active inside
// [lower, upper).
func stableswapBoundary(tick int32, increasing bool, lower, upper int32, liquidity *uint256.Int) (int32, *uint256.Int) {
	zero := new(uint256.Int)
	if increasing {
		switch {
		case tick < lower:
			return lower, zero
		case tick < upper:
			return upper, liquidity
		default:
			return fixedpoint.MaxTick, zero
		}
	}
	switch {
	case tick >= upper:
		return upper, zero
	case tick >= lower:
		return lower, liquidity
	default:
		return fixedpoint.MinTick, zero
	}
}

type stepResult struct {
	// consumed is the part of the specified amount used, with its sign
	consumed *big.Int
	// calculated is the signed delta of the other token
	calculated *big.Int
	// fee is charged in the input token
	fee  *uint256.Int
	next fixedpoint.SqrtRatio
}

// swapStep trades amount against constant liquidity without moving the
// price past limit.
func swapStep(sqrtRatio fixedpoint.SqrtRatio, liquidity *uint256.Int, limit fixedpoint.SqrtRatio, amount *big.Int, isToken1 bool, fee uint64) (stepResult, error) {
	exactOut := amount.Sign() < 0
	increasing := isToken1 != exactOut

	impact := amount
	feeAmount := new(uint256.Int)
	if !exactOut {
		in, _ := fixedpoint.ToUint256(amount)
		var err error
		if feeAmount, err = fixedpoint.ComputeFee(in, fee); err != nil {
			return stepResult{}, err
		}
		impact = new(big.Int).Sub(amount, feeAmount.ToBig())
	}

	var (
		next fixedpoint.SqrtRatio
		ok   bool
	)
	if isToken1 {
		next, ok = fixedpoint.NextSqrtRatioFromAmount1(sqrtRatio, liquidity, impact)
	} else {
		next, ok = fixedpoint.NextSqrtRatioFromAmount0(sqrtRatio, liquidity, impact)
	}

	if !ok || (increasing && next.Gt(limit)) || (!increasing && next.Lt(limit)) {
		specified, err := amountDelta(isToken1, sqrtRatio, limit, liquidity, !exactOut)
		if err != nil {
			return stepResult{}, err
		}
		other, err := amountDelta(!isToken1, sqrtRatio, limit, liquidity, exactOut)
		if err != nil {
			return stepResult{}, err
		}
		if exactOut {
			withFee, err := fixedpoint.AmountBeforeFee(other, fee)
			if err != nil {
				return stepResult{}, err
			}
			consumed := new(big.Int).Neg(specified.ToBig())
			if consumed.Cmp(amount) < 0 {
				consumed.Set(amount)
			}
			return stepResult{
				consumed:   consumed,
				calculated: withFee.ToBig(),
				fee:        new(uint256.Int).Sub(withFee, other),
				next:       limit,
			}, nil
		}
		withFee, err := fixedpoint.AmountBeforeFee(specified, fee)
		if err != nil {
			return stepResult{}, err
		}
		consumed := withFee.ToBig()
		if consumed.Cmp(amount) > 0 {
			consumed.Set(amount)
		}
		chargedFee := new(big.Int).Sub(consumed, specified.ToBig())
		if chargedFee.Sign() < 0 {
			chargedFee.SetInt64(0)
		}
		f, _ := fixedpoint.ToUint256(chargedFee)
		return stepResult{
			consumed:   consumed,
			calculated: new(big.Int).Neg(other.ToBig()),
			fee:        f,
			next:       limit,
		}, nil
	}

	// The input was too small to move the price: all of it is kept as fee.
	if next.Cmp(sqrtRatio) == 0 {
		all, _ := fixedpoint.ToUint256(new(big.Int).Abs(amount))
		if exactOut {
			all = new(uint256.Int)
		}
		return stepResult{
			consumed:   new(big.Int).Set(amount),
			calculated: new(big.Int),
			fee:        all,
			next:       sqrtRatio,
		}, nil
	}

	other, err := amountDelta(!isToken1, sqrtRatio, next, liquidity, exactOut)
	if err != nil {
		return stepResult{}, err
	}
	if exactOut {
		withFee, err := fixedpoint.AmountBeforeFee(other, fee)
		if err != nil {
			return stepResult{}, err
		}
		return stepResult{
			consumed:   new(big.Int).Set(amount),
			calculated: withFee.ToBig(),
			fee:        new(uint256.Int).Sub(withFee, other),
			next:       next,
		}, nil
	}
	return stepResult{
		consumed:   new(big.Int).Set(amount),
		calculated: new(big.Int).Neg(other.ToBig()),
		fee:        feeAmount,
		next:       next,
	}, nil
}

func amountDelta(isToken1 bool, a, b fixedpoint.SqrtRatio, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if isToken1 {
		return fixedpoint.Amount1Delta(a.ToFixed(), b.ToFixed(), liquidity, roundUp)
	}
	return fixedpoint.Amount0Delta(a.ToFixed(), b.ToFixed(), liquidity, roundUp)
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
)

// AccumulateAsFees lets the extension of a pool pay amounts into the pool as
// fees of its active liquidity. Only the extension itself may call it. With
// no active liquidity the amounts are still owed but no one earns them.
func (tx *Tx) AccumulateAsFees(key PoolKey, amount0, amount1 *uint256.Int) error {
	if err := tx.check(); err != nil {
		return err
	}
	if tx.locker.Addr != key.Config.Extension {
		return fmt.Errorf("%w: %s is not the extension of the pool", ErrUnauthorized, tx.locker.Addr.Hex())
	}
	if !amountFits(amount0) || !amountFits(amount1) {
		return fmt.Errorf("%w: %v, %v", ErrAmountOverflow, amount0, amount1)
	}
	pm := tx.pm
	id := key.ID()
	return pm.atomic(func() error {
		state, err := pm.initializedPoolState(id)
		if err != nil {
			return err
		}
		if !state.Liquidity.IsZero() && (!amount0.IsZero() || !amount1.IsZero()) {
			fees, err := pm.loadPoolFees(id)
			if err != nil {
				return err
			}
			fees.Value0.Add(fees.Value0, perLiquidity(amount0, state.Liquidity))
			fees.Value1.Add(fees.Value1, perLiquidity(amount1, state.Liquidity))
			pm.storePoolFees(id, fees)
		}
		if err := pm.accountDebt(tx.locker.ID, key.Token0, amount0.ToBig()); err != nil {
			return err
		}
		if err := pm.accountDebt(tx.locker.ID, key.Token1, amount1.ToBig()); err != nil {
			return err
		}
		return pm.emitFeesAccumulated(id, amount0, amount1)
	})
}

// perLiquidity returns amount << 128 / liquidity.
func perLiquidity(amount, liquidity *uint256.Int) *uint256.Int {
	v := new(uint256.Int).Lsh(amount, 128)
	return v.Div(v, liquidity)
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// UpdateSavedBalances moves token amounts between the frame's debts and a
// balance kept by the pool manager for the locker under salt. Positive
// deltas save tokens (the locker owes them), negative deltas load them back.
func (tx *Tx) UpdateSavedBalances(token0, token1 common.Address, salt [32]byte, delta0, delta1 *big.Int) error {
	if err := tx.check(); err != nil {
		return err
	}
	if bytes.Compare(token0[:], token1[:]) >= 0 {
		return fmt.Errorf("%w: %s >= %s", ErrTokensNotSorted, token0.Hex(), token1.Hex())
	}
	if delta0 == nil || delta1 == nil {
		return fmt.Errorf("%w: nil saved balance delta", ErrInvalidAmount)
	}
	pm := tx.pm
	owner := tx.locker.Addr
	return pm.atomic(func() error {
		b0, b1, err := pm.SavedBalances(owner, token0, token1, salt)
		if err != nil {
			return err
		}
		next0 := new(big.Int).Add(b0.ToBig(), delta0)
		next1 := new(big.Int).Add(b1.ToBig(), delta1)
		if !fitsUint128(next0) || !fitsUint128(next1) {
			return fmt.Errorf("%w: %s, %s", ErrSavedBalanceOverflow, next0, next1)
		}

		key := savedBalanceKey(owner, token0, token1, salt)
		if next0.Sign() == 0 && next1.Sign() == 0 {
			pm.journal.delete(key)
		} else {
			n0, _ := uint256.FromBig(next0)
			n1, _ := uint256.FromBig(next1)
			pm.journal.put(key, encodeSavedBalances(n0, n1))
		}

		if err := pm.accountDebt(tx.locker.ID, token0, delta0); err != nil {
			return err
		}
		if err := pm.accountDebt(tx.locker.ID, token1, delta1); err != nil {
			return err
		}
		return pm.emitSavedBalancesUpdated(owner, token0, token1, salt, delta0, delta1)
	})
}

// SavedBalances returns the balances saved by owner for a token pair.
func (pm *PoolManager) SavedBalances(owner, token0, token1 common.Address, salt [32]byte) (*uint256.Int, *uint256.Int, error) {
	raw, err := pm.journal.get(savedBalanceKey(owner, token0, token1, salt))
	if err != nil {
		return nil, nil, err
	}
	b0, b1 := decodeSavedBalances(raw)
	return b0, b1, nil
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Tx is the handle a locker acts through. It is only valid while it is the
// active frame of its PoolManager; every method fails with ErrNotLocker
// otherwise, including after the lock returns.
type Tx struct {
	pm     *PoolManager
	locker Locker
}

func (tx *Tx) check() error {
	if tx == nil || tx.pm.active != tx {
		return ErrNotLocker
	}
	return nil
}

// Lock opens a new lock for caller and invokes the Locked method of the code
// deployed at caller. The lock fails and all of its effects are reverted
// unless every debt accrued under its id is zero when Locked returns.
// caller is the authenticated sender of the call; the host must not let
// one account open a lock in the name of another.
func (pm *PoolManager) Lock(caller common.Address, data []byte) ([]byte, error) {
	code := pm.state.GetCode(caller)
	if code == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCode, caller.Hex())
	}
	target, ok := code.(Locked)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not accept locks", ErrCallFailed, caller.Hex())
	}

	pm.nextLockID++
	tx := &Tx{pm: pm, locker: Locker{ID: pm.nextLockID, Addr: caller}}
	pm.metrics.locks.Inc()

	var result []byte
	err := pm.atomic(func() error {
		parent := pm.active
		pm.active = tx
		defer func() { pm.active = parent }()

		out, err := target.Locked(tx, data)
		if err != nil {
			return fmt.Errorf("lock %d: %w", tx.locker.ID, err)
		}
		n, err := pm.nonzeroDebtCount(tx.locker.ID)
		if err != nil {
			return err
		}
		if n != 0 {
			return fmt.Errorf("%w: lock %d has %d open debts", ErrDebtsNotZeroed, tx.locker.ID, n)
		}
		result = out
		return nil
	})
	if err != nil {
		pm.metrics.lockFailures.Inc()
		pm.log.Debug("lock failed", "id", tx.locker.ID, "locker", caller.Hex(), "err", err)
		return nil, err
	}
	pm.log.Debug("lock closed", "id", tx.locker.ID, "locker", caller.Hex())
	return result, nil
}

// Forward hands the lock to target, which acts under the same id with its
// own address as locker. The calling frame becomes active again when target
// returns, whatever it did.
func (tx *Tx) Forward(target common.Address, data []byte) ([]byte, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	pm := tx.pm
	code := pm.state.GetCode(target)
	if code == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCode, target.Hex())
	}
	fwd, ok := code.(Forwarded)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not accept forwarded locks", ErrCallFailed, target.Hex())
	}

	child := &Tx{pm: pm, locker: Locker{ID: tx.locker.ID, Addr: target}}
	var result []byte
	err := pm.atomic(func() error {
		pm.active = child
		defer func() { pm.active = tx }()

		out, err := fwd.Forwarded(child, tx.locker, data)
		if err != nil {
			return fmt.Errorf("forward to %s: %w", target.Hex(), err)
		}
		result = out
		return nil
	})
	return result, err
}

// Locker returns the id and address this frame acts as.
func (tx *Tx) Locker() Locker {
	return tx.locker
}

// Debt returns the signed debt of token under the frame's lock id.
// Positive values are owed to the pool manager.
func (tx *Tx) Debt(token common.Address) (*big.Int, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return tx.pm.debt(tx.locker.ID, token)
}

// NonzeroDebtCount returns the number of tokens with a non-zero debt.
func (tx *Tx) NonzeroDebtCount() (uint32, error) {
	if err := tx.check(); err != nil {
		return 0, err
	}
	return tx.pm.nonzeroDebtCount(tx.locker.ID)
}

// =========================================================================
// Payments
// =========================================================================

// Pay pulls amount of token from the locker into the pool manager and
// reduces the debt by the same amount. Non-native tokens must have been
// approved to the pool manager.
func (tx *Tx) Pay(token common.Address, amount *uint256.Int) error {
	if token == NativeToken {
		return tx.PayNative(amount)
	}
	if err := tx.check(); err != nil {
		return err
	}
	if !amountFits(amount) {
		return fmt.Errorf("%w: pay %s", ErrInvalidAmount, amount)
	}
	pm := tx.pm
	return pm.atomic(func() error {
		t, err := pm.token(token)
		if err != nil {
			return err
		}
		if err := t.TransferFrom(pm.addr, tx.locker.Addr, pm.addr, amount); err != nil {
			return err
		}
		return pm.accountDebt(tx.locker.ID, token, new(big.Int).Neg(amount.ToBig()))
	})
}

// PayNative moves amount of the native asset from the locker's balance to
// the pool manager.
func (tx *Tx) PayNative(amount *uint256.Int) error {
	if err := tx.check(); err != nil {
		return err
	}
	if !amountFits(amount) {
		return fmt.Errorf("%w: pay %s", ErrInvalidAmount, amount)
	}
	pm := tx.pm
	return pm.atomic(func() error {
		if bal := pm.state.GetBalance(tx.locker.Addr); bal.Lt(amount) {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, tx.locker.Addr.Hex(), bal, amount)
		}
		pm.state.SubBalance(tx.locker.Addr, amount)
		pm.state.AddBalance(pm.addr, amount)
		return pm.accountDebt(tx.locker.ID, NativeToken, new(big.Int).Neg(amount.ToBig()))
	})
}

// Withdraw sends amount of token to recipient and adds it to the debt.
func (tx *Tx) Withdraw(token, recipient common.Address, amount *uint256.Int) error {
	if err := tx.check(); err != nil {
		return err
	}
	if !amountFits(amount) {
		return fmt.Errorf("%w: withdraw %s", ErrInvalidAmount, amount)
	}
	pm := tx.pm
	return pm.atomic(func() error {
		if err := pm.accountDebt(tx.locker.ID, token, amount.ToBig()); err != nil {
			return err
		}
		if token == NativeToken {
			if bal := pm.state.GetBalance(pm.addr); bal.Lt(amount) {
				return fmt.Errorf("%w: pool manager holds %s", ErrInsufficientBalance, bal)
			}
			pm.state.SubBalance(pm.addr, amount)
			pm.state.AddBalance(recipient, amount)
			return nil
		}
		t, err := pm.token(token)
		if err != nil {
			return err
		}
		return t.Transfer(pm.addr, recipient, amount)
	})
}

func amountFits(amount *uint256.Int) bool {
	return amount != nil && amount.BitLen() <= 128
}

func (pm *PoolManager) token(addr common.Address) (Token, error) {
	code := pm.state.GetCode(addr)
	if code == nil {
		return nil, fmt.Errorf("%w: token %s", ErrNoCode, addr.Hex())
	}
	t, ok := code.(Token)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a token", ErrCallFailed, addr.Hex())
	}
	return t, nil
}

// =========================================================================
// Debt ledger
// =========================================================================

func (pm *PoolManager) debt(id uint32, token common.Address) (*big.Int, error) {
	raw, err := pm.journal.get(debtKey(id, token))
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return new(big.Int), nil
	}
	return readInt256(raw), nil
}

func (pm *PoolManager) nonzeroDebtCount(id uint32) (uint32, error) {
	raw, err := pm.journal.get(nonzeroDebtsKey(id))
	if err != nil || len(raw) != 4 {
		return 0, err
	}
	return binary.BigEndian.Uint32(raw), nil
}

// accountDebt adds delta to the debt of token and keeps the count of
// non-zero debts in step with zero crossings.
func (pm *PoolManager) accountDebt(id uint32, token common.Address, delta *big.Int) error {
	if delta.Sign() == 0 {
		return nil
	}
	cur, err := pm.debt(id, token)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(cur, delta)
	if !fitsInt256(next) {
		return fmt.Errorf("%w: %s", ErrDebtOverflow, token.Hex())
	}
	count, err := pm.nonzeroDebtCount(id)
	if err != nil {
		return err
	}

	key := debtKey(id, token)
	switch {
	case next.Sign() == 0:
		pm.journal.delete(key)
		count--
	default:
		raw := make([]byte, 32)
		putInt256(raw, next)
		pm.journal.put(key, raw)
		if cur.Sign() == 0 {
			count++
		}
	}

	if count == 0 {
		pm.journal.delete(nonzeroDebtsKey(id))
		return nil
	}
	pm.journal.put(nonzeroDebtsKey(id), uint32Bytes(count))
	return nil
}

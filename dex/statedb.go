// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// Contract is the executable code deployed at an address. Lockers,
// forwardees, extensions and tokens are resolved to the interfaces they
// implement through a type assertion on their Contract.
type Contract interface{}

// StateDB is the host state the core runs against: native balances,
// contract storage and code, event logs, and revertible snapshots.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)
	Exist(addr common.Address) bool
	// GetCode returns nil for an address without code.
	GetCode(addr common.Address) Contract
	AddLog(log *types.Log)
	Snapshot() int
	RevertToSnapshot(id int)
	GetBlockNumber() uint64
}

// Token is the interface the core calls to move non-native tokens.
type Token interface {
	// Transfer moves amount from the caller to to.
	Transfer(from, to common.Address, amount *uint256.Int) error
	// TransferFrom moves amount from from to to using spender's allowance.
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error
}

// Locked is implemented by contracts that open a lock.
type Locked interface {
	Locked(tx *Tx, data []byte) ([]byte, error)
}

// Forwarded is implemented by contracts that accept a forwarded lock. The
// original locker is passed so the forwardee knows on whose behalf it acts.
type Forwarded interface {
	Forwarded(tx *Tx, original Locker, data []byte) ([]byte, error)
}

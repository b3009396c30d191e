// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/zeebo/blake3"
)

// MemoryStateDB is an in-memory StateDB with geth-style snapshots. It backs
// tests and embedders that do not run inside an EVM.
type MemoryStateDB struct {
	balances    map[common.Address]*uint256.Int
	storage     map[common.Address]map[common.Hash]common.Hash
	code        map[common.Address]Contract
	logs        []*types.Log
	blockNumber uint64

	undo []func()
}

// NewMemoryStateDB creates an empty state.
func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		balances: make(map[common.Address]*uint256.Int),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		code:     make(map[common.Address]Contract),
	}
}

func (s *MemoryStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	return s.storage[addr][key]
}

func (s *MemoryStateDB) SetState(addr common.Address, key common.Hash, value common.Hash) {
	slots, ok := s.storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.storage[addr] = slots
	}
	prev, existed := slots[key]
	s.undo = append(s.undo, func() {
		if existed {
			slots[key] = prev
		} else {
			delete(slots, key)
		}
	})
	slots[key] = value
}

func (s *MemoryStateDB) GetBalance(addr common.Address) *uint256.Int {
	if b, ok := s.balances[addr]; ok {
		return b.Clone()
	}
	return new(uint256.Int)
}

func (s *MemoryStateDB) setBalance(addr common.Address, v *uint256.Int) {
	prev, existed := s.balances[addr]
	s.undo = append(s.undo, func() {
		if existed {
			s.balances[addr] = prev
		} else {
			delete(s.balances, addr)
		}
	})
	s.balances[addr] = v
}

func (s *MemoryStateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	s.setBalance(addr, new(uint256.Int).Add(s.GetBalance(addr), amount))
}

// SubBalance panics on underflow; callers check the balance first.
func (s *MemoryStateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	bal := s.GetBalance(addr)
	if bal.Lt(amount) {
		panic(fmt.Sprintf("balance underflow for %s", addr.Hex()))
	}
	s.setBalance(addr, bal.Sub(bal, amount))
}

func (s *MemoryStateDB) Exist(addr common.Address) bool {
	_, hasBalance := s.balances[addr]
	_, hasCode := s.code[addr]
	return hasBalance || hasCode
}

func (s *MemoryStateDB) GetCode(addr common.Address) Contract {
	return s.code[addr]
}

// SetCode deploys c at addr. A nil c removes the code.
func (s *MemoryStateDB) SetCode(addr common.Address, c Contract) {
	prev, existed := s.code[addr]
	s.undo = append(s.undo, func() {
		if existed {
			s.code[addr] = prev
		} else {
			delete(s.code, addr)
		}
	})
	if c == nil {
		delete(s.code, addr)
		return
	}
	s.code[addr] = c
}

func (s *MemoryStateDB) AddLog(log *types.Log) {
	log.Index = uint(len(s.logs))
	log.BlockNumber = s.blockNumber
	s.logs = append(s.logs, log)
	n := len(s.logs) - 1
	s.undo = append(s.undo, func() { s.logs = s.logs[:n] })
}

// Logs returns the logs emitted so far.
func (s *MemoryStateDB) Logs() []*types.Log {
	return s.logs
}

func (s *MemoryStateDB) Snapshot() int {
	return len(s.undo)
}

func (s *MemoryStateDB) RevertToSnapshot(id int) {
	for i := len(s.undo) - 1; i >= id; i-- {
		s.undo[i]()
	}
	s.undo = s.undo[:id]
}

func (s *MemoryStateDB) GetBlockNumber() uint64 {
	return s.blockNumber
}

func (s *MemoryStateDB) SetBlockNumber(n uint64) {
	s.blockNumber = n
}

// =========================================================================
// In-memory token
// =========================================================================

// MemoryToken is a fungible token whose balances and allowances live in the
// storage of its own address in a StateDB, so they revert with it.
type MemoryToken struct {
	addr  common.Address
	state StateDB
}

// DeployMemoryToken creates a token at addr and installs it as the code of
// that address.
func DeployMemoryToken(state *MemoryStateDB, addr common.Address) *MemoryToken {
	t := &MemoryToken{addr: addr, state: state}
	state.SetCode(addr, t)
	return t
}

// Address returns the token address.
func (t *MemoryToken) Address() common.Address {
	return t.addr
}

func tokenSlot(kind string, addrs ...common.Address) common.Hash {
	h := blake3.New()
	h.Write([]byte(kind))
	for _, a := range addrs {
		h.Write(a[:])
	}
	var slot common.Hash
	h.Digest().Read(slot[:])
	return slot
}

func (t *MemoryToken) load(slot common.Hash) *uint256.Int {
	v := t.state.GetState(t.addr, slot)
	return new(uint256.Int).SetBytes32(v[:])
}

func (t *MemoryToken) store(slot common.Hash, v *uint256.Int) {
	t.state.SetState(t.addr, slot, common.Hash(v.Bytes32()))
}

// BalanceOf returns the balance of owner.
func (t *MemoryToken) BalanceOf(owner common.Address) *uint256.Int {
	return t.load(tokenSlot("balance", owner))
}

// Allowance returns how much spender may move from owner.
func (t *MemoryToken) Allowance(owner, spender common.Address) *uint256.Int {
	return t.load(tokenSlot("allowance", owner, spender))
}

// Mint credits amount to to.
func (t *MemoryToken) Mint(to common.Address, amount *uint256.Int) {
	slot := tokenSlot("balance", to)
	t.store(slot, new(uint256.Int).Add(t.load(slot), amount))
}

// Approve sets the allowance of spender over owner's balance.
func (t *MemoryToken) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.store(tokenSlot("allowance", owner, spender), amount)
}

func (t *MemoryToken) Transfer(from, to common.Address, amount *uint256.Int) error {
	fromSlot := tokenSlot("balance", from)
	bal := t.load(fromSlot)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), bal, amount)
	}
	t.store(fromSlot, bal.Sub(bal, amount))
	toSlot := tokenSlot("balance", to)
	t.store(toSlot, new(uint256.Int).Add(t.load(toSlot), amount))
	return nil
}

func (t *MemoryToken) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	slot := tokenSlot("allowance", from, spender)
	allowed := t.load(slot)
	if allowed.Lt(amount) {
		return fmt.Errorf("%w: %s allows %s", ErrInsufficientAllowance, from.Hex(), allowed)
	}
	if err := t.Transfer(from, to, amount); err != nil {
		return err
	}
	t.store(slot, allowed.Sub(allowed, amount))
	return nil
}

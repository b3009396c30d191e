// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// Event is a log the pool manager emits. The first parameter is indexed
// and becomes the second topic; the remaining ones are ABI encoded into
// the log data.
type Event struct {
	Name  string
	Topic common.Hash
	data  abi.Arguments
}

func newEvent(name, indexed string, data ...string) Event {
	sig := fmt.Sprintf("%s(%s)", name, strings.Join(append([]string{indexed}, data...), ","))
	args := make(abi.Arguments, len(data))
	for i, t := range data {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("event %s: %v", name, err))
		}
		args[i] = abi.Argument{Type: typ}
	}
	return Event{Name: name, Topic: common.BytesToHash(crypto.Keccak256([]byte(sig))), data: args}
}

var (
	EventPoolInitialized      = newEvent("PoolInitialized", "bytes32", "address", "address", "bytes32", "int32", "uint256")
	EventSwapped              = newEvent("Swapped", "bytes32", "address", "int256", "int256", "uint256", "int32", "uint256")
	EventPositionUpdated      = newEvent("PositionUpdated", "bytes32", "address", "bytes32", "int256", "int256", "int256")
	EventFeesCollected        = newEvent("FeesCollected", "bytes32", "address", "bytes32", "uint256", "uint256")
	EventFeesAccumulated      = newEvent("FeesAccumulated", "bytes32", "uint256", "uint256")
	EventExtensionRegistered  = newEvent("ExtensionRegistered", "address", "uint8")
	EventSavedBalancesUpdated = newEvent("SavedBalancesUpdated", "address", "address", "address", "bytes32", "int256", "int256")
)

// Unpack decodes the data of a log of this event.
func (e Event) Unpack(data []byte) ([]interface{}, error) {
	return e.data.Unpack(data)
}

func (pm *PoolManager) emit(e Event, indexed common.Hash, values ...interface{}) error {
	data, err := e.data.Pack(values...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", e.Name, err)
	}
	pm.state.AddLog(&types.Log{
		Address:     pm.addr,
		Topics:      []common.Hash{e.Topic, indexed},
		Data:        data,
		BlockNumber: pm.state.GetBlockNumber(),
	})
	return nil
}

func (pm *PoolManager) emitPoolInitialized(id PoolID, key PoolKey, state PoolState) error {
	return pm.emit(EventPoolInitialized, common.Hash(id),
		key.Token0, key.Token1, key.Config.Pack(), state.Tick, state.SqrtRatio.ToFixed().ToBig())
}

func (pm *PoolManager) emitSwapped(id PoolID, locker Locker, delta BalanceDelta, state PoolState) error {
	return pm.emit(EventSwapped, common.Hash(id),
		locker.Addr, delta.Amount0, delta.Amount1, state.SqrtRatio.ToFixed().ToBig(), state.Tick, state.Liquidity.ToBig())
}

func (pm *PoolManager) emitPositionUpdated(id PoolID, locker Locker, pid PositionID, liquidityDelta *big.Int, delta BalanceDelta) error {
	return pm.emit(EventPositionUpdated, common.Hash(id),
		locker.Addr, pid.Pack(), liquidityDelta, delta.Amount0, delta.Amount1)
}

func (pm *PoolManager) emitFeesCollected(id PoolID, owner common.Address, pid PositionID, amount0, amount1 *uint256.Int) error {
	return pm.emit(EventFeesCollected, common.Hash(id),
		owner, pid.Pack(), amount0.ToBig(), amount1.ToBig())
}

func (pm *PoolManager) emitFeesAccumulated(id PoolID, amount0, amount1 *uint256.Int) error {
	return pm.emit(EventFeesAccumulated, common.Hash(id), amount0.ToBig(), amount1.ToBig())
}

func (pm *PoolManager) emitExtensionRegistered(ext common.Address, mask HookMask) error {
	return pm.emit(EventExtensionRegistered, common.BytesToHash(ext[:]), uint8(mask))
}

func (pm *PoolManager) emitSavedBalancesUpdated(owner, token0, token1 common.Address, salt [32]byte, delta0, delta1 *big.Int) error {
	return pm.emit(EventSavedBalancesUpdated, common.BytesToHash(owner[:]),
		token0, token1, salt, delta0, delta1)
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/ammcore/fixedpoint"
)

// HookMask is the set of hooks an extension is called for. The mask of an
// extension is encoded in the last byte of its address.
type HookMask uint8

const (
	HookBeforeInitializePool HookMask = 1 << iota
	HookAfterInitializePool
	HookBeforeSwap
	HookAfterSwap
	HookBeforeUpdatePosition
	HookAfterUpdatePosition
	HookBeforeCollectFees
	HookAfterCollectFees
)

var hookNames = [...]string{
	"beforeInitializePool",
	"afterInitializePool",
	"beforeSwap",
	"afterSwap",
	"beforeUpdatePosition",
	"afterUpdatePosition",
	"beforeCollectFees",
	"afterCollectFees",
}

func (m HookMask) String() string {
	var names []string
	for i, name := range hookNames {
		if m&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Has reports whether every hook of o is in m.
func (m HookMask) Has(o HookMask) bool {
	return m&o == o
}

// HookPermissions is the expanded form of a HookMask.
type HookPermissions struct {
	BeforeInitializePool bool
	AfterInitializePool  bool
	BeforeSwap           bool
	AfterSwap            bool
	BeforeUpdatePosition bool
	AfterUpdatePosition  bool
	BeforeCollectFees    bool
	AfterCollectFees     bool
}

// EncodeHookPermissions encodes permissions into a HookMask.
func EncodeHookPermissions(p HookPermissions) HookMask {
	var m HookMask
	for i, set := range []bool{
		p.BeforeInitializePool,
		p.AfterInitializePool,
		p.BeforeSwap,
		p.AfterSwap,
		p.BeforeUpdatePosition,
		p.AfterUpdatePosition,
		p.BeforeCollectFees,
		p.AfterCollectFees,
	} {
		if set {
			m |= 1 << i
		}
	}
	return m
}

// DecodeHookPermissions expands a HookMask.
func DecodeHookPermissions(m HookMask) HookPermissions {
	return HookPermissions{
		BeforeInitializePool: m&HookBeforeInitializePool != 0,
		AfterInitializePool:  m&HookAfterInitializePool != 0,
		BeforeSwap:           m&HookBeforeSwap != 0,
		AfterSwap:            m&HookAfterSwap != 0,
		BeforeUpdatePosition: m&HookBeforeUpdatePosition != 0,
		AfterUpdatePosition:  m&HookAfterUpdatePosition != 0,
		BeforeCollectFees:    m&HookBeforeCollectFees != 0,
		AfterCollectFees:     m&HookAfterCollectFees != 0,
	}
}

// HookMaskFromAddress returns the mask encoded in an extension address.
func HookMaskFromAddress(addr common.Address) HookMask {
	return HookMask(addr[common.AddressLength-1])
}

// GenerateExtensionAddress derives a CREATE2-style address for an extension
// deployed by deployer with salt, with the low byte set to the mask of
// permissions.
func GenerateExtensionAddress(deployer common.Address, salt [32]byte, permissions HookPermissions) common.Address {
	h := blake3.New()
	h.Write([]byte{0xff})
	h.Write(deployer.Bytes())
	h.Write(salt[:])

	var hash [32]byte
	h.Digest().Read(hash[:])

	var addr common.Address
	copy(addr[:], hash[12:32])
	addr[common.AddressLength-1] = byte(EncodeHookPermissions(permissions))
	return addr
}

// =========================================================================
// Hook interfaces
// =========================================================================

// Extensions implement the interfaces of the hooks in their mask. Hooks
// receive the pool manager for reads and nested locks, never the caller's
// Tx, so they cannot act on the caller's debts.

type BeforeInitializePoolHook interface {
	BeforeInitializePool(pm *PoolManager, caller common.Address, key PoolKey, tick int32) error
}

type AfterInitializePoolHook interface {
	AfterInitializePool(pm *PoolManager, caller common.Address, key PoolKey, tick int32, sqrtRatio fixedpoint.SqrtRatio) error
}

type BeforeSwapHook interface {
	BeforeSwap(pm *PoolManager, locker Locker, key PoolKey, params SwapParams) error
}

type AfterSwapHook interface {
	AfterSwap(pm *PoolManager, locker Locker, key PoolKey, params SwapParams, delta BalanceDelta, state PoolState) error
}

type BeforeUpdatePositionHook interface {
	BeforeUpdatePosition(pm *PoolManager, locker Locker, key PoolKey, pid PositionID, liquidityDelta *big.Int) error
}

type AfterUpdatePositionHook interface {
	AfterUpdatePosition(pm *PoolManager, locker Locker, key PoolKey, pid PositionID, liquidityDelta *big.Int, delta BalanceDelta) error
}

type BeforeCollectFeesHook interface {
	BeforeCollectFees(pm *PoolManager, locker Locker, key PoolKey, pid PositionID) error
}

type AfterCollectFeesHook interface {
	AfterCollectFees(pm *PoolManager, locker Locker, key PoolKey, pid PositionID, amount0, amount1 *uint256.Int) error
}

// Extension implements every hook.
//
//go:generate mockgen -destination=mock_extension_test.go -package=dex . Extension
type Extension interface {
	BeforeInitializePoolHook
	AfterInitializePoolHook
	BeforeSwapHook
	AfterSwapHook
	BeforeUpdatePositionHook
	AfterUpdatePositionHook
	BeforeCollectFeesHook
	AfterCollectFeesHook
}

// =========================================================================
// Registration
// =========================================================================

// RegisterExtension records the hook mask of the extension at addr. The
// mask must equal the one encoded in the address and the address must
// have code. Registration is permanent.
func (pm *PoolManager) RegisterExtension(addr common.Address, mask HookMask) error {
	if HookMaskFromAddress(addr) != mask {
		return fmt.Errorf("%w: %s encodes %#02x, not %#02x", ErrExtensionMaskMismatch, addr.Hex(), byte(HookMaskFromAddress(addr)), byte(mask))
	}
	if pm.state.GetCode(addr) == nil {
		return fmt.Errorf("%w: %s", ErrNoCode, addr.Hex())
	}
	err := pm.atomic(func() error {
		if _, ok, err := pm.extensionMask(addr); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: %s", ErrExtensionRegistered, addr.Hex())
		}
		pm.journal.put(extensionKey(addr), []byte{1, byte(mask)})
		return pm.emitExtensionRegistered(addr, mask)
	})
	if err != nil {
		return err
	}
	pm.log.Info("extension registered", "extension", addr.Hex(), "hooks", mask.String())
	return nil
}

// ExtensionMask returns the registered mask of an extension.
func (pm *PoolManager) ExtensionMask(addr common.Address) (HookMask, bool, error) {
	return pm.extensionMask(addr)
}

func (pm *PoolManager) extensionMask(addr common.Address) (HookMask, bool, error) {
	raw, err := pm.journal.get(extensionKey(addr))
	if err != nil || len(raw) != 2 || raw[0] != 1 {
		return 0, false, err
	}
	return HookMask(raw[1]), true, nil
}

// =========================================================================
// Dispatch
// =========================================================================

// extensionCode returns the code to call for hook, or nil when the hook
// does not run: no extension, the extension is the actor itself, or the
// hook is not in its mask.
func (pm *PoolManager) extensionCode(key PoolKey, actor common.Address, hook HookMask) (Contract, error) {
	ext := key.Config.Extension
	if ext == (common.Address{}) || ext == actor {
		return nil, nil
	}
	mask, ok, err := pm.extensionMask(ext)
	if err != nil || !ok || !mask.Has(hook) {
		return nil, err
	}
	code := pm.state.GetCode(ext)
	if code == nil {
		return nil, fmt.Errorf("%w: %s has no code", ErrExtensionCallFailed, ext.Hex())
	}
	return code, nil
}

// lockHolder returns the address of the active locker, or the zero address
// outside any lock. Caller arguments are not trusted to identify the
// extension.
func (pm *PoolManager) lockHolder() common.Address {
	if pm.active == nil {
		return common.Address{}
	}
	return pm.active.locker.Addr
}

func hookUnsupported(ext common.Address, hook HookMask) error {
	return fmt.Errorf("%w: %s does not implement %s", ErrExtensionCallFailed, ext.Hex(), hook)
}

func hookFailed(ext common.Address, hook HookMask, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s %s: %w", ErrExtensionCallFailed, ext.Hex(), hook, err)
}

func (pm *PoolManager) beforeInitializePool(caller common.Address, key PoolKey, tick int32) error {
	code, err := pm.extensionCode(key, pm.lockHolder(), HookBeforeInitializePool)
	if code == nil {
		return err
	}
	h, ok := code.(BeforeInitializePoolHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookBeforeInitializePool)
	}
	return hookFailed(key.Config.Extension, HookBeforeInitializePool, h.BeforeInitializePool(pm, caller, key, tick))
}

func (pm *PoolManager) afterInitializePool(caller common.Address, key PoolKey, tick int32, sqrtRatio fixedpoint.SqrtRatio) error {
	code, err := pm.extensionCode(key, pm.lockHolder(), HookAfterInitializePool)
	if code == nil {
		return err
	}
	h, ok := code.(AfterInitializePoolHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookAfterInitializePool)
	}
	return hookFailed(key.Config.Extension, HookAfterInitializePool, h.AfterInitializePool(pm, caller, key, tick, sqrtRatio))
}

func (pm *PoolManager) beforeSwap(locker Locker, key PoolKey, params SwapParams) error {
	code, err := pm.extensionCode(key, locker.Addr, HookBeforeSwap)
	if code == nil {
		return err
	}
	h, ok := code.(BeforeSwapHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookBeforeSwap)
	}
	return hookFailed(key.Config.Extension, HookBeforeSwap, h.BeforeSwap(pm, locker, key, params))
}

func (pm *PoolManager) afterSwap(locker Locker, key PoolKey, params SwapParams, delta BalanceDelta, state PoolState) error {
	code, err := pm.extensionCode(key, locker.Addr, HookAfterSwap)
	if code == nil {
		return err
	}
	h, ok := code.(AfterSwapHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookAfterSwap)
	}
	return hookFailed(key.Config.Extension, HookAfterSwap, h.AfterSwap(pm, locker, key, params, delta, state))
}

func (pm *PoolManager) beforeUpdatePosition(locker Locker, key PoolKey, pid PositionID, liquidityDelta *big.Int) error {
	code, err := pm.extensionCode(key, locker.Addr, HookBeforeUpdatePosition)
	if code == nil {
		return err
	}
	h, ok := code.(BeforeUpdatePositionHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookBeforeUpdatePosition)
	}
	return hookFailed(key.Config.Extension, HookBeforeUpdatePosition, h.BeforeUpdatePosition(pm, locker, key, pid, liquidityDelta))
}

func (pm *PoolManager) afterUpdatePosition(locker Locker, key PoolKey, pid PositionID, liquidityDelta *big.Int, delta BalanceDelta) error {
	code, err := pm.extensionCode(key, locker.Addr, HookAfterUpdatePosition)
	if code == nil {
		return err
	}
	h, ok := code.(AfterUpdatePositionHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookAfterUpdatePosition)
	}
	return hookFailed(key.Config.Extension, HookAfterUpdatePosition, h.AfterUpdatePosition(pm, locker, key, pid, liquidityDelta, delta))
}

func (pm *PoolManager) beforeCollectFees(locker Locker, key PoolKey, pid PositionID) error {
	code, err := pm.extensionCode(key, locker.Addr, HookBeforeCollectFees)
	if code == nil {
		return err
	}
	h, ok := code.(BeforeCollectFeesHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookBeforeCollectFees)
	}
	return hookFailed(key.Config.Extension, HookBeforeCollectFees, h.BeforeCollectFees(pm, locker, key, pid))
}

func (pm *PoolManager) afterCollectFees(locker Locker, key PoolKey, pid PositionID, amount0, amount1 *uint256.Int) error {
	code, err := pm.extensionCode(key, locker.Addr, HookAfterCollectFees)
	if code == nil {
		return err
	}
	h, ok := code.(AfterCollectFeesHook)
	if !ok {
		return hookUnsupported(key.Config.Extension, HookAfterCollectFees)
	}
	return hookFailed(key.Config.Extension, HookAfterCollectFees, h.AfterCollectFees(pm, locker, key, pid, amount0, amount1))
}

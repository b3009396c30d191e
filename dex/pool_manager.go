// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/luxfi/ammcore/fixedpoint"
	"github.com/luxfi/ammcore/tickbitmap"
)

// PoolManager is the singleton holding every pool, position, saved balance
// and extension registration. Mutations go through a Tx obtained from Lock,
// except pool initialization and extension registration which may also run
// outside a lock.
//
// Writes are buffered in a journal over the database and reach it in one
// batch when the outermost lock (or a standalone operation) succeeds. A
// PoolManager is not safe for concurrent use; lockers re-enter it on the
// same goroutine.
type PoolManager struct {
	addr    common.Address
	journal *journal
	state   StateDB
	ticks   *fixedpoint.TickCache
	log     log.Logger
	metrics *Metrics

	// active is the frame allowed to act; nil outside any lock
	active     *Tx
	nextLockID uint32
	// depth counts the atomic sections in progress; only the outermost commits
	depth int
}

// NewPoolManager creates a pool manager over db. A nil logger falls back to
// the root logger and nil metrics are created unregistered.
func NewPoolManager(cfg Config, db database.Database, state StateDB, logger log.Logger, metrics *Metrics) (*PoolManager, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	ticks, err := fixedpoint.NewTickCache(cfg.TickCacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Root()
	}
	if metrics == nil {
		if metrics, err = NewMetrics(cfg.MetricsNamespace, nil); err != nil {
			return nil, err
		}
	}
	return &PoolManager{
		addr:    common.HexToAddress(cfg.Address),
		journal: newJournal(db),
		state:   state,
		ticks:   ticks,
		log:     logger,
		metrics: metrics,
	}, nil
}

// Address returns the address the pool manager holds assets under.
func (pm *PoolManager) Address() common.Address {
	return pm.addr
}

// atomic runs fn and undoes its storage and state writes if it fails or
// panics. The outermost successful section commits the journal to the
// database, so nested sections never commit writes an enclosing one may
// still revert.
func (pm *PoolManager) atomic(fn func() error) error {
	jsnap, ssnap := pm.journal.snapshot(), pm.state.Snapshot()
	pm.depth++
	done := false
	defer func() {
		pm.depth--
		if !done {
			pm.journal.revertTo(jsnap)
			pm.state.RevertToSnapshot(ssnap)
		}
	}()
	if err := fn(); err != nil {
		return err
	}
	if pm.depth == 1 {
		if err := pm.journal.commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	done = true
	return nil
}

// =========================================================================
// Pool initialization
// =========================================================================

// InitializePool sets the starting price of a pool at tick. caller is the
// account initializing the pool and is passed to the extension hooks. The
// hooks always run unless the pool's extension holds the active lock.
func (pm *PoolManager) InitializePool(caller common.Address, key PoolKey, tick int32) (fixedpoint.SqrtRatio, error) {
	var sqrtRatio fixedpoint.SqrtRatio
	if err := key.Validate(); err != nil {
		return sqrtRatio, err
	}
	if tick < fixedpoint.MinTick || tick > fixedpoint.MaxTick {
		return sqrtRatio, fmt.Errorf("%w: %d", ErrInvalidTick, tick)
	}
	if ext := key.Config.Extension; ext != (common.Address{}) {
		if _, ok, err := pm.extensionMask(ext); err != nil {
			return sqrtRatio, err
		} else if !ok {
			return sqrtRatio, fmt.Errorf("%w: %s", ErrExtensionNotRegistered, ext.Hex())
		}
	}

	id := key.ID()
	err := pm.atomic(func() error {
		if err := pm.beforeInitializePool(caller, key, tick); err != nil {
			return err
		}
		state, err := pm.loadPoolState(id)
		if err != nil {
			return err
		}
		if state.IsInitialized() {
			return fmt.Errorf("%w: %s", ErrPoolAlreadyInitialized, id.Hex())
		}
		if sqrtRatio, err = pm.ticks.SqrtRatio(tick); err != nil {
			return err
		}
		state = PoolState{SqrtRatio: sqrtRatio, Tick: tick, Liquidity: new(uint256.Int)}
		pm.storePoolState(id, state)
		if err := pm.emitPoolInitialized(id, key, state); err != nil {
			return err
		}
		return pm.afterInitializePool(caller, key, tick, sqrtRatio)
	})
	if err != nil {
		return fixedpoint.SqrtRatio{}, err
	}
	pm.log.Info("pool initialized",
		"pool", id.Hex(),
		"token0", key.Token0.Hex(),
		"token1", key.Token1.Hex(),
		"tick", tick,
	)
	return sqrtRatio, nil
}

// =========================================================================
// Views
// =========================================================================

// PoolState returns the price and active liquidity of a pool. An unknown
// pool has a zero sqrt ratio.
func (pm *PoolManager) PoolState(id PoolID) (PoolState, error) {
	return pm.loadPoolState(id)
}

// PoolFeesPerLiquidity returns the global fee accumulators of a pool.
func (pm *PoolManager) PoolFeesPerLiquidity(id PoolID) (FeesPerLiquidity, error) {
	return pm.loadPoolFees(id)
}

// TickInfo returns the record of an initialized tick, or an empty record.
func (pm *PoolManager) TickInfo(id PoolID, tick int32) (TickInfo, error) {
	return pm.loadTick(id, tick)
}

// IsTickInitialized reports whether tick is set in the pool's bitmap.
func (pm *PoolManager) IsTickInitialized(key PoolKey, tick int32) (bool, error) {
	if !key.Config.IsConcentrated() {
		return false, nil
	}
	return pm.bitmap(key.ID()).IsInitialized(tick, key.Config.TickSpacing())
}

// PoolPositions returns the stored position of owner.
func (pm *PoolManager) PoolPositions(id PoolID, owner common.Address, pid PositionID) (Position, error) {
	return pm.loadPosition(id, owner, pid)
}

// =========================================================================
// Storage helpers
// =========================================================================

func (pm *PoolManager) loadPoolState(id PoolID) (PoolState, error) {
	raw, err := pm.journal.get(poolStateKey(id))
	if err != nil {
		return PoolState{}, err
	}
	return decodePoolState(raw), nil
}

func (pm *PoolManager) storePoolState(id PoolID, s PoolState) {
	pm.journal.put(poolStateKey(id), encodePoolState(s))
}

func (pm *PoolManager) loadPoolFees(id PoolID) (FeesPerLiquidity, error) {
	raw, err := pm.journal.get(poolFeesKey(id))
	if err != nil {
		return FeesPerLiquidity{}, err
	}
	return decodeFeesPerLiquidity(raw), nil
}

func (pm *PoolManager) storePoolFees(id PoolID, f FeesPerLiquidity) {
	pm.journal.put(poolFeesKey(id), encodeFeesPerLiquidity(f))
}

func (pm *PoolManager) loadTick(id PoolID, tick int32) (TickInfo, error) {
	raw, err := pm.journal.get(tickKey(id, tick))
	if err != nil {
		return TickInfo{}, err
	}
	return decodeTickInfo(raw), nil
}

func (pm *PoolManager) storeTick(id PoolID, tick int32, info TickInfo) {
	if info.LiquidityGross.IsZero() {
		pm.journal.delete(tickKey(id, tick))
		return
	}
	pm.journal.put(tickKey(id, tick), encodeTickInfo(info))
}

func (pm *PoolManager) loadPosition(id PoolID, owner common.Address, pid PositionID) (Position, error) {
	raw, err := pm.journal.get(positionKey(id, owner, pid))
	if err != nil {
		return Position{}, err
	}
	return decodePosition(raw), nil
}

func (pm *PoolManager) storePosition(id PoolID, owner common.Address, pid PositionID, p Position) {
	key := positionKey(id, owner, pid)
	if p.IsEmpty() {
		pm.journal.delete(key)
		return
	}
	pm.journal.put(key, encodePosition(p))
}

func (pm *PoolManager) bitmap(id PoolID) *tickbitmap.Bitmap {
	return tickbitmap.New(poolBitmap{j: pm.journal, id: id})
}

// initializedPoolState loads the state of a pool that must exist.
func (pm *PoolManager) initializedPoolState(id PoolID) (PoolState, error) {
	state, err := pm.loadPoolState(id)
	if err != nil {
		return state, err
	}
	if !state.IsInitialized() {
		return state, fmt.Errorf("%w: %s", ErrPoolNotInitialized, id.Hex())
	}
	return state, nil
}

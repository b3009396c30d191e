// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ammcore/fixedpoint"
)

var (
	testToken0 = common.HexToAddress("0x0000000000000000000000000000000000001000")
	testToken1 = common.HexToAddress("0x0000000000000000000000000000000000002000")
	testUser   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	testOther  = common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	testFunds = new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	testFee   = fixedpoint.FeeFromBips(30)
)

// lockerFunc adapts a function to the Locked interface.
type lockerFunc func(tx *Tx, data []byte) ([]byte, error)

func (f lockerFunc) Locked(tx *Tx, data []byte) ([]byte, error) { return f(tx, data) }

// forwardedFunc adapts a function to the Forwarded interface.
type forwardedFunc func(tx *Tx, original Locker, data []byte) ([]byte, error)

func (f forwardedFunc) Forwarded(tx *Tx, original Locker, data []byte) ([]byte, error) {
	return f(tx, original, data)
}

type testEnv struct {
	t      *testing.T
	db     database.Database
	state  *MemoryStateDB
	pm     *PoolManager
	token0 *MemoryToken
	token1 *MemoryToken
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := memdb.New()
	state := NewMemoryStateDB()
	pm, err := NewPoolManager(DefaultConfig(), db, state, log.NewTestLogger(log.InfoLevel), nil)
	require.NoError(t, err)

	env := &testEnv{
		t:      t,
		db:     db,
		state:  state,
		pm:     pm,
		token0: DeployMemoryToken(state, testToken0),
		token1: DeployMemoryToken(state, testToken1),
	}
	env.fund(testUser)
	return env
}

// fund mints both tokens to addr and approves the pool manager.
func (e *testEnv) fund(addr common.Address) {
	for _, token := range []*MemoryToken{e.token0, e.token1} {
		token.Mint(addr, testFunds)
		token.Approve(addr, e.pm.Address(), testFunds)
	}
}

// lock runs fn inside a lock opened by addr.
func (e *testEnv) lock(addr common.Address, fn func(tx *Tx) error) error {
	e.state.SetCode(addr, lockerFunc(func(tx *Tx, _ []byte) ([]byte, error) {
		return nil, fn(tx)
	}))
	_, err := e.pm.Lock(addr, nil)
	return err
}

func concentratedKey(spacing int32, ext common.Address) PoolKey {
	return PoolKey{
		Token0: testToken0,
		Token1: testToken1,
		Config: NewConcentratedPoolConfig(testFee, spacing, ext),
	}
}

// newPool initializes a concentrated pool at tick 0 with a 1e6 liquidity
// position over [-600, 600) owned by testUser.
func (e *testEnv) newPool() PoolKey {
	e.t.Helper()
	key := concentratedKey(60, common.Address{})
	_, err := e.pm.InitializePool(testUser, key, 0)
	require.NoError(e.t, err)
	require.NoError(e.t, e.lock(testUser, func(tx *Tx) error {
		if _, err := tx.UpdatePosition(key, testPosition, big.NewInt(1_000_000)); err != nil {
			return err
		}
		return settle(tx, key.Token0, key.Token1)
	}))
	return key
}

var testPosition = PositionID{Lower: -600, Upper: 600}

// settle pays every positive debt and withdraws every negative one to the
// frame's locker.
func settle(tx *Tx, tokens ...common.Address) error {
	for _, token := range tokens {
		debt, err := tx.Debt(token)
		if err != nil {
			return err
		}
		amount, _ := uint256.FromBig(new(big.Int).Abs(debt))
		switch debt.Sign() {
		case 1:
			err = tx.Pay(token, amount)
		case -1:
			err = tx.Withdraw(token, tx.Locker().Addr, amount)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func swapParams(amount int64, isToken1 bool) SwapParams {
	p := SwapParams{Amount: big.NewInt(amount), IsToken1: isToken1}
	p.SqrtRatioLimit = fixedpoint.MinSqrtRatio
	if p.IsPriceIncreasing() {
		p.SqrtRatioLimit = fixedpoint.MaxSqrtRatio
	}
	return p
}

func mustSqrtRatio(t *testing.T, tick int32) fixedpoint.SqrtRatio {
	t.Helper()
	r, err := fixedpoint.TickToSqrtRatio(tick)
	require.NoError(t, err)
	return r
}

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 0)
	require.True(t, ok, s)
	return v
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ammcore/fixedpoint"
)

// swapOnce swaps in a lock opened by testUser and settles the result.
func (e *testEnv) swapOnce(key PoolKey, params SwapParams) (BalanceDelta, PoolState, error) {
	var (
		delta BalanceDelta
		after PoolState
	)
	err := e.lock(testUser, func(tx *Tx) error {
		var err error
		if delta, after, err = tx.Swap(key, params); err != nil {
			return err
		}
		return settle(tx, key.Token0, key.Token1)
	})
	return delta, after, err
}

func TestSwap(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		isToken1  bool
		want0     int64
		want1     int64
		wantTick  int32
		wantRatio string // packed compact encoding
	}{
		{
			name:      "exact input token0",
			amount:    1000,
			want0:     1000,
			want1:     -996,
			wantTick:  -20,
			wantRatio: "0x7fefae71a5c0091de6828864",
		},
		{
			name:      "exact input token1",
			amount:    1000,
			isToken1:  true,
			want0:     -996,
			want1:     1000,
			wantTick:  19,
			wantRatio: "0x80000000401055b899392189",
		},
		{
			name:      "exact output token1",
			amount:    -1000,
			isToken1:  true,
			want0:     1006,
			want1:     -1000,
			wantTick:  -21,
			wantRatio: "0x7fef9db22d0e5604189374bc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t)
			key := env.newPool()

			delta, state, err := env.swapOnce(key, swapParams(tt.amount, tt.isToken1))
			require.NoError(err)
			require.Equal(big.NewInt(tt.want0), delta.Amount0)
			require.Equal(big.NewInt(tt.want1), delta.Amount1)
			require.Equal(tt.wantTick, state.Tick)
			packed := state.SqrtRatio.Bytes()
			require.Equal(tt.wantRatio, "0x"+common.Bytes2Hex(packed[:]))
			require.Equal(uint256.NewInt(1_000_000), state.Liquidity)

			stored, err := env.pm.PoolState(key.ID())
			require.NoError(err)
			require.Equal(state, stored)
		})
	}
}

func TestSwapAccruesFeesOnInputToken(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	key := env.newPool()

	_, _, err := env.swapOnce(key, swapParams(1000, false))
	require.NoError(err)

	// ceil(1000 * 30 / 10000) = 3 token0 over 1e6 liquidity
	fees, err := env.pm.PoolFeesPerLiquidity(key.ID())
	require.NoError(err)
	want := new(uint256.Int).Lsh(uint256.NewInt(3), 128)
	want.Div(want, uint256.NewInt(1_000_000))
	require.Equal(want, fees.Value0)
	require.True(fees.Value1.IsZero())

	// the locker paid 1000 token0 and received 996 token1
	require.Equal(new(uint256.Int).Sub(testFunds, uint256.NewInt(29554+1000)), env.token0.BalanceOf(testUser))
	require.Equal(new(uint256.Int).Sub(testFunds, uint256.NewInt(29554-996)), env.token1.BalanceOf(testUser))
}

func TestSwapCrossesInitializedTick(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	key := env.newPool()

	params := SwapParams{
		Amount:         big.NewInt(1_000_000_000),
		SqrtRatioLimit: mustSqrtRatio(t, -1200),
	}
	delta, state, err := env.swapOnce(key, params)
	require.NoError(err)
	require.Equal(big.NewInt(30545), delta.Amount0)
	require.Equal(big.NewInt(-29553), delta.Amount1)
	require.Equal(int32(-1200), state.Tick)
	require.Equal(params.SqrtRatioLimit, state.SqrtRatio)
	require.True(state.Liquidity.IsZero())

	// the lower tick's outside checkpoint now holds every fee earned
	fees, err := env.pm.PoolFeesPerLiquidity(key.ID())
	require.NoError(err)
	want := new(uint256.Int).Lsh(uint256.NewInt(92), 128)
	want.Div(want, uint256.NewInt(1_000_000))
	require.Equal(want, fees.Value0)

	info, err := env.pm.TickInfo(key.ID(), -600)
	require.NoError(err)
	require.Equal(fees.Value0, info.FeesOutside.Value0)
	require.Equal(big.NewInt(1_000_000), info.LiquidityNet)

	// swapping back re-enters the range and restores the liquidity
	_, state, err = env.swapOnce(key, swapParams(40_000, true))
	require.NoError(err)
	require.Equal(uint256.NewInt(1_000_000), state.Liquidity)
	require.Greater(state.Tick, int32(-600))
}

func TestSwapStopsAtLimit(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	key := env.newPool()

	limit := mustSqrtRatio(t, -10)
	params := SwapParams{Amount: big.NewInt(1000), SqrtRatioLimit: limit}
	delta, state, err := env.swapOnce(key, params)
	require.NoError(err)
	require.Equal(limit, state.SqrtRatio)
	lower := mustSqrtRatio(t, state.Tick)
	upper := mustSqrtRatio(t, state.Tick+1)
	require.False(limit.Lt(lower))
	require.True(limit.Lt(upper))
	require.Less(delta.Amount0.Int64(), int64(1000))
	require.Negative(delta.Amount1.Sign())
}

func TestSwapValidation(t *testing.T) {
	minInt128 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	tests := []struct {
		name    string
		params  func(t *testing.T) SwapParams
		wantErr error
	}{
		{
			name: "limit above price for a decreasing swap",
			params: func(t *testing.T) SwapParams {
				return SwapParams{Amount: big.NewInt(10), SqrtRatioLimit: mustSqrtRatio(t, 60)}
			},
			wantErr: ErrInvalidSqrtRatioLimit,
		},
		{
			name: "limit below price for an increasing swap",
			params: func(t *testing.T) SwapParams {
				return SwapParams{Amount: big.NewInt(10), IsToken1: true, SqrtRatioLimit: mustSqrtRatio(t, -60)}
			},
			wantErr: ErrInvalidSqrtRatioLimit,
		},
		{
			name: "limit below the minimum ratio",
			params: func(*testing.T) SwapParams {
				return SwapParams{Amount: big.NewInt(10), SqrtRatioLimit: fixedpoint.SqrtRatio{}}
			},
			wantErr: ErrInvalidSqrtRatioLimit,
		},
		{
			name: "minimum int128 amount",
			params: func(*testing.T) SwapParams {
				return SwapParams{Amount: minInt128, IsToken1: true, SqrtRatioLimit: fixedpoint.MinSqrtRatio}
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "nil amount",
			params: func(*testing.T) SwapParams {
				return SwapParams{SqrtRatioLimit: fixedpoint.MinSqrtRatio}
			},
			wantErr: ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			key := env.newPool()
			_, _, err := env.swapOnce(key, tt.params(t))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSwapZeroAmount(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	key := env.newPool()

	delta, state, err := env.swapOnce(key, swapParams(0, false))
	require.NoError(err)
	require.True(delta.IsZero())
	require.Equal(int32(0), state.Tick)
}

func TestSwapUninitializedPool(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.swapOnce(concentratedKey(10, common.Address{}), swapParams(10, false))
	require.ErrorIs(t, err, ErrPoolNotInitialized)
}

func TestSwapEmitsEvent(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	key := env.newPool()

	_, _, err := env.swapOnce(key, swapParams(1000, false))
	require.NoError(err)

	var found bool
	for _, l := range env.state.Logs() {
		if l.Topics[0] != EventSwapped.Topic {
			continue
		}
		found = true
		require.Equal(common.Hash(key.ID()), l.Topics[1])
		values, err := EventSwapped.Unpack(l.Data)
		require.NoError(err)
		require.Equal(testUser, values[0])
		require.Equal(big.NewInt(1000), values[1])
		require.Equal(big.NewInt(-996), values[2])
		require.Equal(int32(-20), values[4])
	}
	require.True(found)
}

func TestSwapMetrics(t *testing.T) {
	require := require.New(t)
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics("test", reg)
	require.NoError(err)

	env := newTestEnv(t)
	env.pm.metrics = metrics
	key := env.newPool()

	_, _, err = env.swapOnce(key, SwapParams{Amount: big.NewInt(1_000_000_000), SqrtRatioLimit: mustSqrtRatio(t, -1200)})
	require.NoError(err)
	require.Equal(float64(1), testutil.ToFloat64(metrics.swaps))
	require.Equal(float64(1), testutil.ToFloat64(metrics.ticksCrossed))
	require.Equal(float64(2), testutil.ToFloat64(metrics.locks))
	require.Zero(testutil.ToFloat64(metrics.lockFailures))
}

// TestSwapSolvency runs random swaps and checks that every position can
// still be withdrawn with its fees, so the pool manager never owes more
// than it holds.
func TestSwapSolvency(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	key := concentratedKey(10, common.Address{})
	_, err := env.pm.InitializePool(testUser, key, 0)
	require.NoError(err)

	positions := []struct {
		id        PositionID
		liquidity *big.Int
	}{
		{PositionID{Lower: -1000, Upper: 1000}, big.NewInt(1_000_000_000)},
		{PositionID{Lower: -200, Upper: 50}, big.NewInt(300_000_000)},
		{PositionID{Lower: 100, Upper: 2000}, big.NewInt(500_000_000)},
	}
	require.NoError(env.lock(testUser, func(tx *Tx) error {
		for _, p := range positions {
			if _, err := tx.UpdatePosition(key, p.id, p.liquidity); err != nil {
				return err
			}
		}
		return settle(tx, key.Token0, key.Token1)
	}))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		amount := rng.Int63n(2_000_000) + 1
		if rng.Intn(3) == 0 {
			amount = -amount
		}
		params := swapParams(amount, rng.Intn(2) == 0)
		_, _, err := env.swapOnce(key, params)
		require.NoError(err, "swap %d", i)
	}

	require.NoError(env.lock(testUser, func(tx *Tx) error {
		for _, p := range positions {
			if _, err := tx.UpdatePosition(key, p.id, new(big.Int).Neg(p.liquidity)); err != nil {
				return err
			}
			if _, _, err := tx.CollectFees(key, p.id); err != nil {
				return err
			}
		}
		return settle(tx, key.Token0, key.Token1)
	}))

	state, err := env.pm.PoolState(key.ID())
	require.NoError(err)
	require.True(state.Liquidity.IsZero())
}

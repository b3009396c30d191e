// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/ammcore/dex"
	"github.com/luxfi/ammcore/fixedpoint"
)

var (
	simulatorAddr = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	token0Addr    = common.HexToAddress("0x0000000000000000000000000000000000001000")
	token1Addr    = common.HexToAddress("0x0000000000000000000000000000000000002000")
)

func runTick(cmd *cobra.Command, args []string) error {
	tick, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("parse tick: %w", err)
	}
	r, err := fixedpoint.TickToSqrtRatio(int32(tick))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "compact %s\nx128    %s\n", r, r.ToFixed().Dec())
	return nil
}

// simulator seeds a position and swaps against it inside one lock, then
// settles every debt from its own token balances.
type simulator struct {
	key       dex.PoolKey
	position  dex.PositionID
	liquidity *big.Int
	params    dex.SwapParams

	delta dex.BalanceDelta
	state dex.PoolState
}

func (s *simulator) Locked(tx *dex.Tx, _ []byte) ([]byte, error) {
	if _, err := tx.UpdatePosition(s.key, s.position, s.liquidity); err != nil {
		return nil, fmt.Errorf("seed position: %w", err)
	}
	delta, state, err := tx.Swap(s.key, s.params)
	if err != nil {
		return nil, fmt.Errorf("swap: %w", err)
	}
	s.delta, s.state = delta, state

	for _, token := range []common.Address{s.key.Token0, s.key.Token1} {
		debt, err := tx.Debt(token)
		if err != nil {
			return nil, err
		}
		amount, _ := uint256.FromBig(new(big.Int).Abs(debt))
		switch debt.Sign() {
		case 1:
			err = tx.Pay(token, amount)
		case -1:
			err = tx.Withdraw(token, tx.Locker().Addr, amount)
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfgFile, _ := flags.GetString("config")
	cfg, err := dex.LoadConfig(cfgFile, flags)
	if err != nil {
		return err
	}

	feeBips, _ := flags.GetUint64("fee-bips")
	spacing, _ := flags.GetInt32("tick-spacing")
	startTick, _ := flags.GetInt32("start-tick")
	lower, _ := flags.GetInt32("lower")
	upper, _ := flags.GetInt32("upper")
	liquidityStr, _ := flags.GetString("liquidity")
	amountStr, _ := flags.GetString("amount")
	isToken1, _ := flags.GetBool("token1")
	skipAhead, _ := flags.GetUint32("skip-ahead")

	liquidity, ok := new(big.Int).SetString(liquidityStr, 10)
	if !ok {
		return fmt.Errorf("invalid liquidity %q", liquidityStr)
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return fmt.Errorf("invalid amount %q", amountStr)
	}

	state := dex.NewMemoryStateDB()
	pm, err := dex.NewPoolManager(cfg, memdb.New(), state, log.Root(), nil)
	if err != nil {
		return err
	}

	funds := new(uint256.Int).Lsh(uint256.NewInt(1), 120)
	for _, addr := range []common.Address{token0Addr, token1Addr} {
		token := dex.DeployMemoryToken(state, addr)
		token.Mint(simulatorAddr, funds)
		token.Approve(simulatorAddr, pm.Address(), funds)
	}

	key := dex.PoolKey{
		Token0: token0Addr,
		Token1: token1Addr,
		Config: dex.NewConcentratedPoolConfig(fixedpoint.FeeFromBips(feeBips), spacing, common.Address{}),
	}
	if _, err := pm.InitializePool(simulatorAddr, key, startTick); err != nil {
		return err
	}

	params := dex.SwapParams{Amount: amount, IsToken1: isToken1, SkipAhead: skipAhead}
	params.SqrtRatioLimit = fixedpoint.MinSqrtRatio
	if params.IsPriceIncreasing() {
		params.SqrtRatioLimit = fixedpoint.MaxSqrtRatio
	}
	sim := &simulator{
		key:       key,
		position:  dex.PositionID{Lower: lower, Upper: upper},
		liquidity: liquidity,
		params:    params,
	}
	state.SetCode(simulatorAddr, sim)
	if _, err := pm.Lock(simulatorAddr, nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "manager    %s\n", pm.Address().Hex())
	fmt.Fprintf(out, "pool       %s\n", key.ID().Hex())
	fmt.Fprintf(out, "delta0     %s\n", sim.delta.Amount0)
	fmt.Fprintf(out, "delta1     %s\n", sim.delta.Amount1)
	fmt.Fprintf(out, "sqrt ratio %s\n", sim.state.SqrtRatio)
	fmt.Fprintf(out, "tick       %d\n", sim.state.Tick)
	fmt.Fprintf(out, "liquidity  %s\n", sim.state.Liquidity.Dec())
	return nil
}

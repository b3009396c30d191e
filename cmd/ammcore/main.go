// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/ammcore/dex"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ammcore",
		Short:        "AMM settlement core tools",
		SilenceUsage: true,
	}

	def := dex.DefaultConfig()
	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("address", def.Address, "pool manager address")
	root.PersistentFlags().Int("tick-cache-size", def.TickCacheSize, "tick conversions kept in memory")
	root.PersistentFlags().String("metrics-namespace", def.MetricsNamespace, "metrics name prefix")

	tickCmd := &cobra.Command{
		Use:   "tick <tick>",
		Short: "Print the sqrt ratio of a tick",
		Args:  cobra.ExactArgs(1),
		RunE:  runTick,
	}
	root.AddCommand(tickCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Swap against a fresh in-memory concentrated pool",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Uint64("fee-bips", 30, "pool fee in basis points")
	simulateCmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	simulateCmd.Flags().Int32("start-tick", 0, "initial pool tick")
	simulateCmd.Flags().Int32("lower", -600, "lower tick of the seeded position")
	simulateCmd.Flags().Int32("upper", 600, "upper tick of the seeded position")
	simulateCmd.Flags().String("liquidity", "1000000", "liquidity of the seeded position")
	simulateCmd.Flags().String("amount", "1000", "swap amount, negative for exact output")
	simulateCmd.Flags().Bool("token1", false, "specify the amount in token1")
	simulateCmd.Flags().Uint32("skip-ahead", 0, "empty bitmap words a step may skip")
	root.AddCommand(simulateCmd)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

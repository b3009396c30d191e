// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ammcore/dex"
)

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	require := require.New(t)
	out, err := execute("simulate")
	require.NoError(err)
	require.Contains(out, "manager    "+common.HexToAddress(dex.PoolManagerAddress).Hex())
	require.Contains(out, "delta0     1000\n")
	require.Contains(out, "delta1     -996\n")
	require.Contains(out, "tick       -20\n")
}

func TestSimulateConfigFlags(t *testing.T) {
	require := require.New(t)

	addr := common.HexToAddress("0x000000000000000000000000000000000000beef")
	out, err := execute("simulate", "--address", addr.Hex())
	require.NoError(err)
	require.Contains(out, "manager    "+addr.Hex())

	_, err = execute("simulate", "--tick-cache-size", "0")
	require.ErrorIs(err, dex.ErrInvalidConfig)
}

func TestTick(t *testing.T) {
	require := require.New(t)
	out, err := execute("tick", "0")
	require.NoError(err)
	require.Contains(out, "x128    340282366920938463463374607431768211456\n")

	_, err = execute("tick", "nope")
	require.Error(err)
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateDBRevert(t *testing.T) {
	require := require.New(t)
	s := NewMemoryStateDB()
	slot := common.Hash{1}

	s.SetState(testOther, slot, common.Hash{2})
	s.AddBalance(testOther, uint256.NewInt(10))
	snap := s.Snapshot()

	s.SetState(testOther, slot, common.Hash{3})
	s.SubBalance(testOther, uint256.NewInt(4))
	s.SetCode(testOther, lockerFunc(nil))
	s.AddLog(&types.Log{Address: testOther})
	require.True(s.Exist(testOther))
	require.Len(s.Logs(), 1)

	s.RevertToSnapshot(snap)
	require.Equal(common.Hash{2}, s.GetState(testOther, slot))
	require.Equal(uint256.NewInt(10), s.GetBalance(testOther))
	require.Nil(s.GetCode(testOther))
	require.Empty(s.Logs())
}

func TestMemoryStateDBLogs(t *testing.T) {
	require := require.New(t)
	s := NewMemoryStateDB()
	s.SetBlockNumber(42)
	s.AddLog(&types.Log{})
	s.AddLog(&types.Log{})

	logs := s.Logs()
	require.Len(logs, 2)
	require.Equal(uint(1), logs[1].Index)
	require.Equal(uint64(42), logs[1].BlockNumber)
	require.Equal(uint64(42), s.GetBlockNumber())
}

func TestMemoryStateDBSubBalanceUnderflow(t *testing.T) {
	s := NewMemoryStateDB()
	require.Panics(t, func() { s.SubBalance(testOther, uint256.NewInt(1)) })
}

func TestMemoryToken(t *testing.T) {
	require := require.New(t)
	s := NewMemoryStateDB()
	token := DeployMemoryToken(s, testToken0)
	require.Equal(testToken0, token.Address())
	require.Equal(Contract(token), s.GetCode(testToken0))

	token.Mint(testUser, uint256.NewInt(100))
	require.NoError(token.Transfer(testUser, testOther, uint256.NewInt(30)))
	require.Equal(uint256.NewInt(70), token.BalanceOf(testUser))
	require.Equal(uint256.NewInt(30), token.BalanceOf(testOther))
	require.ErrorIs(token.Transfer(testOther, testUser, uint256.NewInt(31)), ErrInsufficientBalance)

	spender := common.Address{9}
	require.ErrorIs(token.TransferFrom(spender, testUser, testOther, uint256.NewInt(1)), ErrInsufficientAllowance)
	token.Approve(testUser, spender, uint256.NewInt(50))
	require.NoError(token.TransferFrom(spender, testUser, testOther, uint256.NewInt(20)))
	require.Equal(uint256.NewInt(30), token.Allowance(testUser, spender))
	require.Equal(uint256.NewInt(50), token.BalanceOf(testUser))

	// balances live in state and revert with it
	snap := s.Snapshot()
	token.Mint(testUser, uint256.NewInt(1000))
	s.RevertToSnapshot(snap)
	require.Equal(uint256.NewInt(50), token.BalanceOf(testUser))
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestEventTopic(t *testing.T) {
	require := require.New(t)

	transfer := newEvent("Transfer", "address", "address", "uint256")
	require.Equal(common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"), transfer.Topic)

	// the indexed parameter is part of the signature but not of the data
	data, err := transfer.data.Pack(testOther, big.NewInt(5))
	require.NoError(err)
	require.Len(data, 64)
	values, err := transfer.Unpack(data)
	require.NoError(err)
	require.Equal(testOther, values[0])
	require.Equal(big.NewInt(5), values[1])

	topics := map[common.Hash]string{}
	for _, e := range []Event{
		EventPoolInitialized, EventSwapped, EventPositionUpdated, EventFeesCollected,
		EventFeesAccumulated, EventExtensionRegistered, EventSavedBalancesUpdated,
	} {
		require.NotContains(topics, e.Topic, e.Name)
		topics[e.Topic] = e.Name
	}
}

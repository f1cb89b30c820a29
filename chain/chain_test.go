/*
Copyright 2025 SafeSend Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesendhq/safesend/config"
)

func TestNewClientWithoutKeyIsNoop(t *testing.T) {
	client, err := NewClient(context.Background(), config.ChainConfig{})
	require.NoError(t, err)
	_, ok := client.(NoopClient)
	assert.True(t, ok)
}

func TestNoopClientMovesNothing(t *testing.T) {
	client := NoopClient{}
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")

	hash, err := client.TransferIn(context.Background(), addr, big.NewInt(1))
	require.NoError(t, err)
	assert.Empty(t, hash)

	hash, err = client.TransferOut(context.Background(), addr, big.NewInt(1))
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestNewEthClientRequiresRPC(t *testing.T) {
	_, err := NewEthClient(context.Background(), config.ChainConfig{
		PrivateKey: "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	})
	require.Error(t, err)
}

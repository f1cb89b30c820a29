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
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/safesendhq/safesend/config"
)

// erc20ABI covers the two movements custody needs. TransferIn relies on
// the party having approved the custody wallet beforehand.
const erc20ABI = `[
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"transferFrom","type":"function","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// EthClient moves PYUSD through the token contract from a custody wallet.
type EthClient struct {
	client    *ethclient.Client
	contract  *bind.BoundContract
	custody   common.Address
	chainID   *big.Int
	transacts *bind.TransactOpts
}

// NewClient selects the custody backend: an EthClient when a signing key
// is configured, the ledger-only NoopClient otherwise.
func NewClient(ctx context.Context, cfg config.ChainConfig) (Client, error) {
	if cfg.PrivateKey == "" {
		return NoopClient{}, nil
	}
	return NewEthClient(ctx, cfg)
}

func NewEthClient(ctx context.Context, cfg config.ChainConfig) (*EthClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.TokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}

	cli, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	pk, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	chainID, err := cli.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	txOpts, err := bind.NewKeyedTransactorWithChainID(pk, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	txOpts.GasLimit = 0 // let node estimate
	txOpts.GasPrice = nil
	txOpts.Nonce = nil

	token := common.HexToAddress(cfg.TokenAddress)
	return &EthClient{
		client:    cli,
		contract:  bind.NewBoundContract(token, parsedABI, cli, cli, cli),
		custody:   crypto.PubkeyToAddress(pk.PublicKey),
		chainID:   chainID,
		transacts: txOpts,
	}, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

func (c *EthClient) TransferIn(ctx context.Context, from common.Address, amount *big.Int) (string, error) {
	opts := *c.transacts
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, "transferFrom", from, c.custody, amount)
	if err != nil {
		return "", fmt.Errorf("transfer in: %w", err)
	}
	return tx.Hash().Hex(), nil
}

func (c *EthClient) TransferOut(ctx context.Context, to common.Address, amount *big.Int) (string, error) {
	opts := *c.transacts
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, "transfer", to, amount)
	if err != nil {
		return "", fmt.Errorf("transfer out: %w", err)
	}
	return tx.Hash().Hex(), nil
}

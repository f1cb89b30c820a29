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

// Package chain mirrors ledger fund movements onto the PYUSD token
// contract. The ledger is authoritative; the chain client is an optional
// custody backend selected by configuration. A transfer failure aborts the
// whole operation before anything is committed.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Client executes token custody movements. TransferIn pulls tokens from a
// party into custody, TransferOut pays them back out. Both return the
// transaction hash for the audit trail.
type Client interface {
	TransferIn(ctx context.Context, from common.Address, amount *big.Int) (string, error)
	TransferOut(ctx context.Context, to common.Address, amount *big.Int) (string, error)
}

// NoopClient is the default custody backend: funds live entirely in the
// postgres ledger and no chain transaction is made.
type NoopClient struct{}

func (NoopClient) TransferIn(_ context.Context, _ common.Address, _ *big.Int) (string, error) {
	return "", nil
}

func (NoopClient) TransferOut(_ context.Context, _ common.Address, _ *big.Int) (string, error) {
	return "", nil
}

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

package safesend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

// FundAccount credits a ledger account. This is the on-ramp: deposits into
// custody land here before any escrow or offer can spend them.
func (s *SafeSend) FundAccount(ctx context.Context, address common.Address, amount *big.Int) (*model.LedgerAccount, error) {
	ctx, span := tracer.Start(ctx, "Funding ledger account")
	defer span.End()

	if model.IsZeroAddress(address) {
		return nil, apierror.NewAPIError(apierror.ErrInvalidParty, "Account address is required", nil)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidAmount, "Amount must be greater than zero", nil)
	}

	account, err := s.datasource.FundAccount(ctx, address, amount)
	if err != nil {
		return nil, logAndRecordError(span, "fund account error: ", err)
	}
	return account, nil
}

func (s *SafeSend) GetAccount(ctx context.Context, address common.Address) (*model.LedgerAccount, error) {
	return s.datasource.GetAccount(ctx, address)
}

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
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesendhq/safesend/internal/apierror"
)

func TestFundAccountRejectsNonPositiveAmount(t *testing.T) {
	service, _ := newTestSafeSend(t)

	_, err := service.FundAccount(context.Background(), testBuyer, big.NewInt(0))
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidAmount))
}

func TestFundAccountRejectsZeroAddress(t *testing.T) {
	service, _ := newTestSafeSend(t)

	_, err := service.FundAccount(context.Background(), common.Address{}, big.NewInt(100_000_000))
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidParty))
}

func TestFundAccount(t *testing.T) {
	service, mock := newTestSafeSend(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.ledger_accounts")).
		WithArgs(strings.ToLower(testBuyer.Hex()), "100000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM safesend.ledger_accounts")).
		WithArgs(strings.ToLower(testBuyer.Hex())).
		WillReturnRows(sqlmock.NewRows([]string{"address", "balance", "updated_at"}).
			AddRow(strings.ToLower(testBuyer.Hex()), "100000000", time.Now()))

	account, err := service.FundAccount(context.Background(), testBuyer, big.NewInt(100_000_000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100_000_000), account.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount(t *testing.T) {
	service, mock := newTestSafeSend(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM safesend.ledger_accounts")).
		WithArgs(strings.ToLower(testBuyer.Hex())).
		WillReturnRows(sqlmock.NewRows([]string{"address", "balance", "updated_at"}).
			AddRow(strings.ToLower(testBuyer.Hex()), "250000000", time.Now()))

	account, err := service.GetAccount(context.Background(), testBuyer)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(250_000_000), account.Balance)
}

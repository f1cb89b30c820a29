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

package database

import (
	"context"
	"math/big"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

func escrowRows(id int64, amount string, status model.EscrowStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"escrow_id", "buyer", "seller", "amount", "description", "status", "fraud_flagged", "created_at"}).
		AddRow(id, strings.ToLower(buyerAddr.Hex()), strings.ToLower(sellerAddr.Hex()), amount, "Website design", string(status), status == model.EscrowStatusFraudFlagged, time.Now())
}

func TestCreateEscrow(t *testing.T) {
	ds, mock := newTestDatasource(t)

	esc := &model.Escrow{
		Buyer:       buyerAddr,
		Seller:      sellerAddr,
		Amount:      big.NewInt(100_000_000),
		Description: "Website design",
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE safesend.ledger_accounts")).
		WithArgs(strings.ToLower(buyerAddr.Hex()), "100000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO safesend.escrows")).
		WithArgs(strings.ToLower(buyerAddr.Hex()), strings.ToLower(sellerAddr.Hex()), "100000000", "Website design", model.EscrowStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"escrow_id", "created_at"}).AddRow(int64(42), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.transitions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, transition, err := ds.CreateEscrow(context.Background(), esc, "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, model.EscrowStatusActive, created.Status)
	assert.True(t, strings.HasPrefix(transition.TransitionID, "txn_"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEscrowInsufficientBalance(t *testing.T) {
	ds, mock := newTestDatasource(t)

	esc := &model.Escrow{
		Buyer:  buyerAddr,
		Seller: sellerAddr,
		Amount: big.NewInt(100_000_000),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE safesend.ledger_accounts")).
		WithArgs(strings.ToLower(buyerAddr.Hex()), "100000000").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := ds.CreateEscrow(context.Background(), esc, "")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrTransferFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleEscrowRelease(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(escrowRows(42, "100000000", model.EscrowStatusActive))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE safesend.escrows")).
		WithArgs(int64(42), model.EscrowStatusReleased, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.ledger_accounts")).
		WithArgs(strings.ToLower(sellerAddr.Hex()), "100000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.transitions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	settled, _, err := ds.SettleEscrow(context.Background(), 42, model.EscrowStatusReleased, sellerAddr, buyerAddr, "")
	require.NoError(t, err)
	assert.Equal(t, model.EscrowStatusReleased, settled.Status)
	assert.False(t, settled.FraudFlagged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleEscrowFraudFlag(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(escrowRows(7, "250000000", model.EscrowStatusActive))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE safesend.escrows")).
		WithArgs(int64(7), model.EscrowStatusFraudFlagged, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.ledger_accounts")).
		WithArgs(strings.ToLower(buyerAddr.Hex()), "250000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.transitions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	settled, _, err := ds.SettleEscrow(context.Background(), 7, model.EscrowStatusFraudFlagged, buyerAddr, ownerAddr, "")
	require.NoError(t, err)
	assert.True(t, settled.FraudFlagged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleEscrowAlreadyTerminal(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(escrowRows(42, "100000000", model.EscrowStatusReleased))
	mock.ExpectRollback()

	_, _, err := ds.SettleEscrow(context.Background(), 42, model.EscrowStatusRefunded, buyerAddr, buyerAddr, "")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidState))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleEscrowNonTerminalTarget(t *testing.T) {
	ds, _ := newTestDatasource(t)

	_, _, err := ds.SettleEscrow(context.Background(), 42, model.EscrowStatusActive, sellerAddr, buyerAddr, "")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidState))
}

func TestGetEscrowNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM safesend.escrows")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"escrow_id"}))

	_, err := ds.GetEscrow(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestGetEscrowsByBuyer(t *testing.T) {
	ds, mock := newTestDatasource(t)

	rows := escrowRows(1, "100000000", model.EscrowStatusActive)
	rows.AddRow(int64(2), strings.ToLower(buyerAddr.Hex()), strings.ToLower(sellerAddr.Hex()), "50000000", "Logo", string(model.EscrowStatusReleased), false, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE buyer =")).
		WithArgs(strings.ToLower(buyerAddr.Hex())).
		WillReturnRows(rows)

	escrows, err := ds.GetEscrowsByBuyer(context.Background(), buyerAddr)
	require.NoError(t, err)
	require.Len(t, escrows, 2)
	assert.Equal(t, big.NewInt(50_000_000), escrows[1].Amount)
}

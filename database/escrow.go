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
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

// CreateEscrow debits the buyer and opens the escrow in one transaction.
// The deposit either holds the full amount or leaves no trace.
func (d Datasource) CreateEscrow(ctx context.Context, esc *model.Escrow, txHash string) (*model.Escrow, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := d.debitAccount(ctx, tx, esc.Buyer, esc.Amount); err != nil {
		return nil, nil, err
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO safesend.escrows (buyer, seller, amount, description, status, fraud_flagged, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, FALSE, NOW())
		RETURNING escrow_id, created_at
	`, strings.ToLower(esc.Buyer.Hex()), strings.ToLower(esc.Seller.Hex()), esc.Amount.String(), esc.Description, model.EscrowStatusActive)
	if err := row.Scan(&esc.ID, &esc.CreatedAt); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create escrow", err)
	}
	esc.Status = model.EscrowStatusActive

	transition := model.NewTransition(model.EntityEscrow, strconv.FormatInt(esc.ID, 10), "", string(model.EscrowStatusActive), esc.Buyer, esc.Amount)
	transition.TxHash = txHash
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return esc, transition, nil
}

func (d Datasource) GetEscrow(ctx context.Context, id int64) (*model.Escrow, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT escrow_id, buyer, seller, amount, description, status, fraud_flagged, created_at
		FROM safesend.escrows
		WHERE escrow_id = $1
	`, id)

	esc, err := scanEscrow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Escrow %d not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve escrow", err)
	}
	return esc, nil
}

func (d Datasource) GetEscrowsByBuyer(ctx context.Context, buyer common.Address) ([]*model.Escrow, error) {
	return d.queryEscrows(ctx, "buyer", buyer)
}

func (d Datasource) GetEscrowsBySeller(ctx context.Context, seller common.Address) ([]*model.Escrow, error) {
	return d.queryEscrows(ctx, "seller", seller)
}

func (d Datasource) queryEscrows(ctx context.Context, column string, address common.Address) ([]*model.Escrow, error) {
	query := fmt.Sprintf(`
		SELECT escrow_id, buyer, seller, amount, description, status, fraud_flagged, created_at
		FROM safesend.escrows
		WHERE %s = $1
		ORDER BY created_at DESC
	`, column)
	rows, err := d.Conn.QueryContext(ctx, query, strings.ToLower(address.Hex()))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve escrows", err)
	}
	defer rows.Close()

	escrows := []*model.Escrow{}
	for rows.Next() {
		esc, err := scanEscrow(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan escrow", err)
		}
		escrows = append(escrows, esc)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve escrows", err)
	}
	return escrows, nil
}

// SettleEscrow moves an escrow from ACTIVE to a terminal status and pays
// the held amount out to recipient, all inside one transaction. The row is
// locked first so concurrent settlements of the same escrow serialize; the
// loser of the race sees a terminal status and gets INVALID_STATE.
func (d Datasource) SettleEscrow(ctx context.Context, id int64, to model.EscrowStatus, recipient common.Address, actor common.Address, txHash string) (*model.Escrow, *model.Transition, error) {
	if !to.Terminal() {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Cannot settle escrow into status %s", to), nil)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
		SELECT escrow_id, buyer, seller, amount, description, status, fraud_flagged, created_at
		FROM safesend.escrows
		WHERE escrow_id = $1
		FOR UPDATE
	`, id)
	esc, err := scanEscrow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Escrow %d not found", id), err)
		}
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve escrow", err)
	}

	if esc.Status != model.EscrowStatusActive {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Escrow %d is already %s", id, esc.Status), nil)
	}

	fraudFlagged := to == model.EscrowStatusFraudFlagged
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.escrows
		SET status = $2, fraud_flagged = $3
		WHERE escrow_id = $1
	`, id, to, fraudFlagged)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update escrow", err)
	}

	if err := d.creditAccount(ctx, tx, recipient, esc.Amount); err != nil {
		return nil, nil, err
	}

	transition := model.NewTransition(model.EntityEscrow, strconv.FormatInt(id, 10), string(model.EscrowStatusActive), string(to), actor, esc.Amount)
	transition.TxHash = txHash
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	esc.Status = to
	esc.FraudFlagged = fraudFlagged
	return esc, transition, nil
}

func scanEscrow(row rowScanner) (*model.Escrow, error) {
	esc := &model.Escrow{}
	var buyerStr, sellerStr, amountStr, statusStr string
	err := row.Scan(&esc.ID, &buyerStr, &sellerStr, &amountStr, &esc.Description, &statusStr, &esc.FraudFlagged, &esc.CreatedAt)
	if err != nil {
		return nil, err
	}
	esc.Buyer = common.HexToAddress(buyerStr)
	esc.Seller = common.HexToAddress(sellerStr)
	esc.Amount, err = parseBigInt(amountStr)
	if err != nil {
		return nil, err
	}
	esc.Status = model.EscrowStatus(statusStr)
	return esc, nil
}

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
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

// debitAccount moves amount out of an account inside tx. The balance check
// and the update are a single statement, so a concurrent debit can never
// drive the balance negative.
func (d Datasource) debitAccount(ctx context.Context, tx *sql.Tx, address common.Address, amount *big.Int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE safesend.ledger_accounts
		SET balance = balance - $2::numeric, updated_at = NOW()
		WHERE address = $1 AND balance >= $2::numeric
	`, strings.ToLower(address.Hex()), amount.String())
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to debit account", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrTransferFailed, "Insufficient balance", fmt.Sprintf("account %s cannot cover %s", address.Hex(), amount.String()))
	}
	return nil
}

// creditAccount moves amount into an account inside tx, creating the
// account row on first use.
func (d Datasource) creditAccount(ctx context.Context, tx *sql.Tx, address common.Address, amount *big.Int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO safesend.ledger_accounts (address, balance, updated_at)
		VALUES ($1, $2::numeric, NOW())
		ON CONFLICT (address) DO UPDATE
		SET balance = safesend.ledger_accounts.balance + EXCLUDED.balance, updated_at = NOW()
	`, strings.ToLower(address.Hex()), amount.String())
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to credit account", err)
	}
	return nil
}

// recordTransition appends the audit row for a state change inside tx.
func (d Datasource) recordTransition(ctx context.Context, tx *sql.Tx, t *model.Transition) error {
	amount := "0"
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO safesend.transitions (transition_id, entity_type, entity_id, from_status, to_status, actor, amount, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9)
	`, t.TransitionID, t.EntityType, t.EntityID, t.FromStatus, t.ToStatus, strings.ToLower(t.Actor.Hex()), amount, t.TxHash, t.CreatedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transition", err)
	}
	return nil
}

func (d Datasource) GetAccount(ctx context.Context, address common.Address) (*model.LedgerAccount, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT address, balance, updated_at
		FROM safesend.ledger_accounts
		WHERE address = $1
	`, strings.ToLower(address.Hex()))

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Accounts are created lazily on first credit; an unknown
			// address simply has a zero balance.
			return &model.LedgerAccount{Address: address, Balance: big.NewInt(0)}, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}
	return account, nil
}

func (d Datasource) FundAccount(ctx context.Context, address common.Address, amount *big.Int) (*model.LedgerAccount, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := d.creditAccount(ctx, tx, address, amount); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return d.GetAccount(ctx, address)
}

func (d Datasource) GetAuthority(ctx context.Context) (*model.Authority, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT owner, fraud_oracle, updated_at
		FROM safesend.authority
		WHERE id = 1
	`)

	var ownerStr, oracleStr string
	authority := &model.Authority{}
	err := row.Scan(&ownerStr, &oracleStr, &authority.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Authority not configured", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve authority", err)
	}
	authority.Owner = common.HexToAddress(ownerStr)
	authority.FraudOracle = common.HexToAddress(oracleStr)
	return authority, nil
}

// EnsureAuthority seeds the singleton authority row on first boot. A later
// boot with a different owner keeps the stored one; ownership does not
// follow configuration changes.
func (d Datasource) EnsureAuthority(ctx context.Context, owner common.Address) (*model.Authority, error) {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO safesend.authority (id, owner, fraud_oracle, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`, strings.ToLower(owner.Hex()), strings.ToLower(common.Address{}.Hex()))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to seed authority", err)
	}
	return d.GetAuthority(ctx)
}

// UpdateFraudOracle swaps the oracle address and appends the audit
// transition in one transaction. The transition records the replaced and
// the new oracle.
func (d Datasource) UpdateFraudOracle(ctx context.Context, oracle common.Address, actor common.Address) (*model.Authority, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var previous string
	err = tx.QueryRowContext(ctx, `
		SELECT fraud_oracle FROM safesend.authority
		WHERE id = 1
		FOR UPDATE
	`).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, "Authority not configured", err)
		}
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve authority", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.authority
		SET fraud_oracle = $1, updated_at = NOW()
		WHERE id = 1
	`, strings.ToLower(oracle.Hex()))
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update fraud oracle", err)
	}

	transition := model.NewTransition(model.EntityAuthority, "1", previous, strings.ToLower(oracle.Hex()), actor, big.NewInt(0))
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	authority, err := d.GetAuthority(ctx)
	if err != nil {
		return nil, nil, err
	}
	return authority, transition, nil
}

func (d Datasource) GetTransitions(ctx context.Context, entityType string, entityID string) ([]*model.Transition, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT transition_id, entity_type, entity_id, from_status, to_status, actor, amount, tx_hash, created_at
		FROM safesend.transitions
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC
	`, entityType, entityID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transitions", err)
	}
	defer rows.Close()

	transitions := []*model.Transition{}
	for rows.Next() {
		t := &model.Transition{}
		var actorStr, amountStr string
		var txHash sql.NullString
		err := rows.Scan(&t.TransitionID, &t.EntityType, &t.EntityID, &t.FromStatus, &t.ToStatus, &actorStr, &amountStr, &txHash, &t.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transition", err)
		}
		t.Actor = common.HexToAddress(actorStr)
		t.Amount, err = parseBigInt(amountStr)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transition", err)
		}
		t.TxHash = txHash.String
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transitions", err)
	}
	return transitions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*model.LedgerAccount, error) {
	account := &model.LedgerAccount{}
	var addressStr, balanceStr string
	var updatedAt time.Time
	if err := row.Scan(&addressStr, &balanceStr, &updatedAt); err != nil {
		return nil, err
	}
	balance, err := parseBigInt(balanceStr)
	if err != nil {
		return nil, err
	}
	account.Address = common.HexToAddress(addressStr)
	account.Balance = balance
	account.UpdatedAt = updatedAt
	return account, nil
}

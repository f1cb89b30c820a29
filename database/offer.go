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

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

// offerState derives the audit label for an offer's current position in
// its lifecycle. Recorded on both sides of every transition.
func offerState(o *model.Offer) string {
	switch {
	case o.IsCompleted:
		return "COMPLETED"
	case o.IsFunded:
		return "FUNDED"
	case !o.IsActive:
		return "DEACTIVATED"
	default:
		return "OPEN"
	}
}

func (d Datasource) CreateOffer(ctx context.Context, off *model.Offer) (*model.Offer, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO safesend.offers (offer_id, owner, title, description, service_type, deliverables, deadline, amount, deposit_amount, is_active, client, is_accepted, is_funded, is_completed, held_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, TRUE, $10, FALSE, FALSE, FALSE, 0, $11)
	`, off.OfferID, strings.ToLower(off.Owner.Hex()), off.Title, off.Description, off.ServiceType, off.Deliverables,
		off.Deadline, off.Amount.String(), off.DepositAmount.String(), strings.ToLower(common.Address{}.Hex()), off.CreatedAt)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create offer", err)
	}
	off.IsActive = true
	off.HeldAmount = big.NewInt(0)

	transition := model.NewTransition(model.EntityOffer, off.OfferID, "", offerState(off), off.Owner, nil)
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return off, transition, nil
}

func (d Datasource) GetOffer(ctx context.Context, offerID string) (*model.Offer, error) {
	row := d.Conn.QueryRowContext(ctx, offerSelect+` WHERE offer_id = $1`, offerID)
	off, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Offer %s not found", offerID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve offer", err)
	}
	return off, nil
}

func (d Datasource) GetOffersByOwner(ctx context.Context, owner common.Address) ([]*model.Offer, error) {
	return d.queryOffers(ctx, "owner", owner)
}

func (d Datasource) GetOffersByClient(ctx context.Context, client common.Address) ([]*model.Offer, error) {
	return d.queryOffers(ctx, "client", client)
}

func (d Datasource) queryOffers(ctx context.Context, column string, address common.Address) ([]*model.Offer, error) {
	query := fmt.Sprintf(offerSelect+` WHERE %s = $1 ORDER BY created_at DESC`, column)
	rows, err := d.Conn.QueryContext(ctx, query, strings.ToLower(address.Hex()))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve offers", err)
	}
	defer rows.Close()

	offers := []*model.Offer{}
	for rows.Next() {
		off, err := scanOffer(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan offer", err)
		}
		offers = append(offers, off)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve offers", err)
	}
	return offers, nil
}

func (d Datasource) GetOfferRequest(ctx context.Context, offerID string, client common.Address) (*model.OfferRequest, error) {
	row := d.Conn.QueryRowContext(ctx, requestSelect+`
		WHERE offer_id = $1 AND client_address = $2
		ORDER BY requested_at DESC
		LIMIT 1
	`, offerID, strings.ToLower(client.Hex()))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("No request from %s on offer %s", client.Hex(), offerID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve request", err)
	}
	return req, nil
}

func (d Datasource) GetOfferRequests(ctx context.Context, offerID string) ([]*model.OfferRequest, error) {
	rows, err := d.Conn.QueryContext(ctx, requestSelect+`
		WHERE offer_id = $1
		ORDER BY requested_at ASC
	`, offerID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve requests", err)
	}
	defer rows.Close()

	requests := []*model.OfferRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan request", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve requests", err)
	}
	return requests, nil
}

// FundOffer records a client's request and takes their payment in one
// transaction: the offer row is locked, preconditions checked against the
// locked state, the client debited, the request inserted, and the offer
// marked accepted and funded. Any failure rolls everything back.
func (d Datasource) FundOffer(ctx context.Context, offerID string, client common.Address, message string, txHash string) (*model.OfferRequest, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	off, err := d.lockOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if !off.IsActive {
		return nil, nil, apierror.NewAPIError(apierror.ErrOfferInactive, fmt.Sprintf("Offer %s is not active", offerID), nil)
	}
	if off.IsAccepted {
		return nil, nil, apierror.NewAPIError(apierror.ErrOfferAlreadyAccepted, fmt.Sprintf("Offer %s already has an accepted client", offerID), nil)
	}
	if client == off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrOwnerCannotRequest, "Owner cannot request their own offer", nil)
	}

	var pending int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM safesend.offer_requests
		WHERE offer_id = $1 AND client_address = $2 AND is_rejected = FALSE
	`, offerID, strings.ToLower(client.Hex())).Scan(&pending)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check existing requests", err)
	}
	if pending > 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrDuplicateRequest, fmt.Sprintf("Client %s already has a pending request on offer %s", client.Hex(), offerID), nil)
	}

	// Deposit workflow: when a deposit amount is set, only the deposit is
	// due up front.
	payment := off.Amount
	if off.DepositAmount != nil && off.DepositAmount.Sign() > 0 {
		payment = off.DepositAmount
	}

	if err := d.debitAccount(ctx, tx, client, payment); err != nil {
		return nil, nil, err
	}

	req := &model.OfferRequest{
		RequestID:     model.GenerateUUIDWithSuffix("req"),
		OfferID:       offerID,
		ClientAddress: client,
		Message:       message,
		PaidAmount:    model.CloneBigInt(payment),
		Refundable:    big.NewInt(0),
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO safesend.offer_requests (request_id, offer_id, client_address, message, requested_at, is_rejected, paid_amount, refundable)
		VALUES ($1, $2, $3, $4, NOW(), FALSE, $5::numeric, 0)
		RETURNING requested_at
	`, req.RequestID, offerID, strings.ToLower(client.Hex()), message, payment.String())
	if err := row.Scan(&req.RequestedAt); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record request", err)
	}

	fromState := offerState(off)
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offers
		SET is_accepted = TRUE, is_funded = TRUE, client = $2, held_amount = held_amount + $3::numeric
		WHERE offer_id = $1
	`, offerID, strings.ToLower(client.Hex()), payment.String())
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update offer", err)
	}
	off.IsAccepted = true
	off.IsFunded = true
	off.Client = client

	transition := model.NewTransition(model.EntityOffer, offerID, fromState, offerState(off), client, payment)
	transition.TxHash = txHash
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return req, transition, nil
}

// RejectOfferRequest marks the client's pending request rejected and makes
// their payment refundable. Rejecting the currently accepted client also
// reopens the offer to new requests.
func (d Datasource) RejectOfferRequest(ctx context.Context, offerID string, client common.Address, actor common.Address) (*model.OfferRequest, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	off, err := d.lockOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if actor != off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the offer owner can reject requests", nil)
	}

	row := tx.QueryRowContext(ctx, requestSelect+`
		WHERE offer_id = $1 AND client_address = $2 AND is_rejected = FALSE
		ORDER BY requested_at DESC
		LIMIT 1
		FOR UPDATE
	`, offerID, strings.ToLower(client.Hex()))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("No pending request from %s on offer %s", client.Hex(), offerID), err)
		}
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve request", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offer_requests
		SET is_rejected = TRUE, refundable = paid_amount
		WHERE request_id = $1
	`, req.RequestID)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reject request", err)
	}
	req.IsRejected = true
	req.Refundable = model.CloneBigInt(req.PaidAmount)

	fromState := offerState(off)
	if off.IsAccepted && off.Client == client {
		_, err = tx.ExecContext(ctx, `
			UPDATE safesend.offers
			SET is_accepted = FALSE, is_funded = FALSE, client = $2
			WHERE offer_id = $1
		`, offerID, strings.ToLower(common.Address{}.Hex()))
		if err != nil {
			return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reopen offer", err)
		}
		off.IsAccepted = false
		off.IsFunded = false
		off.Client = common.Address{}
	}

	transition := model.NewTransition(model.EntityOffer, offerID, fromState, offerState(off), actor, req.PaidAmount)
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return req, transition, nil
}

// WithdrawRejectedRequest pays a rejected client back exactly what they
// paid. The refundable balance is zeroed in the same transaction, so a
// second withdrawal finds nothing.
func (d Datasource) WithdrawRejectedRequest(ctx context.Context, offerID string, client common.Address, txHash string) (*model.OfferRequest, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	off, err := d.lockOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}

	row := tx.QueryRowContext(ctx, requestSelect+`
		WHERE offer_id = $1 AND client_address = $2 AND is_rejected = TRUE AND refundable > 0
		ORDER BY requested_at DESC
		LIMIT 1
		FOR UPDATE
	`, offerID, strings.ToLower(client.Hex()))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Nothing to withdraw for %s on offer %s", client.Hex(), offerID), err)
		}
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve request", err)
	}

	refund := req.Refundable
	if err := d.creditAccount(ctx, tx, client, refund); err != nil {
		return nil, nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offer_requests SET refundable = 0 WHERE request_id = $1
	`, req.RequestID)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to settle refund", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offers SET held_amount = held_amount - $2::numeric WHERE offer_id = $1
	`, offerID, refund.String())
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to release held funds", err)
	}

	state := offerState(off)
	transition := model.NewTransition(model.EntityOffer, offerID, state, state, client, refund)
	transition.TxHash = txHash
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	req.Refundable = big.NewInt(0)
	return req, transition, nil
}

func (d Datasource) CompleteOffer(ctx context.Context, offerID string, actor common.Address) (*model.Offer, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	off, err := d.lockOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if actor != off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the offer owner can complete the offer", nil)
	}
	if off.IsCompleted {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Offer %s is already completed", offerID), nil)
	}
	if !off.IsFunded {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotFunded, fmt.Sprintf("Offer %s has not been funded", offerID), nil)
	}

	fromState := offerState(off)
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offers SET is_completed = TRUE WHERE offer_id = $1
	`, offerID)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to complete offer", err)
	}
	off.IsCompleted = true

	transition := model.NewTransition(model.EntityOffer, offerID, fromState, offerState(off), actor, nil)
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return off, transition, nil
}

// WithdrawOfferFunds pays the owner the held balance, net of anything
// still owed to rejected clients.
func (d Datasource) WithdrawOfferFunds(ctx context.Context, offerID string, actor common.Address, txHash string) (*model.Offer, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	off, err := d.lockOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if actor != off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the offer owner can withdraw funds", nil)
	}
	if !off.IsCompleted {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotCompleted, fmt.Sprintf("Offer %s has not been completed", offerID), nil)
	}

	payout, err := d.withdrawableBalance(ctx, tx, off)
	if err != nil {
		return nil, nil, err
	}
	if payout.Sign() <= 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, fmt.Sprintf("Offer %s has no withdrawable balance", offerID), nil)
	}

	if err := d.creditAccount(ctx, tx, off.Owner, payout); err != nil {
		return nil, nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offers SET held_amount = held_amount - $2::numeric WHERE offer_id = $1
	`, offerID, payout.String())
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to release held funds", err)
	}
	off.HeldAmount = new(big.Int).Sub(off.HeldAmount, payout)

	state := offerState(off)
	transition := model.NewTransition(model.EntityOffer, offerID, state, state, actor, payout)
	transition.TxHash = txHash
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return off, transition, nil
}

func (d Datasource) DeactivateOffer(ctx context.Context, offerID string, actor common.Address) (*model.Offer, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	off, err := d.lockOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if actor != off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the offer owner can deactivate the offer", nil)
	}
	if off.IsAccepted {
		return nil, nil, apierror.NewAPIError(apierror.ErrOfferAlreadyAccepted, fmt.Sprintf("Offer %s has an accepted client", offerID), nil)
	}
	if !off.IsActive {
		return nil, nil, apierror.NewAPIError(apierror.ErrOfferInactive, fmt.Sprintf("Offer %s is already inactive", offerID), nil)
	}

	fromState := offerState(off)
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offers SET is_active = FALSE WHERE offer_id = $1
	`, offerID)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to deactivate offer", err)
	}
	off.IsActive = false

	transition := model.NewTransition(model.EntityOffer, offerID, fromState, offerState(off), actor, nil)
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return off, transition, nil
}

// EmergencyWithdraw recovers a stranded balance. It is deliberately gated
// to offers with no accepted client and no completion in flight, so the
// owner cannot use it to skip the completion requirement, and it never
// touches funds owed to rejected clients.
func (d Datasource) EmergencyWithdraw(ctx context.Context, offerID string, actor common.Address, txHash string) (*model.Offer, *model.Transition, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	off, err := d.lockOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if actor != off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the offer owner can withdraw funds", nil)
	}
	if off.IsAccepted || off.IsCompleted {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Offer %s has an active client relationship", offerID), nil)
	}

	surplus, err := d.withdrawableBalance(ctx, tx, off)
	if err != nil {
		return nil, nil, err
	}
	if surplus.Sign() <= 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, fmt.Sprintf("Offer %s has no stranded balance", offerID), nil)
	}

	if err := d.creditAccount(ctx, tx, off.Owner, surplus); err != nil {
		return nil, nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE safesend.offers SET held_amount = held_amount - $2::numeric WHERE offer_id = $1
	`, offerID, surplus.String())
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to release held funds", err)
	}
	off.HeldAmount = new(big.Int).Sub(off.HeldAmount, surplus)

	state := offerState(off)
	transition := model.NewTransition(model.EntityOffer, offerID, state, state, actor, surplus)
	transition.TxHash = txHash
	if err := d.recordTransition(ctx, tx, transition); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return off, transition, nil
}

// withdrawableBalance is the held amount minus everything still owed to
// rejected clients.
func (d Datasource) withdrawableBalance(ctx context.Context, tx *sql.Tx, off *model.Offer) (*big.Int, error) {
	var owedStr string
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(refundable), 0) FROM safesend.offer_requests
		WHERE offer_id = $1 AND is_rejected = TRUE
	`, off.OfferID).Scan(&owedStr)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to sum refundable balances", err)
	}
	owed, err := parseBigInt(owedStr)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to sum refundable balances", err)
	}
	return new(big.Int).Sub(off.HeldAmount, owed), nil
}

func (d Datasource) lockOffer(ctx context.Context, tx *sql.Tx, offerID string) (*model.Offer, error) {
	row := tx.QueryRowContext(ctx, offerSelect+` WHERE offer_id = $1 FOR UPDATE`, offerID)
	off, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Offer %s not found", offerID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve offer", err)
	}
	return off, nil
}

const offerSelect = `
	SELECT offer_id, owner, title, description, service_type, deliverables, deadline, amount, deposit_amount, is_active, client, is_accepted, is_funded, is_completed, held_amount, created_at
	FROM safesend.offers`

const requestSelect = `
	SELECT request_id, offer_id, client_address, message, requested_at, is_rejected, paid_amount, refundable
	FROM safesend.offer_requests`

func scanOffer(row rowScanner) (*model.Offer, error) {
	off := &model.Offer{}
	var ownerStr, clientStr, amountStr, depositStr, heldStr string
	err := row.Scan(&off.OfferID, &ownerStr, &off.Title, &off.Description, &off.ServiceType, &off.Deliverables,
		&off.Deadline, &amountStr, &depositStr, &off.IsActive, &clientStr, &off.IsAccepted, &off.IsFunded,
		&off.IsCompleted, &heldStr, &off.CreatedAt)
	if err != nil {
		return nil, err
	}
	off.Owner = common.HexToAddress(ownerStr)
	off.Client = common.HexToAddress(clientStr)
	if off.Amount, err = parseBigInt(amountStr); err != nil {
		return nil, err
	}
	if off.DepositAmount, err = parseBigInt(depositStr); err != nil {
		return nil, err
	}
	if off.HeldAmount, err = parseBigInt(heldStr); err != nil {
		return nil, err
	}
	return off, nil
}

func scanRequest(row rowScanner) (*model.OfferRequest, error) {
	req := &model.OfferRequest{}
	var clientStr, paidStr, refundableStr string
	err := row.Scan(&req.RequestID, &req.OfferID, &clientStr, &req.Message, &req.RequestedAt, &req.IsRejected, &paidStr, &refundableStr)
	if err != nil {
		return nil, err
	}
	req.ClientAddress = common.HexToAddress(clientStr)
	if req.PaidAmount, err = parseBigInt(paidStr); err != nil {
		return nil, err
	}
	if req.Refundable, err = parseBigInt(refundableStr); err != nil {
		return nil, err
	}
	return req, nil
}

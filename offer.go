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
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safesendhq/safesend/internal/apierror"
	redlock "github.com/safesendhq/safesend/internal/lock"
	"github.com/safesendhq/safesend/model"
)

// CreateOffer posts a new service offer. No funds move at creation.
func (s *SafeSend) CreateOffer(ctx context.Context, off *model.Offer) (*model.Offer, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Creating offer")
	defer span.End()

	if model.IsZeroAddress(off.Owner) {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidParty, "Owner address is required", nil)
	}
	if off.Amount == nil || off.Amount.Sign() <= 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidAmount, "Amount must be greater than zero", nil)
	}
	if off.DepositAmount == nil {
		off.DepositAmount = big.NewInt(0)
	}
	if off.DepositAmount.Sign() < 0 || off.DepositAmount.Cmp(off.Amount) > 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidAmount, "Deposit amount cannot exceed the offer amount", nil)
	}

	off.OfferID = model.GenerateUUIDWithSuffix("off")
	off.CreatedAt = time.Now()
	created, transition, err := s.datasource.CreateOffer(ctx, off)
	if err != nil {
		return nil, nil, logAndRecordError(span, "create offer error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferCreated, created)
	return created, transition, nil
}

// RequestAndFundOffer records the client's request and takes their payment
// in one transition. The payment is the deposit amount when one is set,
// otherwise the full offer amount.
func (s *SafeSend) RequestAndFundOffer(ctx context.Context, offerID string, client common.Address, message string) (*model.OfferRequest, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Requesting and funding offer")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.OfferKey(offerID))
	if err != nil {
		return nil, nil, logAndRecordError(span, "offer lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	off, err := s.datasource.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}

	// Precondition failures must reject before the custody pull: a client
	// whose request cannot be recorded must never have funds taken.
	if !off.IsActive {
		return nil, nil, apierror.NewAPIError(apierror.ErrOfferInactive, fmt.Sprintf("Offer %s is not active", offerID), nil)
	}
	if off.IsAccepted {
		return nil, nil, apierror.NewAPIError(apierror.ErrOfferAlreadyAccepted, fmt.Sprintf("Offer %s already has an accepted client", offerID), nil)
	}
	if client == off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrOwnerCannotRequest, "Owner cannot request their own offer", nil)
	}
	prior, err := s.datasource.GetOfferRequest(ctx, offerID, client)
	if err != nil && !apierror.Is(err, apierror.ErrNotFound) {
		return nil, nil, err
	}
	if prior != nil && !prior.IsRejected {
		return nil, nil, apierror.NewAPIError(apierror.ErrDuplicateRequest, fmt.Sprintf("Client %s already has a pending request on offer %s", client.Hex(), offerID), nil)
	}

	payment := off.Amount
	if off.DepositAmount != nil && off.DepositAmount.Sign() > 0 {
		payment = off.DepositAmount
	}
	txHash, err := s.custody.TransferIn(ctx, client, payment)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Token custody pull failed", err.Error())
	}

	req, transition, err := s.datasource.FundOffer(ctx, offerID, client, message, txHash)
	if err != nil {
		return nil, nil, logAndRecordError(span, "fund offer error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferFunded, req)
	return req, transition, nil
}

// RejectOfferRequest marks a request rejected and entitles the client to
// withdraw what they paid. Rejecting the funded client reopens the offer.
func (s *SafeSend) RejectOfferRequest(ctx context.Context, offerID string, client, caller common.Address) (*model.OfferRequest, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Rejecting offer request")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.OfferKey(offerID))
	if err != nil {
		return nil, nil, logAndRecordError(span, "offer lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	req, transition, err := s.datasource.RejectOfferRequest(ctx, offerID, client, caller)
	if err != nil {
		return nil, nil, logAndRecordError(span, "reject request error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferRejected, req)
	return req, transition, nil
}

// WithdrawAfterRejection pays a rejected client back exactly what they
// paid. Only the rejected client may withdraw, and only once.
func (s *SafeSend) WithdrawAfterRejection(ctx context.Context, offerID string, client common.Address) (*model.OfferRequest, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Withdrawing after rejection")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.OfferKey(offerID))
	if err != nil {
		return nil, nil, logAndRecordError(span, "offer lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	req, err := s.datasource.GetOfferRequest(ctx, offerID, client)
	if err != nil {
		return nil, nil, err
	}
	if !req.IsRejected || req.Refundable == nil || req.Refundable.Sign() <= 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, "Nothing to withdraw", nil)
	}

	txHash, err := s.custody.TransferOut(ctx, client, req.Refundable)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Token custody payout failed", err.Error())
	}

	settled, transition, err := s.datasource.WithdrawRejectedRequest(ctx, offerID, client, txHash)
	if err != nil {
		return nil, nil, logAndRecordError(span, "withdraw after rejection error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferWithdrawn, settled)
	return settled, transition, nil
}

// CompleteOffer marks the funded work done. Funds do not move until the
// owner withdraws.
func (s *SafeSend) CompleteOffer(ctx context.Context, offerID string, caller common.Address) (*model.Offer, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Completing offer")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.OfferKey(offerID))
	if err != nil {
		return nil, nil, logAndRecordError(span, "offer lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	off, transition, err := s.datasource.CompleteOffer(ctx, offerID, caller)
	if err != nil {
		return nil, nil, logAndRecordError(span, "complete offer error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferCompleted, off)
	return off, transition, nil
}

// WithdrawFunds pays the offer's held balance to the owner once completed,
// leaving anything still owed to rejected clients untouched.
func (s *SafeSend) WithdrawFunds(ctx context.Context, offerID string, caller common.Address) (*model.Offer, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Withdrawing offer funds")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.OfferKey(offerID))
	if err != nil {
		return nil, nil, logAndRecordError(span, "offer lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	off, err := s.datasource.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if caller != off.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the offer owner can withdraw funds", nil)
	}
	if !off.IsCompleted {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotCompleted, fmt.Sprintf("Offer %s has not been completed", offerID), nil)
	}

	payout := model.CloneBigInt(off.HeldAmount)
	requests, err := s.datasource.GetOfferRequests(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	for _, req := range requests {
		if req.IsRejected && req.Refundable != nil {
			payout.Sub(payout, req.Refundable)
		}
	}
	if payout.Sign() <= 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, fmt.Sprintf("Offer %s has no withdrawable balance", offerID), nil)
	}

	txHash, err := s.custody.TransferOut(ctx, off.Owner, payout)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Token custody payout failed", err.Error())
	}

	settled, transition, err := s.datasource.WithdrawOfferFunds(ctx, offerID, caller, txHash)
	if err != nil {
		return nil, nil, logAndRecordError(span, "withdraw funds error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferWithdrawn, settled)
	return settled, transition, nil
}

// DeactivateOffer stops new requests. Only allowed while no client has
// been accepted.
func (s *SafeSend) DeactivateOffer(ctx context.Context, offerID string, caller common.Address) (*model.Offer, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Deactivating offer")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.OfferKey(offerID))
	if err != nil {
		return nil, nil, logAndRecordError(span, "offer lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	off, transition, err := s.datasource.DeactivateOffer(ctx, offerID, caller)
	if err != nil {
		return nil, nil, logAndRecordError(span, "deactivate offer error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferDeactivated, off)
	return off, transition, nil
}

// EmergencyWithdraw recovers a stranded balance for the owner. It is gated
// to offers with no accepted client and never touches refundable balances.
func (s *SafeSend) EmergencyWithdraw(ctx context.Context, offerID string, caller common.Address) (*model.Offer, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Emergency withdrawing offer balance")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.OfferKey(offerID))
	if err != nil {
		return nil, nil, logAndRecordError(span, "offer lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	current, err := s.datasource.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if caller != current.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the offer owner can withdraw funds", nil)
	}

	surplus := model.CloneBigInt(current.HeldAmount)
	requests, err := s.datasource.GetOfferRequests(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	for _, req := range requests {
		if req.IsRejected && req.Refundable != nil {
			surplus.Sub(surplus, req.Refundable)
		}
	}
	if surplus.Sign() <= 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, fmt.Sprintf("Offer %s has no stranded balance", offerID), nil)
	}

	txHash, err := s.custody.TransferOut(ctx, current.Owner, surplus)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Token custody payout failed", err.Error())
	}

	off, transition, err := s.datasource.EmergencyWithdraw(ctx, offerID, caller, txHash)
	if err != nil {
		return nil, nil, logAndRecordError(span, "emergency withdraw error: ", err)
	}

	s.postTransitionActions(ctx, EventOfferWithdrawn, off)
	return off, transition, nil
}

// GetOfferMetadata returns the immutable descriptive fields plus current
// flags.
func (s *SafeSend) GetOfferMetadata(ctx context.Context, offerID string) (*model.Offer, error) {
	return s.datasource.GetOffer(ctx, offerID)
}

// GetOfferStatus projects the progress flags for an offer.
func (s *SafeSend) GetOfferStatus(ctx context.Context, offerID string) (*model.OfferStatus, error) {
	off, err := s.datasource.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	return &model.OfferStatus{
		OfferID:     off.OfferID,
		IsActive:    off.IsActive,
		Client:      off.Client,
		IsAccepted:  off.IsAccepted,
		IsFunded:    off.IsFunded,
		IsCompleted: off.IsCompleted,
		HeldAmount:  model.CloneBigInt(off.HeldAmount),
	}, nil
}

func (s *SafeSend) GetAllOfferRequests(ctx context.Context, offerID string) ([]*model.OfferRequest, error) {
	return s.datasource.GetOfferRequests(ctx, offerID)
}

// GetContractBalance reports the funds currently held for an offer.
func (s *SafeSend) GetContractBalance(ctx context.Context, offerID string) (*big.Int, error) {
	off, err := s.datasource.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	return model.CloneBigInt(off.HeldAmount), nil
}

func (s *SafeSend) GetOwnerOffers(ctx context.Context, owner common.Address) ([]*model.Offer, error) {
	return s.datasource.GetOffersByOwner(ctx, owner)
}

func (s *SafeSend) GetClientOffers(ctx context.Context, client common.Address) ([]*model.Offer, error) {
	return s.datasource.GetOffersByClient(ctx, client)
}

func (s *SafeSend) GetOfferTransitions(ctx context.Context, offerID string) ([]*model.Transition, error) {
	return s.datasource.GetTransitions(ctx, model.EntityOffer, offerID)
}

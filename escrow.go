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

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/trace"

	"github.com/safesendhq/safesend/internal/apierror"
	redlock "github.com/safesendhq/safesend/internal/lock"
	"github.com/safesendhq/safesend/model"
)

// Deposit pulls amount from the buyer into custody and opens an Active
// escrow naming the seller. The custody pull and the escrow creation are
// one atomic transition.
func (s *SafeSend) Deposit(ctx context.Context, buyer, seller common.Address, amount *big.Int, description string) (*model.Escrow, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Depositing escrow")
	defer span.End()

	if model.IsZeroAddress(buyer) {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidParty, "Buyer address is required", nil)
	}
	if model.IsZeroAddress(seller) {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidParty, "Seller address is required", nil)
	}
	if buyer == seller {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidParty, "Buyer and seller must differ", nil)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidAmount, "Amount must be greater than zero", nil)
	}

	txHash, err := s.custody.TransferIn(ctx, buyer, amount)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Token custody pull failed", err.Error())
	}

	esc := &model.Escrow{
		Buyer:       buyer,
		Seller:      seller,
		Amount:      model.CloneBigInt(amount),
		Description: description,
	}
	esc, transition, err := s.datasource.CreateEscrow(ctx, esc, txHash)
	if err != nil {
		return nil, nil, logAndRecordError(span, "create escrow error: ", err)
	}

	s.postTransitionActions(ctx, EventEscrowCreated, esc)
	return esc, transition, nil
}

// Release pays the escrow amount out to the seller. Only the buyer may
// release.
func (s *SafeSend) Release(ctx context.Context, id int64, caller common.Address) (*model.Escrow, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Releasing escrow")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.EscrowKey(id))
	if err != nil {
		return nil, nil, logAndRecordError(span, "escrow lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	esc, err := s.datasource.GetEscrow(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if caller != esc.Buyer {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the buyer can release the escrow", nil)
	}

	return s.settle(ctx, span, esc, model.EscrowStatusReleased, esc.Seller, caller, EventEscrowReleased)
}

// Refund pays the escrow amount back to the buyer. The buyer or the
// configured fraud oracle may refund.
func (s *SafeSend) Refund(ctx context.Context, id int64, caller common.Address) (*model.Escrow, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Refunding escrow")
	defer span.End()

	locker, err := s.acquireLock(ctx, redlock.EscrowKey(id))
	if err != nil {
		return nil, nil, logAndRecordError(span, "escrow lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	esc, err := s.datasource.GetEscrow(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if caller != esc.Buyer {
		authority, err := s.datasource.GetAuthority(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !authority.IsOracle(caller) {
			return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the buyer or the fraud oracle can refund the escrow", nil)
		}
	}

	return s.settle(ctx, span, esc, model.EscrowStatusRefunded, esc.Buyer, caller, EventEscrowRefunded)
}

// MarkFraud is the oracle-only transition: it refunds the buyer and
// permanently flags the escrow. With no oracle configured the operation is
// disabled for everyone.
func (s *SafeSend) MarkFraud(ctx context.Context, id int64, caller common.Address) (*model.Escrow, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Flagging escrow as fraud")
	defer span.End()

	authority, err := s.datasource.GetAuthority(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !authority.IsOracle(caller) {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the fraud oracle can flag fraud", nil)
	}

	locker, err := s.acquireLock(ctx, redlock.EscrowKey(id))
	if err != nil {
		return nil, nil, logAndRecordError(span, "escrow lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	esc, err := s.datasource.GetEscrow(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return s.settle(ctx, span, esc, model.EscrowStatusFraudFlagged, esc.Buyer, caller, EventEscrowFraudFlagged)
}

// settle executes the custody payout plus the terminal status flip. The
// payout is mirrored on chain first; if that fails nothing is committed.
func (s *SafeSend) settle(ctx context.Context, span trace.Span, esc *model.Escrow, to model.EscrowStatus, recipient common.Address, actor common.Address, event string) (*model.Escrow, *model.Transition, error) {
	if esc.Status != model.EscrowStatusActive {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Escrow %d is already %s", esc.ID, esc.Status), nil)
	}

	txHash, err := s.custody.TransferOut(ctx, recipient, esc.Amount)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Token custody payout failed", err.Error())
	}

	settled, transition, err := s.datasource.SettleEscrow(ctx, esc.ID, to, recipient, actor, txHash)
	if err != nil {
		return nil, nil, logAndRecordError(span, "settle escrow error: ", err)
	}

	s.postTransitionActions(ctx, event, settled)
	return settled, transition, nil
}

// UpdateFraudOracle replaces the oracle address. Only the system owner may
// call it; the zero address disables fraud protection. Like every write it
// returns the committed transition.
func (s *SafeSend) UpdateFraudOracle(ctx context.Context, caller, newOracle common.Address) (*model.Authority, *model.Transition, error) {
	ctx, span := tracer.Start(ctx, "Updating fraud oracle")
	defer span.End()

	authority, err := s.datasource.GetAuthority(ctx)
	if err != nil {
		return nil, nil, err
	}
	if caller != authority.Owner {
		return nil, nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the owner can update the fraud oracle", nil)
	}

	updated, transition, err := s.datasource.UpdateFraudOracle(ctx, newOracle, caller)
	if err != nil {
		return nil, nil, logAndRecordError(span, "update fraud oracle error: ", err)
	}
	return updated, transition, nil
}

// GetAuthority returns the owner and oracle configuration. Callers can
// distinguish "oracle unset" from "oracle set to someone else" via
// FraudProtectionActive.
func (s *SafeSend) GetAuthority(ctx context.Context) (*model.Authority, error) {
	return s.datasource.GetAuthority(ctx)
}

func (s *SafeSend) GetEscrow(ctx context.Context, id int64) (*model.Escrow, error) {
	return s.datasource.GetEscrow(ctx, id)
}

func (s *SafeSend) GetBuyerEscrows(ctx context.Context, buyer common.Address) ([]*model.Escrow, error) {
	return s.datasource.GetEscrowsByBuyer(ctx, buyer)
}

func (s *SafeSend) GetSellerEscrows(ctx context.Context, seller common.Address) ([]*model.Escrow, error) {
	return s.datasource.GetEscrowsBySeller(ctx, seller)
}

func (s *SafeSend) GetEscrowTransitions(ctx context.Context, id int64) ([]*model.Transition, error) {
	return s.datasource.GetTransitions(ctx, model.EntityEscrow, fmt.Sprintf("%d", id))
}

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

	"github.com/ethereum/go-ethereum/common"

	"github.com/safesendhq/safesend/model"
)

type IDataSource interface {
	escrow
	offer
	ledger
	authority
	transition
}

type escrow interface {
	CreateEscrow(ctx context.Context, esc *model.Escrow, txHash string) (*model.Escrow, *model.Transition, error)
	GetEscrow(ctx context.Context, id int64) (*model.Escrow, error)
	GetEscrowsByBuyer(ctx context.Context, buyer common.Address) ([]*model.Escrow, error)
	GetEscrowsBySeller(ctx context.Context, seller common.Address) ([]*model.Escrow, error)
	SettleEscrow(ctx context.Context, id int64, to model.EscrowStatus, recipient common.Address, actor common.Address, txHash string) (*model.Escrow, *model.Transition, error)
}

type offer interface {
	CreateOffer(ctx context.Context, off *model.Offer) (*model.Offer, *model.Transition, error)
	GetOffer(ctx context.Context, offerID string) (*model.Offer, error)
	GetOffersByOwner(ctx context.Context, owner common.Address) ([]*model.Offer, error)
	GetOffersByClient(ctx context.Context, client common.Address) ([]*model.Offer, error)
	GetOfferRequest(ctx context.Context, offerID string, client common.Address) (*model.OfferRequest, error)
	GetOfferRequests(ctx context.Context, offerID string) ([]*model.OfferRequest, error)
	FundOffer(ctx context.Context, offerID string, client common.Address, message string, txHash string) (*model.OfferRequest, *model.Transition, error)
	RejectOfferRequest(ctx context.Context, offerID string, client common.Address, actor common.Address) (*model.OfferRequest, *model.Transition, error)
	WithdrawRejectedRequest(ctx context.Context, offerID string, client common.Address, txHash string) (*model.OfferRequest, *model.Transition, error)
	CompleteOffer(ctx context.Context, offerID string, actor common.Address) (*model.Offer, *model.Transition, error)
	WithdrawOfferFunds(ctx context.Context, offerID string, actor common.Address, txHash string) (*model.Offer, *model.Transition, error)
	DeactivateOffer(ctx context.Context, offerID string, actor common.Address) (*model.Offer, *model.Transition, error)
	EmergencyWithdraw(ctx context.Context, offerID string, actor common.Address, txHash string) (*model.Offer, *model.Transition, error)
}

type ledger interface {
	GetAccount(ctx context.Context, address common.Address) (*model.LedgerAccount, error)
	FundAccount(ctx context.Context, address common.Address, amount *big.Int) (*model.LedgerAccount, error)
}

type authority interface {
	GetAuthority(ctx context.Context) (*model.Authority, error)
	EnsureAuthority(ctx context.Context, owner common.Address) (*model.Authority, error)
	UpdateFraudOracle(ctx context.Context, oracle common.Address, actor common.Address) (*model.Authority, *model.Transition, error)
}

type transition interface {
	GetTransitions(ctx context.Context, entityType string, entityID string) ([]*model.Transition, error)
}

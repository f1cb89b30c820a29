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

package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Offer is an owner-posted service listing that a single client can request,
// fund and have fulfilled. Descriptive metadata and prices are immutable after
// creation; IsAccepted, IsFunded and IsCompleted are monotone booleans that
// only move false to true, except that rejecting the currently accepted client
// resets IsAccepted and IsFunded to reopen the offer.
type Offer struct {
	OfferID       string         `json:"offer_id"`
	Owner         common.Address `json:"owner"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	ServiceType   string         `json:"service_type"`
	Deliverables  string         `json:"deliverables"`
	Deadline      time.Time      `json:"deadline"`
	Amount        *big.Int       `json:"amount"`
	DepositAmount *big.Int       `json:"deposit_amount"`
	IsActive      bool           `json:"is_active"`
	Client        common.Address `json:"client"`
	IsAccepted    bool           `json:"is_accepted"`
	IsFunded      bool           `json:"is_funded"`
	IsCompleted   bool           `json:"is_completed"`
	HeldAmount    *big.Int       `json:"held_amount"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Clone returns a deep copy of the offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Amount = CloneBigInt(o.Amount)
	clone.DepositAmount = CloneBigInt(o.DepositAmount)
	clone.HeldAmount = CloneBigInt(o.HeldAmount)
	return &clone
}

// OfferRequest is one client's request against an offer. A given address holds
// at most one live (non-rejected) request per offer. PaidAmount is what the
// client transferred into custody when the request was funded; Refundable is
// the portion they may still withdraw after a rejection.
type OfferRequest struct {
	RequestID     string         `json:"request_id"`
	OfferID       string         `json:"offer_id"`
	ClientAddress common.Address `json:"client_address"`
	Message       string         `json:"message"`
	RequestedAt   time.Time      `json:"requested_at"`
	IsRejected    bool           `json:"is_rejected"`
	PaidAmount    *big.Int       `json:"paid_amount"`
	Refundable    *big.Int       `json:"refundable"`
}

// Clone returns a deep copy of the request.
func (r *OfferRequest) Clone() *OfferRequest {
	if r == nil {
		return nil
	}
	clone := *r
	clone.PaidAmount = CloneBigInt(r.PaidAmount)
	clone.Refundable = CloneBigInt(r.Refundable)
	return &clone
}

// OfferStatus is the projection returned by the status query: the progress
// flags plus the custodied balance, without the descriptive metadata.
type OfferStatus struct {
	OfferID     string         `json:"offer_id"`
	IsActive    bool           `json:"is_active"`
	Client      common.Address `json:"client"`
	IsAccepted  bool           `json:"is_accepted"`
	IsFunded    bool           `json:"is_funded"`
	IsCompleted bool           `json:"is_completed"`
	HeldAmount  *big.Int       `json:"held_amount"`
}

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

// EscrowStatus is the lifecycle state of a single escrow.
type EscrowStatus string

const (
	EscrowStatusActive       EscrowStatus = "ACTIVE"
	EscrowStatusReleased     EscrowStatus = "RELEASED"
	EscrowStatusRefunded     EscrowStatus = "REFUNDED"
	EscrowStatusFraudFlagged EscrowStatus = "FRAUD_FLAGGED"
)

// Valid reports whether the status value is one of the supported states.
func (s EscrowStatus) Valid() bool {
	switch s {
	case EscrowStatusActive, EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusFraudFlagged:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status permits no further balance-moving
// transition.
func (s EscrowStatus) Terminal() bool {
	return s.Valid() && s != EscrowStatusActive
}

// Escrow is a single buyer-to-seller custodial payment record. Ids are
// assigned by a database sequence, monotonically increasing and never reused.
// All fields except Status and FraudFlagged are immutable after creation.
type Escrow struct {
	ID           int64          `json:"id"`
	Buyer        common.Address `json:"buyer"`
	Seller       common.Address `json:"seller"`
	Amount       *big.Int       `json:"amount"`
	Description  string         `json:"description"`
	Status       EscrowStatus   `json:"status"`
	FraudFlagged bool           `json:"fraud_flagged"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Clone returns a deep copy of the escrow so callers can safely mutate the
// copy without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Amount = CloneBigInt(e.Amount)
	return &clone
}

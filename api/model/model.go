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
	"errors"
	"math/big"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/safesendhq/safesend/model"
)

// Amounts cross the wire as decimal PYUSD strings ("100.00") and are
// converted to micro-PYUSD integers at the boundary.

func addressRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := model.ParseAddress(s); err != nil {
		return errors.New("invalid address")
	}
	return nil
}

func amountRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := model.ParseAmount(s); err != nil {
		return errors.New("invalid amount")
	}
	return nil
}

type DepositEscrow struct {
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (d *DepositEscrow) ValidateDepositEscrow() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Buyer, validation.Required, validation.By(addressRule)),
		validation.Field(&d.Seller, validation.Required, validation.By(addressRule)),
		validation.Field(&d.Amount, validation.Required, validation.By(amountRule)),
	)
}

type SettleEscrow struct {
	Caller string `json:"caller"`
}

func (s *SettleEscrow) ValidateSettleEscrow() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Caller, validation.Required, validation.By(addressRule)),
	)
}

type CreateOffer struct {
	Owner         string    `json:"owner"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ServiceType   string    `json:"service_type"`
	Deliverables  string    `json:"deliverables"`
	Deadline      time.Time `json:"deadline"`
	Amount        string    `json:"amount"`
	DepositAmount string    `json:"deposit_amount"`
}

func (c *CreateOffer) ValidateCreateOffer() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required, validation.By(addressRule)),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Amount, validation.Required, validation.By(amountRule)),
		validation.Field(&c.DepositAmount, validation.By(amountRule)),
	)
}

// ToOffer converts the validated request into a domain offer.
func (c *CreateOffer) ToOffer() (*model.Offer, error) {
	owner, err := model.ParseAddress(c.Owner)
	if err != nil {
		return nil, err
	}
	amount, err := model.ParseAmount(c.Amount)
	if err != nil {
		return nil, err
	}
	deposit := big.NewInt(0)
	if c.DepositAmount != "" {
		if deposit, err = model.ParseAmount(c.DepositAmount); err != nil {
			return nil, err
		}
	}
	return &model.Offer{
		Owner:         owner,
		Title:         c.Title,
		Description:   c.Description,
		ServiceType:   c.ServiceType,
		Deliverables:  c.Deliverables,
		Deadline:      c.Deadline,
		Amount:        amount,
		DepositAmount: deposit,
	}, nil
}

type RequestOffer struct {
	Client  string `json:"client"`
	Message string `json:"message"`
}

func (r *RequestOffer) ValidateRequestOffer() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Client, validation.Required, validation.By(addressRule)),
	)
}

type RejectRequest struct {
	Client string `json:"client"`
	Caller string `json:"caller"`
}

func (r *RejectRequest) ValidateRejectRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Client, validation.Required, validation.By(addressRule)),
		validation.Field(&r.Caller, validation.Required, validation.By(addressRule)),
	)
}

type WithdrawRequest struct {
	Client string `json:"client"`
}

func (w *WithdrawRequest) ValidateWithdrawRequest() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.Client, validation.Required, validation.By(addressRule)),
	)
}

// OfferAction covers the owner-driven lifecycle calls: complete, withdraw,
// deactivate and emergency withdraw.
type OfferAction struct {
	Caller string `json:"caller"`
}

func (o *OfferAction) ValidateOfferAction() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Caller, validation.Required, validation.By(addressRule)),
	)
}

type FundAccount struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (f *FundAccount) ValidateFundAccount() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Address, validation.Required, validation.By(addressRule)),
		validation.Field(&f.Amount, validation.Required, validation.By(amountRule)),
	)
}

type UpdateFraudOracle struct {
	Caller string `json:"caller"`
	Oracle string `json:"oracle"`
}

// ValidateUpdateFraudOracle leaves Oracle optional: an empty or zero
// address disables fraud protection.
func (u *UpdateFraudOracle) ValidateUpdateFraudOracle() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Caller, validation.Required, validation.By(addressRule)),
		validation.Field(&u.Oracle, validation.By(addressRule)),
	)
}

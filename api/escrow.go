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
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	model2 "github.com/safesendhq/safesend/api/model"
	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

func (a Api) DepositEscrow(c *gin.Context) {
	var newDeposit model2.DepositEscrow
	if err := c.ShouldBindJSON(&newDeposit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newDeposit.ValidateDepositEscrow(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	buyer, _ := model.ParseAddress(newDeposit.Buyer)
	seller, _ := model.ParseAddress(newDeposit.Seller)
	amount, _ := model.ParseAmount(newDeposit.Amount)

	esc, transition, err := a.safesend.Deposit(c.Request.Context(), buyer, seller, amount, newDeposit.Description)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"escrow": esc, "transition": transition})
}

func (a Api) GetEscrow(c *gin.Context) {
	id, ok := escrowID(c)
	if !ok {
		return
	}

	resp, err := a.safesend.GetEscrow(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) ReleaseEscrow(c *gin.Context) {
	a.settleEscrow(c, a.safesend.Release)
}

func (a Api) RefundEscrow(c *gin.Context) {
	a.settleEscrow(c, a.safesend.Refund)
}

func (a Api) MarkEscrowFraud(c *gin.Context) {
	a.settleEscrow(c, a.safesend.MarkFraud)
}

// settleEscrow is the shared shape of the three terminal transitions: an
// escrow id in the route, the caller address in the body.
func (a Api) settleEscrow(c *gin.Context, settle func(context.Context, int64, common.Address) (*model.Escrow, *model.Transition, error)) {
	id, ok := escrowID(c)
	if !ok {
		return
	}

	var action model2.SettleEscrow
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := action.ValidateSettleEscrow(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	caller, _ := model.ParseAddress(action.Caller)

	esc, transition, err := settle(c.Request.Context(), id, caller)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"escrow": esc, "transition": transition})
}

func (a Api) GetEscrowTransitions(c *gin.Context) {
	id, ok := escrowID(c)
	if !ok {
		return
	}

	resp, err := a.safesend.GetEscrowTransitions(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetBuyerEscrows(c *gin.Context) {
	a.queryEscrows(c, a.safesend.GetBuyerEscrows)
}

func (a Api) GetSellerEscrows(c *gin.Context) {
	a.queryEscrows(c, a.safesend.GetSellerEscrows)
}

func (a Api) queryEscrows(c *gin.Context, query func(context.Context, common.Address) ([]*model.Escrow, error)) {
	address, ok := routeAddress(c)
	if !ok {
		return
	}

	resp, err := query(c.Request.Context(), address)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func escrowID(c *gin.Context) (int64, bool) {
	raw, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a number"})
		return 0, false
	}
	return id, true
}

func routeAddress(c *gin.Context) (common.Address, bool) {
	raw, passed := c.Params.Get("address")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required. pass address in the route /:address"})
		return common.Address{}, false
	}
	address, err := model.ParseAddress(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return common.Address{}, false
	}
	return address, true
}

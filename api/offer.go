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

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	model2 "github.com/safesendhq/safesend/api/model"
	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

func (a Api) CreateOffer(c *gin.Context) {
	var newOffer model2.CreateOffer
	if err := c.ShouldBindJSON(&newOffer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newOffer.ValidateCreateOffer(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	off, err := newOffer.ToOffer()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	created, transition, err := a.safesend.CreateOffer(c.Request.Context(), off)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"offer": created, "transition": transition})
}

func (a Api) GetOfferMetadata(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	resp, err := a.safesend.GetOfferMetadata(c.Request.Context(), offerID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetOfferStatus(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	resp, err := a.safesend.GetOfferStatus(c.Request.Context(), offerID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetOfferBalance(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	balance, err := a.safesend.GetContractBalance(c.Request.Context(), offerID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"offer_id": offerID, "balance": balance, "formatted": model.FormatAmount(balance)})
}

func (a Api) GetOfferTransitions(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	resp, err := a.safesend.GetOfferTransitions(c.Request.Context(), offerID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) RequestAndFundOffer(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	var request model2.RequestOffer
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := request.ValidateRequestOffer(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	client, _ := model.ParseAddress(request.Client)

	req, transition, err := a.safesend.RequestAndFundOffer(c.Request.Context(), offerID, client, request.Message)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": req, "transition": transition})
}

func (a Api) GetOfferRequests(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	resp, err := a.safesend.GetAllOfferRequests(c.Request.Context(), offerID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) RejectOfferRequest(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	var rejection model2.RejectRequest
	if err := c.ShouldBindJSON(&rejection); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := rejection.ValidateRejectRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	client, _ := model.ParseAddress(rejection.Client)
	caller, _ := model.ParseAddress(rejection.Caller)

	req, transition, err := a.safesend.RejectOfferRequest(c.Request.Context(), offerID, client, caller)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": req, "transition": transition})
}

func (a Api) WithdrawAfterRejection(c *gin.Context) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	var withdrawal model2.WithdrawRequest
	if err := c.ShouldBindJSON(&withdrawal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := withdrawal.ValidateWithdrawRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	client, _ := model.ParseAddress(withdrawal.Client)

	req, transition, err := a.safesend.WithdrawAfterRejection(c.Request.Context(), offerID, client)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": req, "transition": transition})
}

func (a Api) CompleteOffer(c *gin.Context) {
	a.offerAction(c, a.safesend.CompleteOffer)
}

func (a Api) WithdrawOfferFunds(c *gin.Context) {
	a.offerAction(c, a.safesend.WithdrawFunds)
}

func (a Api) DeactivateOffer(c *gin.Context) {
	a.offerAction(c, a.safesend.DeactivateOffer)
}

func (a Api) EmergencyWithdraw(c *gin.Context) {
	a.offerAction(c, a.safesend.EmergencyWithdraw)
}

// offerAction is the shared shape of the owner lifecycle calls: an offer
// id in the route, the caller address in the body.
func (a Api) offerAction(c *gin.Context, action func(context.Context, string, common.Address) (*model.Offer, *model.Transition, error)) {
	offerID, ok := offerID(c)
	if !ok {
		return
	}

	var body model2.OfferAction
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := body.ValidateOfferAction(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	caller, _ := model.ParseAddress(body.Caller)

	off, transition, err := action(c.Request.Context(), offerID, caller)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"offer": off, "transition": transition})
}

func (a Api) GetOwnerOffers(c *gin.Context) {
	a.queryOffers(c, a.safesend.GetOwnerOffers)
}

func (a Api) GetClientOffers(c *gin.Context) {
	a.queryOffers(c, a.safesend.GetClientOffers)
}

func (a Api) queryOffers(c *gin.Context, query func(context.Context, common.Address) ([]*model.Offer, error)) {
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

func offerID(c *gin.Context) (string, bool) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return "", false
	}
	return id, true
}

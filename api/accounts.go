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
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	model2 "github.com/safesendhq/safesend/api/model"
	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/safesendhq/safesend/model"
)

func (a Api) FundAccount(c *gin.Context) {
	var funding model2.FundAccount
	if err := c.ShouldBindJSON(&funding); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := funding.ValidateFundAccount(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	address, _ := model.ParseAddress(funding.Address)
	amount, _ := model.ParseAmount(funding.Amount)

	account, err := a.safesend.FundAccount(c.Request.Context(), address, amount)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (a Api) GetAccount(c *gin.Context) {
	address, ok := routeAddress(c)
	if !ok {
		return
	}

	account, err := a.safesend.GetAccount(c.Request.Context(), address)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, account)
}

func (a Api) GetAuthority(c *gin.Context) {
	authority, err := a.safesend.GetAuthority(c.Request.Context())
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, authority)
}

func (a Api) UpdateFraudOracle(c *gin.Context) {
	var update model2.UpdateFraudOracle
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := update.ValidateUpdateFraudOracle(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	caller, _ := model.ParseAddress(update.Caller)
	oracle := common.Address{}
	if update.Oracle != "" {
		oracle, _ = model.ParseAddress(update.Oracle)
	}

	authority, transition, err := a.safesend.UpdateFraudOracle(c.Request.Context(), caller, oracle)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authority": authority, "transition": transition})
}

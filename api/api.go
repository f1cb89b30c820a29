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
	"github.com/gin-gonic/gin"

	"github.com/safesendhq/safesend"
	"github.com/safesendhq/safesend/api/middleware"
	"github.com/safesendhq/safesend/config"
)

type Api struct {
	safesend *safesend.SafeSend
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/escrows", a.DepositEscrow)
	router.GET("/escrows/:id", a.GetEscrow)
	router.POST("/escrows/:id/release", a.ReleaseEscrow)
	router.POST("/escrows/:id/refund", a.RefundEscrow)
	router.POST("/escrows/:id/fraud", a.MarkEscrowFraud)
	router.GET("/escrows/:id/transitions", a.GetEscrowTransitions)
	router.GET("/escrows/buyer/:address", a.GetBuyerEscrows)
	router.GET("/escrows/seller/:address", a.GetSellerEscrows)

	router.POST("/offers", a.CreateOffer)
	router.GET("/offers/:id", a.GetOfferMetadata)
	router.GET("/offers/:id/status", a.GetOfferStatus)
	router.GET("/offers/:id/balance", a.GetOfferBalance)
	router.GET("/offers/:id/transitions", a.GetOfferTransitions)
	router.POST("/offers/:id/requests", a.RequestAndFundOffer)
	router.GET("/offers/:id/requests", a.GetOfferRequests)
	router.POST("/offers/:id/requests/reject", a.RejectOfferRequest)
	router.POST("/offers/:id/requests/withdraw", a.WithdrawAfterRejection)
	router.POST("/offers/:id/complete", a.CompleteOffer)
	router.POST("/offers/:id/withdraw", a.WithdrawOfferFunds)
	router.POST("/offers/:id/deactivate", a.DeactivateOffer)
	router.POST("/offers/:id/emergency-withdraw", a.EmergencyWithdraw)
	router.GET("/offers/owner/:address", a.GetOwnerOffers)
	router.GET("/offers/client/:address", a.GetClientOffers)

	router.POST("/accounts/fund", a.FundAccount)
	router.GET("/accounts/:address", a.GetAccount)

	router.GET("/authority", a.GetAuthority)
	router.PUT("/authority/fraud-oracle", a.UpdateFraudOracle)
	return a.router
}

func NewAPI(s *safesend.SafeSend) (*Api, error) {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{safesend: s, router: r}, nil
}

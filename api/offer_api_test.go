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
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model2 "github.com/safesendhq/safesend/api/model"
)

func TestCreateOfferAPI(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.offers")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.transitions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload: toJSON(t, model2.CreateOffer{
			Owner:        testOwner.Hex(),
			Title:        gofakeit.JobTitle(),
			Description:  gofakeit.Sentence(6),
			ServiceType:  "design",
			Deliverables: "3 concepts",
			Deadline:     time.Now().Add(72 * time.Hour),
			Amount:       "2500.00",
		}),
		Response: &response,
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/offers",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, response, "offer")
	assert.Contains(t, response, "transition")
}

func TestCreateOfferAPIDepositAboveAmount(t *testing.T) {
	router, _ := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload: toJSON(t, model2.CreateOffer{
			Owner:         testOwner.Hex(),
			Title:         "Logo design",
			Amount:        "2500.00",
			DepositAmount: "3000.00",
		}),
		Response: &response,
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/offers",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRequestOfferAPIMissingClient(t *testing.T) {
	router, _ := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  toJSON(t, model2.RequestOffer{Message: "interested"}),
		Response: &response,
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/offers/off_1/requests",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetOfferBalanceAPI(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM safesend.offers")).
		WithArgs("off_1").
		WillReturnRows(sqlmock.NewRows([]string{"offer_id", "owner", "title", "description", "service_type", "deliverables", "deadline", "amount", "deposit_amount", "is_active", "client", "is_accepted", "is_funded", "is_completed", "held_amount", "created_at"}).
			AddRow("off_1", strings.ToLower(testOwner.Hex()), "Logo design", "", "design", "", time.Now(), "2500000000", "0", true, strings.ToLower(testBuyer.Hex()), true, true, false, "2500000000", time.Now()))

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  nil,
		Response: &response,
		Router:   router,
		Method:   http.MethodGet,
		Route:    "/offers/off_1/balance",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "2500", response["formatted"])
}

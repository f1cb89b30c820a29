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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesendhq/safesend"
	model2 "github.com/safesendhq/safesend/api/model"
	"github.com/safesendhq/safesend/config"
	"github.com/safesendhq/safesend/database"
	"github.com/safesendhq/safesend/internal/cache"
)

var (
	testBuyer  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testSeller = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testOwner  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(&s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
		Authority: config.AuthorityConfig{
			Owner: testOwner.Hex(),
		},
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	newCache, err := cache.NewCache()
	require.NoError(t, err)

	// NewSafeSend seeds the authority singleton on boot.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.authority")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM safesend.authority")).
		WillReturnRows(sqlmock.NewRows([]string{"owner", "fraud_oracle", "updated_at"}).
			AddRow(strings.ToLower(testOwner.Hex()), strings.ToLower(common.Address{}.Hex()), time.Now()))

	service, err := safesend.NewSafeSend(&database.Datasource{Conn: db, Cache: newCache})
	require.NoError(t, err)

	server, err := NewAPI(service)
	require.NoError(t, err)
	return server.Router(), mock
}

func toJSON(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

func TestDepositEscrowAPI(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE safesend.ledger_accounts")).
		WithArgs(strings.ToLower(testBuyer.Hex()), "100000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO safesend.escrows")).
		WillReturnRows(sqlmock.NewRows([]string{"escrow_id", "created_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safesend.transitions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload: toJSON(t, model2.DepositEscrow{
			Buyer:       testBuyer.Hex(),
			Seller:      testSeller.Hex(),
			Amount:      "100.00",
			Description: gofakeit.Sentence(4),
		}),
		Response: &response,
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/escrows",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, response, "escrow")
	assert.Contains(t, response, "transition")
}

func TestDepositEscrowAPIMissingSeller(t *testing.T) {
	router, _ := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload: toJSON(t, model2.DepositEscrow{
			Buyer:  testBuyer.Hex(),
			Amount: "100.00",
		}),
		Response: &response,
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/escrows",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReleaseEscrowAPIUnauthorized(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM safesend.escrows")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"escrow_id", "buyer", "seller", "amount", "description", "status", "fraud_flagged", "created_at"}).
			AddRow(int64(1), strings.ToLower(testBuyer.Hex()), strings.ToLower(testSeller.Hex()), "100000000", "", "ACTIVE", false, time.Now()))

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  toJSON(t, model2.SettleEscrow{Caller: testSeller.Hex()}),
		Response: &response,
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/escrows/1/release",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestGetEscrowAPIBadID(t *testing.T) {
	router, _ := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewReader(nil),
		Response: &response,
		Router:   router,
		Method:   http.MethodGet,
		Route:    "/escrows/not-a-number",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateFraudOracleAPIRequiresOwner(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM safesend.authority")).
		WillReturnRows(sqlmock.NewRows([]string{"owner", "fraud_oracle", "updated_at"}).
			AddRow(strings.ToLower(testOwner.Hex()), strings.ToLower(common.Address{}.Hex()), time.Now()))

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload: toJSON(t, model2.UpdateFraudOracle{
			Caller: testBuyer.Hex(),
			Oracle: testSeller.Hex(),
		}),
		Response: &response,
		Router:   router,
		Method:   http.MethodPut,
		Route:    "/authority/fraud-oracle",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

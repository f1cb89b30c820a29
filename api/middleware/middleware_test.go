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
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/safesendhq/safesend/config"
)

func secureRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecretKeyAuthMiddleware())
	router.GET("/escrows/1", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestSecretKeyAuthMiddleware(t *testing.T) {
	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{
			Secure:    true,
			SecretKey: "master-key",
		},
	})

	tests := []struct {
		name         string
		key          string
		expectedCode int
	}{
		{name: "valid key", key: "master-key", expectedCode: http.StatusOK},
		{name: "invalid key", key: "wrong-key", expectedCode: http.StatusUnauthorized},
		{name: "missing key", key: "", expectedCode: http.StatusUnauthorized},
	}

	router := secureRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/escrows/1", nil)
			if tt.key != "" {
				req.Header.Set("X-SafeSend-Key", tt.key)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestSecretKeyAuthMiddlewareSkipsHealthRoot(t *testing.T) {
	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{
			Secure:    true,
			SecretKey: "master-key",
		},
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecretKeyAuthMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimitMiddlewareDisabledByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(&config.Configuration{}))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code)
	}
}

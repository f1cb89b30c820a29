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

package apierror_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/safesendhq/safesend/internal/apierror"
	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	details := "escrow 42 is already RELEASED"
	apiErr := apierror.NewAPIError(apierror.ErrInvalidState, "escrow is not active", details)

	assert.Equal(t, apierror.ErrInvalidState, apiErr.Code)
	assert.Equal(t, "escrow is not active", apiErr.Message)
	assert.Equal(t, details, apiErr.Details)
	assert.Equal(t, "INVALID_STATE: escrow is not active", apiErr.Error())
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "NotFound Error",
			err:      apierror.NewAPIError(apierror.ErrNotFound, "escrow not found", nil),
			expected: http.StatusNotFound,
		},
		{
			name:     "InvalidState Error",
			err:      apierror.NewAPIError(apierror.ErrInvalidState, "escrow is not active", nil),
			expected: http.StatusConflict,
		},
		{
			name:     "AlreadyAccepted Error",
			err:      apierror.NewAPIError(apierror.ErrOfferAlreadyAccepted, "offer already accepted", nil),
			expected: http.StatusConflict,
		},
		{
			name:     "Unauthorized Error",
			err:      apierror.NewAPIError(apierror.ErrUnauthorized, "caller is not the buyer", nil),
			expected: http.StatusForbidden,
		},
		{
			name:     "InvalidParty Error",
			err:      apierror.NewAPIError(apierror.ErrInvalidParty, "buyer and seller must differ", nil),
			expected: http.StatusBadRequest,
		},
		{
			name:     "TransferFailed Error",
			err:      apierror.NewAPIError(apierror.ErrTransferFailed, "insufficient balance", nil),
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "Unknown Error",
			err:      errors.New("unknown error"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statusCode := apierror.MapErrorToHTTPStatus(tt.err)
			assert.Equal(t, tt.expected, statusCode)
		})
	}
}

func TestIs(t *testing.T) {
	err := apierror.NewAPIError(apierror.ErrDuplicateRequest, "client already has a live request", nil)
	assert.True(t, apierror.Is(err, apierror.ErrDuplicateRequest))
	assert.False(t, apierror.Is(err, apierror.ErrUnauthorized))
	assert.False(t, apierror.Is(errors.New("plain"), apierror.ErrDuplicateRequest))
}

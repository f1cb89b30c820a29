package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"

	// Transition precondition failures. Every one of these is detected before
	// any state mutation; surfacing one means the operation had no effect.
	ErrInvalidParty         ErrorCode = "INVALID_PARTY"
	ErrInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	ErrUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrInvalidState         ErrorCode = "INVALID_STATE"
	ErrDuplicateRequest     ErrorCode = "DUPLICATE_REQUEST"
	ErrOfferInactive        ErrorCode = "OFFER_INACTIVE"
	ErrOfferAlreadyAccepted ErrorCode = "OFFER_ALREADY_ACCEPTED"
	ErrOwnerCannotRequest   ErrorCode = "OWNER_CANNOT_REQUEST_OWN_OFFER"
	ErrTransferFailed       ErrorCode = "TRANSFER_FAILED"
	ErrNotFunded            ErrorCode = "NOT_FUNDED"
	ErrNotCompleted         ErrorCode = "NOT_COMPLETED"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict, ErrDuplicateRequest, ErrOfferAlreadyAccepted, ErrInvalidState, ErrNotFunded, ErrNotCompleted:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest, ErrInvalidParty, ErrInvalidAmount, ErrOfferInactive, ErrOwnerCannotRequest:
			return http.StatusBadRequest
		case ErrUnauthorized:
			return http.StatusForbidden
		case ErrTransferFailed:
			return http.StatusUnprocessableEntity
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// Is reports whether err is an APIError carrying the given code.
func Is(err error, code ErrorCode) bool {
	apiErr, ok := err.(APIError)
	return ok && apiErr.Code == code
}

// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Every error response carries an HTTP status and one of
// these codes inside ErrorResponse (see fail).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "wrong_actor_kind",
//	  "message": "identity is not a merchant"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-market-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeWrongActorKind = "wrong_actor_kind"
	ErrCodeOutOfStock     = "out_of_stock"
	ErrCodeInvalidState   = "invalid_state"
	ErrCodeInvalidInput   = "invalid_input"
	ErrCodeCreateFailed   = "create_failed"
	ErrCodeListFailed     = "list_failed"
)

// statusFor maps a service error to its HTTP status and code by error kind.
// Unknown errors map to 500 with fallback.
func statusFor(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrWrongActorKind):
		return http.StatusUnprocessableEntity, ErrCodeWrongActorKind
	case errors.Is(err, services.ErrOutOfStock):
		return http.StatusConflict, ErrCodeOutOfStock
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict, ErrCodeInvalidState
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeInvalidInput
	default:
		return http.StatusInternalServerError, fallback
	}
}

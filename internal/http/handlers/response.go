// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. Errors
// always use ErrorResponse with a stable code; fail logs 5xx responses with
// the request-scoped logger and counts every error code in Prometheus.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "out_of_stock",
//	  "message": "product out of stock"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-market-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"product not found"`
}

// fail aborts the request with the error envelope and counts the code.
// Server errors are logged with the request-scoped logger, together with the
// cause recorded by failErr when there is one.
func fail(c *gin.Context, status int, code, msg string) {
	middleware.ObserveAPIError(code)

	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if last := c.Errors.Last(); last != nil {
			ev = ev.Err(last.Err)
		}
		ev.Msg(msg)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// failErr writes the envelope for a service error, choosing status and code
// from the error kind. fallback is the code for errors of no known kind;
// their text stays in the logs and the client sees "internal error".
func failErr(c *gin.Context, err error, fallback string) {
	status, code := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		fail(c, status, code, "internal error")
		return
	}
	fail(c, status, code, err.Error())
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

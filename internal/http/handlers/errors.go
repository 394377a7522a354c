// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Usage:
//   - Handlers select the most specific matching code and pass it to `fail()` along
//     with the corresponding HTTP status and message.
//   - Service-layer sentinel errors are translated centrally by `failSvc()` so
//     endpoints stay consistent without repeating the mapping.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_transition",
//	  "message": "order is not active"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/auth"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeValidation        = "validation_error"
	ErrCodeNotAuthenticated  = "not_authenticated"
	ErrCodeForbidden         = "forbidden"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeRateLimited       = "too_many_requests"
	ErrCodeInternal          = "internal_error"
	ErrCodeMisconfigured     = "server_misconfigured"

	// Transport-level:
	ErrCodeBadSignature     = "invalid_signature"
	ErrCodeExpired          = "init_data_expired"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failSvc translates a service-layer error into the standard envelope.
// Unknown errors become an opaque 500 so internals never leak to clients.
func failSvc(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrDuplicateResponse),
		errors.Is(err, services.ErrDuplicateReview):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "operation not allowed")
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrResponseNotFound),
		errors.Is(err, services.ErrReviewNotFound),
		errors.Is(err, services.ErrTicketNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrOrderNotActive),
		errors.Is(err, services.ErrOrderNotEditable),
		errors.Is(err, services.ErrOrderNotCompletable),
		errors.Is(err, services.ErrResponseSettled),
		errors.Is(err, services.ErrExecutorNotChosen),
		errors.Is(err, services.ErrReviewNotAllowed):
		fail(c, http.StatusBadRequest, ErrCodeInvalidTransition, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// failAuth translates credential verification errors. Used by registration,
// which runs before the Authenticate middleware.
func failAuth(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeNotAuthenticated, "authentication required")
	case errors.Is(err, auth.ErrInvalidSignature):
		fail(c, http.StatusUnauthorized, ErrCodeBadSignature, "credential verification failed")
	case errors.Is(err, auth.ErrInitDataExpired):
		fail(c, http.StatusUnauthorized, ErrCodeExpired, "credential expired")
	case errors.Is(err, auth.ErrServerMisconfigured):
		fail(c, http.StatusInternalServerError, ErrCodeMisconfigured, "server misconfigured")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

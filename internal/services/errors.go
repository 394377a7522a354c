// Package services defines the business logic for users, orders, responses,
// contact reveal, reviews, and support. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks any input validation failure. Specific messages
	// are wrapped around it with invalidf.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden indicates the caller's role or relation to the resource
	// does not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUserExists is returned when registering an already known account.
	ErrUserExists = errors.New("user already registered")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrOrderNotFound indicates that the requested order does not exist or
	// is not accessible to the current user.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotEditable is returned when mutating a done or cancelled order.
	ErrOrderNotEditable = errors.New("order is no longer editable")

	// ErrOrderNotActive is returned when selecting an executor on an order
	// that already reached a terminal status.
	ErrOrderNotActive = errors.New("order is not active")

	// ErrOrderNotCompletable is returned when completing a cancelled order.
	ErrOrderNotCompletable = errors.New("order cannot be completed")

	// ErrResponseNotFound indicates that the requested response does not
	// exist on the given order.
	ErrResponseNotFound = errors.New("response not found")

	// ErrDuplicateResponse is returned when an executor bids twice on the
	// same order.
	ErrDuplicateResponse = errors.New("response already exists")

	// ErrResponseSettled is returned when choosing a response that has
	// already been chosen or declined.
	ErrResponseSettled = errors.New("response already settled")

	// ErrExecutorNotChosen is returned when a contact operation runs before
	// the customer picked an executor.
	ErrExecutorNotChosen = errors.New("executor not chosen yet")

	// ErrReviewNotAllowed is returned when the review gate fails: the order
	// is not done, the author is not a participant, or the target is not the
	// counterpart.
	ErrReviewNotAllowed = errors.New("review not allowed for this order")

	// ErrDuplicateReview is returned when the author already reviewed the
	// target on this order.
	ErrDuplicateReview = errors.New("review already exists")

	// ErrReviewNotFound indicates that the requested review does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrTicketNotFound indicates that the requested support ticket does not
	// exist.
	ErrTicketNotFound = errors.New("ticket not found")
)

// invalidf wraps ErrValidation with a human-readable reason.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

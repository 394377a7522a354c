// Package auth implements identity resolution for inbound requests. Two
// mutually exclusive deployment modes are supported: a trusted numeric
// header (X-User-Id), and the signed Telegram Mini App "init data" payload
// (X-Tg-Init-Data) verified with the bot token.
package auth

import "errors"

var (
	// ErrNotAuthenticated is returned when no credential is supplied, or the
	// signed payload carries an unusable user object.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidSignature is returned when the signed payload fails
	// verification (missing or mismatched hash).
	ErrInvalidSignature = errors.New("invalid init data signature")

	// ErrInitDataExpired is returned when a valid-looking payload is older
	// than the configured maximum age.
	ErrInitDataExpired = errors.New("init data expired")

	// ErrUserNotFound is returned when the credential resolves to no account
	// (the caller must register first).
	ErrUserNotFound = errors.New("user not found")

	// ErrBlocked is returned for accounts with the blocked flag set.
	ErrBlocked = errors.New("user is blocked")

	// ErrServerMisconfigured is returned when signature verification is
	// requested but no bot token is configured. Deployment errors must stay
	// distinguishable from forged requests.
	ErrServerMisconfigured = errors.New("bot token is not configured")
)

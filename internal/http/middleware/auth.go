// This file implements the authentication middleware. Credentials arrive in
// one of two headers depending on deployment mode: a trusted numeric id for
// local development, or the signed web-app payload in production. The
// middleware resolves them to an account once per request and stashes the
// result for handlers.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/auth"
	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// Credential header names.
const (
	HeaderUserID   = "X-User-Id"
	HeaderInitData = "X-Tg-Init-Data"
)

const (
	ctxKeyUserID = "auth.user_id"
	ctxKeyUser   = "auth.user"
)

// Authenticator resolves request credentials to an account. Implemented by
// auth.Resolver; narrowed to an interface so handler tests can stub it.
type Authenticator interface {
	Resolve(ctx context.Context, headerValue, initData string) (*domain.User, error)
}

// CurrentUser returns the authenticated account stored by Authenticate.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// Authenticate resolves the request credential and aborts with the matching
// error envelope when it fails. Downstream handlers read the account via
// CurrentUser.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Resolve(
			c.Request.Context(),
			c.GetHeader(HeaderUserID),
			c.GetHeader(HeaderInitData),
		)
		if err != nil {
			abortAuth(c, err)
			return
		}
		SetUser(c, user)
		c.Next()
	}
}

// SetUser stores the resolved account on the context the way Authenticate
// does. Exported so transport tests can install a fixed user.
func SetUser(c *gin.Context, u *domain.User) {
	c.Set(ctxKeyUser, u)
	c.Set(ctxKeyUserID, u.ID)
}

// RequireRole allows only accounts whose role is in the given set. It must
// run after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "not_authenticated",
				"message": "authentication required",
			})
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "forbidden",
				"message": "insufficient role",
			})
			return
		}
		c.Next()
	}
}

// abortAuth maps resolver errors onto the auth error taxonomy.
func abortAuth(c *gin.Context, err error) {
	var status int
	var code, msg string
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		status, code, msg = http.StatusUnauthorized, "not_authenticated", "authentication required"
	case errors.Is(err, auth.ErrInvalidSignature):
		status, code, msg = http.StatusUnauthorized, "invalid_signature", "credential verification failed"
	case errors.Is(err, auth.ErrInitDataExpired):
		status, code, msg = http.StatusUnauthorized, "init_data_expired", "credential expired"
	case errors.Is(err, auth.ErrUserNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "account not found"
	case errors.Is(err, auth.ErrBlocked):
		status, code, msg = http.StatusForbidden, "forbidden", "account is blocked"
	case errors.Is(err, auth.ErrServerMisconfigured):
		status, code, msg = http.StatusInternalServerError, "server_misconfigured", "server misconfigured"
	default:
		status, code, msg = http.StatusInternalServerError, "internal_error", "internal error"
	}
	observeAuthFailure(code)
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": msg})
}

package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/repo"
)

// Resolver turns request credentials into an authenticated account. The
// active mode decides which header carries the credential; the other header
// is ignored entirely.
type Resolver struct {
	DB *gorm.DB

	// Mode is config.AuthModeHeader or config.AuthModeInitData.
	Mode string

	BotToken       string
	InitDataMaxAge time.Duration

	// Now is a clock override for tests. When nil, time.Now is used.
	Now func() time.Time
}

// Resolve authenticates a request. headerValue is the raw X-User-Id value and
// initData the raw X-Tg-Init-Data value; only the one matching the configured
// mode is consulted. The header carries the platform id, so header mode and
// signed-payload mode resolve through the same column. A blocked account
// fails with ErrBlocked in either mode.
func (r *Resolver) Resolve(ctx context.Context, headerValue, initData string) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	if r.Mode == "initdata" {
		user, err = r.resolveInitData(ctx, initData)
	} else {
		user, err = r.resolveHeader(ctx, headerValue)
	}
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, ErrBlocked
	}
	return user, nil
}

// Identity is a verified platform identity before any account lookup. It is
// what registration works from: the credential proves who the caller is on
// the platform even though no account exists yet.
type Identity struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
}

// Identity verifies the request credential without requiring an account.
// In trusted-header mode the header value is taken as the platform id; in
// signed-payload mode the payload is fully verified first.
func (r *Resolver) Identity(_ context.Context, headerValue, initData string) (*Identity, error) {
	if r.Mode == "initdata" {
		if initData == "" {
			return nil, ErrNotAuthenticated
		}
		now := time.Now()
		if r.Now != nil {
			now = r.Now()
		}
		tgUser, err := VerifyInitData(initData, r.BotToken, r.InitDataMaxAge, now)
		if err != nil {
			return nil, err
		}
		return &Identity{
			TelegramID: tgUser.ID,
			FirstName:  tgUser.FirstName,
			LastName:   tgUser.LastName,
			Username:   tgUser.Username,
		}, nil
	}
	if headerValue == "" {
		return nil, ErrNotAuthenticated
	}
	id, err := strconv.ParseInt(headerValue, 10, 64)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	return &Identity{TelegramID: id}, nil
}

func (r *Resolver) resolveHeader(ctx context.Context, headerValue string) (*domain.User, error) {
	if headerValue == "" {
		return nil, ErrNotAuthenticated
	}
	id, err := strconv.ParseInt(headerValue, 10, 64)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := repo.GetUserByTelegramID(ctx, r.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *Resolver) resolveInitData(ctx context.Context, initData string) (*domain.User, error) {
	if initData == "" {
		return nil, ErrNotAuthenticated
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	tgUser, err := VerifyInitData(initData, r.BotToken, r.InitDataMaxAge, now)
	if err != nil {
		return nil, err
	}
	user, err := repo.GetUserByTelegramID(ctx, r.DB, tgUser.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Package services – UserService
//
// This file implements the UserService, which manages account registration,
// profile reads and updates, and periodic avatar refresh from the messaging
// platform. Profile reads are enriched with the approved-review rating
// aggregate so clients never compute ratings themselves.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/repo"
)

// AvatarSource fetches the current profile photo of a platform user.
// Implementations return repo-agnostic raw bytes plus the content type.
type AvatarSource interface {
	FetchUserPhoto(ctx context.Context, telegramID int64) (data []byte, contentType string, err error)
}

// AvatarStore persists a fetched avatar and returns its public URL.
type AvatarStore interface {
	SaveAvatar(userID int64, data []byte, ext string) (string, error)
	ExtForContentType(contentType string) (string, bool)
}

// UserService provides account lifecycle operations. Avatars and Media may
// be nil, which disables the avatar refresh entirely.
type UserService struct {
	DB *gorm.DB

	Avatars AvatarSource
	Media   AvatarStore

	// AvatarMaxAge bounds how often a profile photo is re-fetched.
	AvatarMaxAge time.Duration

	Now func() time.Time
}

// NewUserService constructs a UserService with the default refresh interval.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db, AvatarMaxAge: 24 * time.Hour, Now: time.Now}
}

// RegisterInput is the payload for creating an account. Role decides which
// optional fields are meaningful: executors carry specializations and
// experience, customers carry company details.
type RegisterInput struct {
	Role            string
	FirstName       string
	LastName        string
	Username        string
	Phone           string
	City            string
	ExperienceYears *int
	Specializations []string
	About           string
	CompanyName     string
	AboutOrders     string
}

// Register creates an account bound to the platform identity. Registering
// the same identity twice returns ErrUserExists.
func (s *UserService) Register(ctx context.Context, telegramID int64, in RegisterInput) (*domain.User, error) {
	if telegramID == 0 {
		return nil, invalidf("telegram id is required")
	}
	if in.Role != domain.RoleCustomer && in.Role != domain.RoleExecutor {
		return nil, invalidf("role must be customer or executor")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, invalidf("first_name is required")
	}

	u := &domain.User{
		TelegramID:      telegramID,
		Role:            in.Role,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Username:        strings.TrimSpace(in.Username),
		Phone:           strings.TrimSpace(in.Phone),
		City:            strings.TrimSpace(in.City),
		ExperienceYears: in.ExperienceYears,
		Specializations: domain.StringList(in.Specializations),
		About:           strings.TrimSpace(in.About),
		CompanyName:     strings.TrimSpace(in.CompanyName),
		AboutOrders:     strings.TrimSpace(in.AboutOrders),
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if repo.IsDuplicate(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// UpdateInput is a partial profile update: nil fields are left untouched.
type UpdateInput struct {
	FirstName       *string
	LastName        *string
	Phone           *string
	City            *string
	ExperienceYears *int
	Specializations *[]string
	About           *string
	CompanyName     *string
	AboutOrders     *string
}

// Update applies a partial update to the caller's own profile.
func (s *UserService) Update(ctx context.Context, u *domain.User, in UpdateInput) (*domain.User, error) {
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return nil, invalidf("first_name cannot be blank")
		}
		u.FirstName = v
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.City != nil {
		u.City = strings.TrimSpace(*in.City)
	}
	if in.ExperienceYears != nil {
		u.ExperienceYears = in.ExperienceYears
	}
	if in.Specializations != nil {
		u.Specializations = domain.StringList(*in.Specializations)
	}
	if in.About != nil {
		u.About = strings.TrimSpace(*in.About)
	}
	if in.CompanyName != nil {
		u.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.AboutOrders != nil {
		u.AboutOrders = strings.TrimSpace(*in.AboutOrders)
	}
	if err := repo.SaveUser(ctx, s.DB, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Profile is a user enriched with the approved-review rating aggregate and
// completed-order counters for both sides of the marketplace.
type Profile struct {
	User            *domain.User
	Rating          repo.RatingStats
	OrdersCreated   int64
	OrdersCompleted int64
}

// GetProfile returns a user's public profile with the rating aggregate.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	stats, err := repo.ApprovedRatingStats(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	asCustomer, asExecutor, err := repo.CompletedOrderCounts(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		User:            u,
		Rating:          stats,
		OrdersCreated:   asCustomer,
		OrdersCompleted: asExecutor,
	}, nil
}

// RefreshAvatar re-fetches the user's profile photo when the stored one is
// older than AvatarMaxAge. Fetch failures are logged and swallowed so a
// platform outage never breaks profile reads.
func (s *UserService) RefreshAvatar(ctx context.Context, u *domain.User) {
	if s.Avatars == nil || s.Media == nil {
		return
	}
	now := s.Now()
	if u.AvatarUpdatedAt != nil && now.Sub(*u.AvatarUpdatedAt) < s.AvatarMaxAge {
		return
	}

	data, contentType, err := s.Avatars.FetchUserPhoto(ctx, u.TelegramID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", u.ID).Msg("avatar fetch failed")
		return
	}
	// Record the attempt even when the user has no photo, so the next
	// refresh waits the full interval.
	u.AvatarUpdatedAt = &now
	if len(data) > 0 {
		ext, ok := s.Media.ExtForContentType(contentType)
		if !ok {
			log.Warn().Str("content_type", contentType).Int64("user_id", u.ID).Msg("unsupported avatar type")
		} else {
			url, err := s.Media.SaveAvatar(u.ID, data, ext)
			if err != nil {
				log.Warn().Err(err).Int64("user_id", u.ID).Msg("avatar save failed")
			} else {
				u.AvatarURL = url
			}
		}
	}
	if err := repo.SaveUser(ctx, s.DB, u); err != nil {
		log.Warn().Err(err).Int64("user_id", u.ID).Msg("avatar update persist failed")
	}
}

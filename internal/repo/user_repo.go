// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts a new user row. A unique-constraint violation on
// telegram_id surfaces as the raw driver error; the service layer maps it.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Create(u).Error
}

// GetUserByID fetches a user by primary key, or ErrNotFound.
func GetUserByID(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByTelegramID fetches a user by external platform id, or ErrNotFound.
func GetUserByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser persists all fields of an already-loaded user.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Save(u).Error
}

// UserAdminFilter narrows the admin user listing. Nil fields are skipped.
type UserAdminFilter struct {
	Role      *string
	City      *string
	IsBlocked *bool

	Page
}

// ListUsersAdmin returns users matching the filter, most recent first.
func ListUsersAdmin(ctx context.Context, db *gorm.DB, f UserAdminFilter) ([]domain.User, error) {
	q := db.WithContext(ctx).Model(&domain.User{})
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	if f.City != nil {
		q = q.Where("city = ?", *f.City)
	}
	if f.IsBlocked != nil {
		q = q.Where("is_blocked = ?", *f.IsBlocked)
	}
	var out []domain.User
	err := f.paginate(q.Order("created_at desc")).Find(&out).Error
	return out, err
}

// SetUserBlocked flips the blocked flag for a user. Returns ErrNotFound
// when no row was updated.
func SetUserBlocked(ctx context.Context, db *gorm.DB, id int64, blocked bool) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("is_blocked", blocked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

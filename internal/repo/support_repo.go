package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// CreateSupportTicket inserts a new help request.
func CreateSupportTicket(ctx context.Context, db *gorm.DB, t *domain.SupportTicket) error {
	return db.WithContext(ctx).Create(t).Error
}

// GetSupportTicket fetches a ticket by primary key, or ErrNotFound.
func GetSupportTicket(ctx context.Context, db *gorm.DB, id int64) (*domain.SupportTicket, error) {
	var t domain.SupportTicket
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveSupportTicket persists all fields of an already-loaded ticket.
func SaveSupportTicket(ctx context.Context, db *gorm.DB, t *domain.SupportTicket) error {
	return db.WithContext(ctx).Save(t).Error
}

// ListSupportTicketsByUser returns one user's own tickets, newest first.
func ListSupportTicketsByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.SupportTicket, error) {
	var out []domain.SupportTicket
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SupportAdminFilter narrows the admin ticket listing.
type SupportAdminFilter struct {
	Status *string
	UserID *int64

	Page
}

// ListSupportTicketsAdmin returns tickets matching the filter, newest first,
// with the reporting user preloaded.
func ListSupportTicketsAdmin(ctx context.Context, db *gorm.DB, f SupportAdminFilter) ([]domain.SupportTicket, error) {
	q := db.WithContext(ctx).Model(&domain.SupportTicket{}).Preload("User")
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	var out []domain.SupportTicket
	err := f.paginate(q.Order("created_at desc")).Find(&out).Error
	return out, err
}

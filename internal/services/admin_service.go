// Package services – AdminService
//
// This file implements the AdminService behind the moderation panel: user
// and order listings, blocking, review moderation, support ticket triage,
// and the platform stats snapshot. Role enforcement happens in middleware;
// this service trusts that the caller is an admin.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/repo"
)

// AdminService provides moderation and reporting operations.
type AdminService struct {
	DB *gorm.DB
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// ListUsers returns users matching the filter, newest first.
func (s *AdminService) ListUsers(ctx context.Context, f repo.UserAdminFilter) ([]domain.User, error) {
	if f.Role != nil && *f.Role != domain.RoleCustomer && *f.Role != domain.RoleExecutor && *f.Role != domain.RoleAdmin {
		return nil, invalidf("unknown role %q", *f.Role)
	}
	return repo.ListUsersAdmin(ctx, s.DB, f)
}

// SetBlocked flips a user's blocked flag. Admins cannot block themselves.
func (s *AdminService) SetBlocked(ctx context.Context, actor *domain.User, userID int64, blocked bool) error {
	if actor != nil && actor.ID == userID && blocked {
		return invalidf("cannot block yourself")
	}
	err := repo.SetUserBlocked(ctx, s.DB, userID, blocked)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// ListOrders returns orders matching the filter, newest first.
func (s *AdminService) ListOrders(ctx context.Context, f repo.OrderAdminFilter) ([]domain.Order, error) {
	if f.Status != nil && !validOrderStatus(*f.Status) {
		return nil, invalidf("unknown status %q", *f.Status)
	}
	return repo.ListOrdersAdmin(ctx, s.DB, f)
}

// SetOrderStatus force-sets an order's status from the moderation panel.
// Unlike the customer-facing transitions this accepts any known status.
func (s *AdminService) SetOrderStatus(ctx context.Context, orderID int64, status string) (*domain.Order, error) {
	if !validOrderStatus(status) {
		return nil, invalidf("unknown status %q", status)
	}
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	o.Status = status
	if err := repo.SaveOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListReviews returns reviews for moderation, newest first.
func (s *AdminService) ListReviews(ctx context.Context, f repo.ReviewAdminFilter) ([]domain.Review, error) {
	if f.Status != nil && !validReviewStatus(*f.Status) {
		return nil, invalidf("unknown status %q", *f.Status)
	}
	return repo.ListReviewsAdmin(ctx, s.DB, f)
}

// ModerateReview moves a review to approved or hidden. Approval is what
// admits the review into the target's rating aggregate.
func (s *AdminService) ModerateReview(ctx context.Context, reviewID int64, status string) (*domain.Review, error) {
	if status != domain.ReviewStatusApproved && status != domain.ReviewStatusHidden {
		return nil, invalidf("status must be approved or hidden")
	}
	r, err := repo.GetReview(ctx, s.DB, reviewID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	r.Status = status
	if err := repo.SaveReview(ctx, s.DB, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListTickets returns support tickets matching the filter, newest first.
func (s *AdminService) ListTickets(ctx context.Context, f repo.SupportAdminFilter) ([]domain.SupportTicket, error) {
	if f.Status != nil && !validTicketStatus(*f.Status) {
		return nil, invalidf("unknown status %q", *f.Status)
	}
	return repo.ListSupportTicketsAdmin(ctx, s.DB, f)
}

// UpdateTicketStatus moves a support ticket through triage.
func (s *AdminService) UpdateTicketStatus(ctx context.Context, ticketID int64, status string) (*domain.SupportTicket, error) {
	if !validTicketStatus(status) {
		return nil, invalidf("unknown status %q", status)
	}
	t, err := repo.GetSupportTicket(ctx, s.DB, ticketID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	t.Status = status
	if err := repo.SaveSupportTicket(ctx, s.DB, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Stats returns the platform dashboard snapshot, optionally windowed by
// creation date.
func (s *AdminService) Stats(ctx context.Context, w repo.StatsWindow) (*repo.PlatformStats, error) {
	if w.From != nil && w.To != nil && w.To.Before(*w.From) {
		return nil, invalidf("date_to is before date_from")
	}
	return repo.CollectPlatformStats(ctx, s.DB, w)
}

func validReviewStatus(s string) bool {
	switch s {
	case domain.ReviewStatusPending, domain.ReviewStatusApproved, domain.ReviewStatusHidden:
		return true
	}
	return false
}

func validTicketStatus(s string) bool {
	switch s {
	case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed:
		return true
	}
	return false
}

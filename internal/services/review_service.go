// Package services – ReviewService
//
// This file implements the ReviewService, which gates review creation on the
// finished-order relationship and serves review listings. New reviews start
// in pending and only reach the rating aggregate once an admin approves them.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/repo"
)

// ReviewService provides review creation and listing.
type ReviewService struct {
	DB *gorm.DB
}

// NewReviewService constructs a ReviewService.
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db}
}

// CreateReviewInput is the payload for leaving a review.
type CreateReviewInput struct {
	OrderID      int64
	TargetUserID int64
	Rating       int
	Text         string
}

// Create leaves a review about the order counterpart. The order must be
// done, the author a participant, and the target the other party. One
// review per (order, author, target).
func (s *ReviewService) Create(ctx context.Context, author *domain.User, in CreateReviewInput) (*domain.Review, error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Create", trace.WithAttributes(
		attribute.Int64("order.id", in.OrderID),
		attribute.Int64("user.id", author.ID),
	))
	defer span.End()

	if in.Rating < 1 || in.Rating > 5 {
		return nil, invalidf("rating must be between 1 and 5")
	}
	text := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(text) < 3 {
		return nil, invalidf("text must be at least 3 characters")
	}

	o, err := repo.GetOrder(ctx, s.DB, in.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.Status != domain.OrderStatusDone {
		return nil, ErrReviewNotAllowed
	}
	counterpart, ok := o.Counterpart(author.ID)
	if !ok || counterpart != in.TargetUserID {
		return nil, ErrReviewNotAllowed
	}

	r := &domain.Review{
		OrderID:      in.OrderID,
		AuthorID:     author.ID,
		TargetUserID: in.TargetUserID,
		Rating:       in.Rating,
		Text:         text,
		Status:       domain.ReviewStatusPending,
	}
	if err := repo.CreateReview(ctx, s.DB, r); err != nil {
		if repo.IsDuplicate(err) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	return r, nil
}

// ListForUser returns reviews about a user, newest first. Hidden reviews
// are excluded.
func (s *ReviewService) ListForUser(ctx context.Context, targetID int64) ([]domain.Review, error) {
	if _, err := repo.GetUserByID(ctx, s.DB, targetID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return repo.ListReviewsForUser(ctx, s.DB, targetID)
}

// RatingFor returns a user's approved-review aggregate.
func (s *ReviewService) RatingFor(ctx context.Context, targetID int64) (repo.RatingStats, error) {
	return repo.ApprovedRatingStats(ctx, s.DB, targetID)
}

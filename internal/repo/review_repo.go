package repo

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// CreateReview inserts a review. Duplicate (order, author, target) triples
// violate the unique index; callers detect that with IsDuplicate.
func CreateReview(ctx context.Context, db *gorm.DB, r *domain.Review) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetReview fetches a review by primary key, or ErrNotFound.
func GetReview(ctx context.Context, db *gorm.DB, id int64) (*domain.Review, error) {
	var r domain.Review
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveReview persists all fields of an already-loaded review.
func SaveReview(ctx context.Context, db *gorm.DB, r *domain.Review) error {
	return db.WithContext(ctx).Save(r).Error
}

// HasReview reports whether the author already reviewed the target on the
// order.
func HasReview(ctx context.Context, db *gorm.DB, orderID, authorID, targetID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("order_id = ? AND author_id = ? AND target_user_id = ?", orderID, authorID, targetID).
		Count(&n).Error
	return n > 0, err
}

// ListReviewsForUser returns reviews about a user, newest first, with authors
// preloaded. Hidden reviews are excluded; pending ones remain visible until
// moderated.
func ListReviewsForUser(ctx context.Context, db *gorm.DB, targetID int64) ([]domain.Review, error) {
	var out []domain.Review
	err := db.WithContext(ctx).
		Preload("Author").
		Where("target_user_id = ? AND status <> ?", targetID, domain.ReviewStatusHidden).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ReviewAdminFilter narrows the moderation listing.
type ReviewAdminFilter struct {
	Status *string

	Page
}

// ListReviewsAdmin returns reviews for moderation, newest first, with authors
// preloaded.
func ListReviewsAdmin(ctx context.Context, db *gorm.DB, f ReviewAdminFilter) ([]domain.Review, error) {
	q := db.WithContext(ctx).Model(&domain.Review{}).Preload("Author")
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	var out []domain.Review
	err := f.paginate(q.Order("created_at desc")).Find(&out).Error
	return out, err
}

// RatingStats is the approved-review aggregate for one user.
type RatingStats struct {
	Average float64
	Count   int64
}

// ApprovedRatingStats computes the approved-only rating aggregate for a user.
// The average is rounded to one decimal; a user without approved reviews has
// a zero aggregate.
func ApprovedRatingStats(ctx context.Context, db *gorm.DB, targetID int64) (RatingStats, error) {
	var row struct {
		Avg *float64
		N   int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("AVG(rating) as avg, COUNT(*) as n").
		Where("target_user_id = ? AND status = ?", targetID, domain.ReviewStatusApproved).
		Scan(&row).Error
	if err != nil {
		return RatingStats{}, err
	}
	s := RatingStats{Count: row.N}
	if row.Avg != nil {
		s.Average = math.Round(*row.Avg*10) / 10
	}
	return s, nil
}

// ApprovedRatingsFor batches the approved-only aggregates for several users.
// Users without approved reviews are absent from the map.
func ApprovedRatingsFor(ctx context.Context, db *gorm.DB, targetIDs []int64) (map[int64]RatingStats, error) {
	out := make(map[int64]RatingStats, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TargetUserID int64
		Avg          float64
		N            int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("target_user_id, AVG(rating) as avg, COUNT(*) as n").
		Where("target_user_id IN ? AND status = ?", targetIDs, domain.ReviewStatusApproved).
		Group("target_user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TargetUserID] = RatingStats{
			Average: math.Round(r.Avg*10) / 10,
			Count:   r.N,
		}
	}
	return out, nil
}

package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// CreateResponse inserts a new bid on an order.
func CreateResponse(ctx context.Context, db *gorm.DB, r *domain.Response) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetResponse fetches a response by primary key, or ErrNotFound.
func GetResponse(ctx context.Context, db *gorm.DB, id int64) (*domain.Response, error) {
	var r domain.Response
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetResponseForOrder fetches a response scoped to an order, or ErrNotFound.
func GetResponseForOrder(ctx context.Context, db *gorm.DB, responseID, orderID int64) (*domain.Response, error) {
	var r domain.Response
	err := db.WithContext(ctx).
		Where("id = ? AND order_id = ?", responseID, orderID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// HasResponse reports whether the executor has a still-waiting bid on the
// order. Settled bids do not block a new one.
func HasResponse(ctx context.Context, db *gorm.DB, orderID, executorID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Response{}).
		Where("order_id = ? AND executor_id = ? AND status = ?",
			orderID, executorID, domain.ResponseStatusWaiting).
		Count(&n).Error
	return n > 0, err
}

// ListResponsesForOrder returns all bids on an order with their executors
// preloaded, oldest first.
func ListResponsesForOrder(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.Response, error) {
	var out []domain.Response
	err := db.WithContext(ctx).
		Preload("Executor").
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// ListResponsesByExecutor returns an executor's own bids with their orders
// preloaded, newest first.
func ListResponsesByExecutor(ctx context.Context, db *gorm.DB, executorID int64) ([]domain.Response, error) {
	var out []domain.Response
	err := db.WithContext(ctx).
		Preload("Order").
		Where("executor_id = ?", executorID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// MarkResponseChosen promotes a waiting response to chosen. Returns false
// when the response was already settled, without touching the row.
func MarkResponseChosen(ctx context.Context, db *gorm.DB, responseID int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Response{}).
		Where("id = ? AND status = ?", responseID, domain.ResponseStatusWaiting).
		Update("status", domain.ResponseStatusChosen)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeclineOtherWaiting mass-declines every still-waiting bid on the order
// except the chosen one. Returns the number of declined rows.
func DeclineOtherWaiting(ctx context.Context, db *gorm.DB, orderID, chosenID int64) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Response{}).
		Where("order_id = ? AND id <> ? AND status = ?", orderID, chosenID, domain.ResponseStatusWaiting).
		Update("status", domain.ResponseStatusDeclined)
	return res.RowsAffected, res.Error
}

package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// CreateOrder inserts a new order row.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return db.WithContext(ctx).Create(o).Error
}

// GetOrder fetches an order by primary key, or ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOwnedOrder fetches an order only when it belongs to the given customer.
// A foreign or missing order is ErrNotFound either way, so callers cannot
// distinguish "not yours" from "does not exist".
func GetOwnedOrder(ctx context.Context, db *gorm.DB, id, customerID int64) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SaveOrder persists all fields of an already-loaded order.
func SaveOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return db.WithContext(ctx).Save(o).Error
}

// ListOrdersByCustomer returns a customer's own orders, newest first,
// optionally narrowed to one status.
func ListOrdersByCustomer(ctx context.Context, db *gorm.DB, customerID int64, status *string) ([]domain.Order, error) {
	q := db.WithContext(ctx).Where("customer_id = ?", customerID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []domain.Order
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// FeedFilter describes the executor feed query. Category and city
// narrowing is applied in Go on top of the SQL result because category
// lists are stored as comma-joined text.
type FeedFilter struct {
	ExcludeCustomerID int64
	City              *string
	BudgetType        *string
	HasPhotos         *bool
	FreshSince        *time.Time
}

// ListActiveOrders returns active orders for the feed, newest first.
// The caller's own orders are always excluded.
func ListActiveOrders(ctx context.Context, db *gorm.DB, f FeedFilter) ([]domain.Order, error) {
	q := db.WithContext(ctx).
		Where("status = ?", domain.OrderStatusActive).
		Where("customer_id <> ?", f.ExcludeCustomerID)
	if f.City != nil {
		q = q.Where("city = ?", *f.City)
	}
	if f.BudgetType != nil {
		q = q.Where("budget_type = ?", *f.BudgetType)
	}
	if f.HasPhotos != nil {
		q = q.Where("has_photos = ?", *f.HasPhotos)
	}
	if f.FreshSince != nil {
		q = q.Where("created_at >= ?", *f.FreshSince)
	}
	var out []domain.Order
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// OrderAdminFilter narrows the admin order listing.
type OrderAdminFilter struct {
	Status     *string
	City       *string
	CustomerID *int64
	ExecutorID *int64

	Page
}

// ListOrdersAdmin returns orders matching the filter, newest first.
func ListOrdersAdmin(ctx context.Context, db *gorm.DB, f OrderAdminFilter) ([]domain.Order, error) {
	q := db.WithContext(ctx).Model(&domain.Order{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.City != nil {
		q = q.Where("city = ?", *f.City)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.ExecutorID != nil {
		q = q.Where("executor_id = ?", *f.ExecutorID)
	}
	var out []domain.Order
	err := f.paginate(q.Order("created_at desc")).Find(&out).Error
	return out, err
}

// AssignExecutor atomically moves an order into work with the chosen
// executor. Active and in_progress orders qualify (the customer may switch
// executors before completion); terminal ones report false so concurrent
// choosers against a finished order lose cleanly.
func AssignExecutor(ctx context.Context, db *gorm.DB, orderID, executorID int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status IN ?", orderID,
			[]string{domain.OrderStatusActive, domain.OrderStatusInProgress}).
		Updates(map[string]any{
			"status":      domain.OrderStatusInProgress,
			"executor_id": executorID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// GetChatByOrder fetches the contact-reveal row for an order, or ErrNotFound.
func GetChatByOrder(ctx context.Context, db *gorm.DB, orderID int64) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).Where("order_id = ?", orderID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChat inserts a contact-reveal row for an order. The unique index on
// order_id makes concurrent creation fail for all but one caller.
func CreateChat(ctx context.Context, db *gorm.DB, c *domain.Chat) error {
	return db.WithContext(ctx).Create(c).Error
}

// EnsureChat returns the order's chat row, creating it when absent. When a
// concurrent insert wins the race, the winner's row is re-read and returned.
func EnsureChat(ctx context.Context, db *gorm.DB, orderID, customerID, executorID int64) (*domain.Chat, error) {
	c, err := GetChatByOrder(ctx, db, orderID)
	if err == nil {
		return c, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	fresh := &domain.Chat{OrderID: orderID, CustomerID: customerID, ExecutorID: executorID}
	if err := CreateChat(ctx, db, fresh); err != nil {
		if IsDuplicate(err) {
			return GetChatByOrder(ctx, db, orderID)
		}
		return nil, err
	}
	return fresh, nil
}

// SaveChat persists all fields of an already-loaded chat row.
func SaveChat(ctx context.Context, db *gorm.DB, c *domain.Chat) error {
	return db.WithContext(ctx).Save(c).Error
}

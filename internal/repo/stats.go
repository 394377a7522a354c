// This file provides the aggregate/statistics queries behind the admin
// dashboard. Each function is context-aware and safe to call from services
// or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// StatsWindow bounds the activity counts by creation time. Nil edges leave
// that side open; user totals ignore the window entirely.
type StatsWindow struct {
	From *time.Time
	To   *time.Time
}

func (w StatsWindow) apply(q *gorm.DB) *gorm.DB {
	if w.From != nil {
		q = q.Where("created_at >= ?", *w.From)
	}
	if w.To != nil {
		q = q.Where("created_at <= ?", *w.To)
	}
	return q
}

// PlatformStats is the admin dashboard snapshot: user totals by role,
// order totals by status, and review/support queue depths. Order, response
// and review counts honor the requested window; user totals do not.
type PlatformStats struct {
	UsersTotal     int64 `json:"users_total"`
	Customers      int64 `json:"customers"`
	Executors      int64 `json:"executors"`
	BlockedUsers   int64 `json:"blocked_users"`
	OrdersTotal    int64 `json:"orders_total"`
	OrdersActive   int64 `json:"orders_active"`
	OrdersInWork   int64 `json:"orders_in_progress"`
	OrdersDone     int64 `json:"orders_done"`
	OrdersCanceled int64 `json:"orders_cancelled"`
	ResponsesTotal int64 `json:"responses_total"`
	ReviewsTotal   int64 `json:"reviews_total"`
	ReviewsPending int64 `json:"reviews_pending"`
	TicketsOpen    int64 `json:"tickets_open"`
}

// CollectPlatformStats runs the dashboard counts. Each count is a separate
// lightweight query; a failure in any of them aborts the snapshot.
func CollectPlatformStats(ctx context.Context, db *gorm.DB, w StatsWindow) (*PlatformStats, error) {
	s := &PlatformStats{}
	counts := []struct {
		dst *int64
		q   *gorm.DB
	}{
		{&s.UsersTotal, db.Model(&domain.User{})},
		{&s.Customers, db.Model(&domain.User{}).Where("role = ?", domain.RoleCustomer)},
		{&s.Executors, db.Model(&domain.User{}).Where("role = ?", domain.RoleExecutor)},
		{&s.BlockedUsers, db.Model(&domain.User{}).Where("is_blocked = ?", true)},
		{&s.OrdersTotal, w.apply(db.Model(&domain.Order{}))},
		{&s.OrdersActive, w.apply(db.Model(&domain.Order{}).Where("status = ?", domain.OrderStatusActive))},
		{&s.OrdersInWork, w.apply(db.Model(&domain.Order{}).Where("status = ?", domain.OrderStatusInProgress))},
		{&s.OrdersDone, w.apply(db.Model(&domain.Order{}).Where("status = ?", domain.OrderStatusDone))},
		{&s.OrdersCanceled, w.apply(db.Model(&domain.Order{}).Where("status = ?", domain.OrderStatusCancelled))},
		{&s.ResponsesTotal, w.apply(db.Model(&domain.Response{}))},
		{&s.ReviewsTotal, w.apply(db.Model(&domain.Review{}))},
		{&s.ReviewsPending, w.apply(db.Model(&domain.Review{}).Where("status = ?", domain.ReviewStatusPending))},
		{&s.TicketsOpen, db.Model(&domain.SupportTicket{}).Where("status = ?", domain.TicketStatusOpen)},
	}
	for _, c := range counts {
		if err := c.q.WithContext(ctx).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return s, nil
}

// CompletedOrderCounts returns how many done orders a user participated in,
// split by side.
func CompletedOrderCounts(ctx context.Context, db *gorm.DB, userID int64) (asCustomer, asExecutor int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.Order{}).
		Where("status = ? AND customer_id = ?", domain.OrderStatusDone, userID).
		Count(&asCustomer).Error; err != nil {
		return 0, 0, err
	}
	if err = db.WithContext(ctx).Model(&domain.Order{}).
		Where("status = ? AND executor_id = ?", domain.OrderStatusDone, userID).
		Count(&asExecutor).Error; err != nil {
		return 0, 0, err
	}
	return asCustomer, asExecutor, nil
}

package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

func newStatsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("stats_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCollectPlatformStats(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()

	users := []domain.User{
		{TelegramID: 1, Role: domain.RoleCustomer, FirstName: "a"},
		{TelegramID: 2, Role: domain.RoleExecutor, FirstName: "b"},
		{TelegramID: 3, Role: domain.RoleExecutor, FirstName: "c", IsBlocked: true},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
	}
	orders := []domain.Order{
		{CustomerID: 1, Title: "t", Description: "d", City: "c", BudgetType: domain.BudgetNegotiable, Status: domain.OrderStatusActive},
		{CustomerID: 1, Title: "t", Description: "d", City: "c", BudgetType: domain.BudgetNegotiable, Status: domain.OrderStatusDone},
		{CustomerID: 1, Title: "t", Description: "d", City: "c", BudgetType: domain.BudgetFixed, Status: domain.OrderStatusCancelled},
	}
	for i := range orders {
		if err := db.Create(&orders[i]).Error; err != nil {
			t.Fatalf("seed order %d: %v", i, err)
		}
	}
	if err := db.Create(&domain.Response{OrderID: orders[0].ID, ExecutorID: users[1].ID, Comment: "c", Status: domain.ResponseStatusWaiting}).Error; err != nil {
		t.Fatalf("seed response: %v", err)
	}
	if err := db.Create(&domain.Review{OrderID: orders[1].ID, AuthorID: 1, TargetUserID: 2, Rating: 5, Text: "ok", Status: domain.ReviewStatusPending}).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
	if err := db.Create(&domain.SupportTicket{UserID: 1, Topic: "help", Message: "stuck", Status: domain.TicketStatusOpen}).Error; err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	s, err := CollectPlatformStats(ctx, db, StatsWindow{})
	if err != nil {
		t.Fatalf("CollectPlatformStats: %v", err)
	}
	if s.UsersTotal != 3 || s.Customers != 1 || s.Executors != 2 || s.BlockedUsers != 1 {
		t.Fatalf("user counts wrong: %+v", s)
	}
	if s.OrdersTotal != 3 || s.OrdersActive != 1 || s.OrdersDone != 1 || s.OrdersCanceled != 1 || s.OrdersInWork != 0 {
		t.Fatalf("order counts wrong: %+v", s)
	}
	if s.ResponsesTotal != 1 || s.ReviewsTotal != 1 || s.ReviewsPending != 1 || s.TicketsOpen != 1 {
		t.Fatalf("queue counts wrong: %+v", s)
	}

	// A window before every row zeroes the activity counts but not users.
	cutoff := time.Now().Add(-24 * time.Hour)
	s, err = CollectPlatformStats(ctx, db, StatsWindow{To: &cutoff})
	if err != nil {
		t.Fatalf("windowed CollectPlatformStats: %v", err)
	}
	if s.OrdersTotal != 0 || s.ResponsesTotal != 0 || s.ReviewsTotal != 0 {
		t.Fatalf("window should exclude everything: %+v", s)
	}
	if s.UsersTotal != 3 {
		t.Fatalf("user totals must ignore the window: %+v", s)
	}
}

func TestCollectPlatformStats_Empty(t *testing.T) {
	db := newStatsDB(t)
	s, err := CollectPlatformStats(context.Background(), db, StatsWindow{})
	if err != nil {
		t.Fatalf("CollectPlatformStats: %v", err)
	}
	if s.UsersTotal != 0 || s.OrdersTotal != 0 {
		t.Fatalf("expected zero stats, got %+v", s)
	}
}

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

func newResponseRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("response_repo_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.User{}, &domain.Order{}, &domain.Response{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedResponse(t *testing.T, db *gorm.DB, r domain.Response) *domain.Response {
	t.Helper()
	if r.Comment == "" {
		r.Comment = "ready to start tomorrow"
	}
	if r.Status == "" {
		r.Status = domain.ResponseStatusWaiting
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed response: %v", err)
	}
	return &r
}

func TestHasResponse(t *testing.T) {
	db := newResponseRepoDB(t)
	seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: 5})

	got, err := HasResponse(context.Background(), db, 1, 5)
	if err != nil {
		t.Fatalf("HasResponse: %v", err)
	}
	if !got {
		t.Fatalf("expected existing response")
	}

	got, err = HasResponse(context.Background(), db, 1, 6)
	if err != nil {
		t.Fatalf("HasResponse other executor: %v", err)
	}
	if got {
		t.Fatalf("unexpected response for executor 6")
	}

	// Settled bids do not count.
	seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: 7, Status: domain.ResponseStatusDeclined})
	got, err = HasResponse(context.Background(), db, 1, 7)
	if err != nil {
		t.Fatalf("HasResponse declined: %v", err)
	}
	if got {
		t.Fatalf("declined bid should not block a new one")
	}
}

func TestListResponsesForOrder_PreloadsExecutorOldestFirst(t *testing.T) {
	db := newResponseRepoDB(t)

	exec := &domain.User{TelegramID: 77, Role: domain.RoleExecutor, FirstName: "Mila"}
	if err := db.Create(exec).Error; err != nil {
		t.Fatalf("seed executor: %v", err)
	}

	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: exec.ID, CreatedAt: base.Add(time.Hour)})
	seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: exec.ID + 1000, CreatedAt: base})
	seedResponse(t, db, domain.Response{OrderID: 2, ExecutorID: exec.ID, CreatedAt: base})

	list, err := ListResponsesForOrder(context.Background(), db, 1)
	if err != nil {
		t.Fatalf("ListResponsesForOrder: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(list))
	}
	if !list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Fatalf("expected oldest first: %+v", list)
	}
	if list[1].Executor == nil || list[1].Executor.FirstName != "Mila" {
		t.Fatalf("executor not preloaded: %+v", list[1].Executor)
	}
}

func TestListResponsesByExecutor_PreloadsOrderNewestFirst(t *testing.T) {
	db := newResponseRepoDB(t)

	ord := &domain.Order{
		CustomerID: 1, Title: "paint walls", Description: "two rooms",
		City: "Moscow", BudgetType: domain.BudgetNegotiable, Status: domain.OrderStatusActive,
	}
	if err := db.Create(ord).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	base := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	seedResponse(t, db, domain.Response{OrderID: ord.ID, ExecutorID: 5, CreatedAt: base})
	seedResponse(t, db, domain.Response{OrderID: ord.ID + 100, ExecutorID: 5, CreatedAt: base.Add(time.Hour)})

	list, err := ListResponsesByExecutor(context.Background(), db, 5)
	if err != nil {
		t.Fatalf("ListResponsesByExecutor: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatalf("expected newest first: %+v", list)
	}
	if list[1].Order == nil || list[1].Order.Title != "paint walls" {
		t.Fatalf("order not preloaded: %+v", list[1].Order)
	}
}

func TestMarkResponseChosen_OnlyFromWaiting(t *testing.T) {
	db := newResponseRepoDB(t)
	r := seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: 5})

	ok, err := MarkResponseChosen(context.Background(), db, r.ID)
	if err != nil {
		t.Fatalf("MarkResponseChosen: %v", err)
	}
	if !ok {
		t.Fatalf("waiting response should be promotable")
	}

	ok, err = MarkResponseChosen(context.Background(), db, r.ID)
	if err != nil {
		t.Fatalf("second MarkResponseChosen: %v", err)
	}
	if ok {
		t.Fatalf("already chosen response must not be promotable again")
	}
}

func TestDeclineOtherWaiting(t *testing.T) {
	db := newResponseRepoDB(t)
	chosen := seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: 5, Status: domain.ResponseStatusChosen})
	seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: 6})
	seedResponse(t, db, domain.Response{OrderID: 1, ExecutorID: 7})
	other := seedResponse(t, db, domain.Response{OrderID: 2, ExecutorID: 6})

	n, err := DeclineOtherWaiting(context.Background(), db, 1, chosen.ID)
	if err != nil {
		t.Fatalf("DeclineOtherWaiting: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 declined, got %d", n)
	}

	got, _ := GetResponse(context.Background(), db, chosen.ID)
	if got.Status != domain.ResponseStatusChosen {
		t.Fatalf("chosen response was touched: %+v", got)
	}
	got, _ = GetResponse(context.Background(), db, other.ID)
	if got.Status != domain.ResponseStatusWaiting {
		t.Fatalf("other order's response was touched: %+v", got)
	}
}

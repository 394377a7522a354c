package services

import (
	"context"
	"errors"
	"testing"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

func TestSupportCreate_Validation(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSupportService(db)
	ctx := context.Background()

	u := mkUser(t, db, domain.RoleCustomer, 1)

	if _, err := svc.Create(ctx, u, CreateTicketInput{Topic: "hi", Message: "long enough"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("short topic should fail, got %v", err)
	}
	if _, err := svc.Create(ctx, u, CreateTicketInput{Topic: "payments", Message: "hey"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("short message should fail, got %v", err)
	}

	tk, err := svc.Create(ctx, u, CreateTicketInput{Topic: "  payments ", Message: " cannot pay for order "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.Topic != "payments" || tk.Status != domain.TicketStatusOpen {
		t.Fatalf("unexpected ticket: %+v", tk)
	}
}

func TestSupportListMine_OnlyOwnTickets(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSupportService(db)
	ctx := context.Background()

	u := mkUser(t, db, domain.RoleCustomer, 1)
	other := mkUser(t, db, domain.RoleExecutor, 2)
	if _, err := svc.Create(ctx, u, CreateTicketInput{Topic: "payments", Message: "cannot pay"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, other, CreateTicketInput{Topic: "profile", Message: "photo stuck"}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	list, err := svc.ListMine(ctx, u)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(list) != 1 || list[0].UserID != u.ID {
		t.Fatalf("unexpected tickets: %+v", list)
	}
}

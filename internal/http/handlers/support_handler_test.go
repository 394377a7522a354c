package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

func TestCreateTicket(t *testing.T) {
	var gotIn services.CreateTicketInput
	d := &testDeps{support: &stubSupport{
		createFn: func(_ *domain.User, in services.CreateTicketInput) (*domain.SupportTicket, error) {
			gotIn = in
			return &domain.SupportTicket{ID: 1, Topic: in.Topic, Status: "open"}, nil
		},
	}}
	r := newTestRouter(d, testCustomer())

	body := `{"topic":"payment","message":"The executor asked for a prepayment"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/support", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotIn.Topic != "payment" || gotIn.Message == "" {
		t.Fatalf("input=%+v", gotIn)
	}
}

func TestMyTickets(t *testing.T) {
	u := testCustomer()
	d := &testDeps{support: &stubSupport{
		listMineFn: func(got *domain.User) ([]domain.SupportTicket, error) {
			if got.ID != u.ID {
				t.Fatalf("user=%d", got.ID)
			}
			return []domain.SupportTicket{{ID: 1, UserID: u.ID}}, nil
		},
	}}
	r := newTestRouter(d, u)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/support/my", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var list []domain.SupportTicket
	decodeBody(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("len=%d", len(list))
	}
}

// Package services – ResponseService
//
// This file implements the ResponseService, which manages executor bids:
// placing a bid on an active order, the customer's view of all bids with
// rating enrichment, and the executor's view of their own bids.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/notify"
	"github.com/workscout/go-marketplace-backend/internal/repo"
)

// rubles renders amounts with the grouping the mini app shows, e.g. "10 000".
var rubles = message.NewPrinter(language.Russian)

// BudgetLabel renders an order budget for display: a grouped amount with the
// ruble sign for fixed budgets, a negotiable marker otherwise.
func BudgetLabel(o *domain.Order) string {
	if o.BudgetType == domain.BudgetFixed && o.BudgetAmount != nil {
		return rubles.Sprintf("%d ₽", *o.BudgetAmount)
	}
	return "договорная"
}

// ResponseService provides bid operations.
type ResponseService struct {
	DB     *gorm.DB
	Notify notify.Notifier
}

// NewResponseService constructs a ResponseService.
func NewResponseService(db *gorm.DB, n notify.Notifier) *ResponseService {
	return &ResponseService{DB: db, Notify: n}
}

// CreateResponseInput is the payload for bidding on an order. A bid either
// names a price or opts into negotiation via DiscussPrice.
type CreateResponseInput struct {
	Price        *int64
	DiscussPrice bool
	Comment      string
}

// Create places a bid by the executor on an active order. Inactive orders
// look missing to bidders. At most one waiting bid per executor per order.
func (s *ResponseService) Create(ctx context.Context, executor *domain.User, orderID int64, in CreateResponseInput) (*domain.Response, error) {
	tr := otel.Tracer("services/ResponseService")
	ctx, span := tr.Start(ctx, "Create", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("user.id", executor.ID),
	))
	defer span.End()

	comment := strings.TrimSpace(in.Comment)
	if utf8.RuneCountInString(comment) < 3 {
		return nil, invalidf("comment must be at least 3 characters")
	}
	if in.Price != nil && *in.Price <= 0 {
		return nil, invalidf("price must be positive")
	}
	if in.Price == nil && !in.DiscussPrice {
		return nil, invalidf("either price or discuss_price is required")
	}
	if in.DiscussPrice {
		// Negotiated bids never carry a price.
		in.Price = nil
	}

	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	// Settled orders are hidden from bidders just like missing ones.
	if o.Status != domain.OrderStatusActive {
		return nil, ErrOrderNotFound
	}
	if o.CustomerID == executor.ID {
		return nil, ErrForbidden
	}
	exists, err := repo.HasResponse(ctx, s.DB, orderID, executor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateResponse
	}

	r := &domain.Response{
		OrderID:    orderID,
		ExecutorID: executor.ID,
		Price:      in.Price,
		Comment:    comment,
		Status:     domain.ResponseStatusWaiting,
	}
	if err := repo.CreateResponse(ctx, s.DB, r); err != nil {
		return nil, err
	}

	if s.Notify != nil {
		if customer, err := repo.GetUserByID(ctx, s.DB, o.CustomerID); err == nil {
			s.Notify.NewResponse(ctx, o, customer, executor)
		}
	}
	return r, nil
}

// OrderResponse is one bid on the customer's order, enriched with the
// bidder's public profile and rating aggregate.
type OrderResponse struct {
	Response *domain.Response
	Executor *domain.User
	Rating   repo.RatingStats
}

// ListForOrder returns all bids on the customer's own order, oldest first,
// with executor ratings batched in one query.
func (s *ResponseService) ListForOrder(ctx context.Context, customer *domain.User, orderID int64) ([]OrderResponse, error) {
	if _, err := repo.GetOwnedOrder(ctx, s.DB, orderID, customer.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	rows, err := repo.ListResponsesForOrder(ctx, s.DB, orderID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ExecutorID)
	}
	ratings, err := repo.ApprovedRatingsFor(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	out := make([]OrderResponse, 0, len(rows))
	for i := range rows {
		r := rows[i]
		out = append(out, OrderResponse{
			Response: &rows[i],
			Executor: r.Executor,
			Rating:   ratings[r.ExecutorID],
		})
	}
	return out, nil
}

// MyResponse is one of the executor's own bids with its order attached and a
// display-ready budget label.
type MyResponse struct {
	Response    *domain.Response
	Order       *domain.Order
	BudgetLabel string
}

// ListMine returns the executor's own bids, newest first.
func (s *ResponseService) ListMine(ctx context.Context, executor *domain.User) ([]MyResponse, error) {
	rows, err := repo.ListResponsesByExecutor(ctx, s.DB, executor.ID)
	if err != nil {
		return nil, err
	}
	out := make([]MyResponse, 0, len(rows))
	for i := range rows {
		m := MyResponse{Response: &rows[i], Order: rows[i].Order}
		if m.Order != nil {
			m.BudgetLabel = BudgetLabel(m.Order)
		}
		out = append(out, m)
	}
	return out, nil
}

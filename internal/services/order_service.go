// Package services – OrderService
//
// This file implements the OrderService, which owns the order lifecycle:
// creation and editing by customers, the executor feed, photo attachments,
// executor selection, mutual contact reveal, and completion. Status
// transitions that race (two customers' tabs, retried requests) are settled
// with conditional updates so exactly one writer wins.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/notify"
	"github.com/workscout/go-marketplace-backend/internal/repo"
)

// PhotoStore persists an order photo and returns its public URL.
type PhotoStore interface {
	SaveOrderPhoto(orderID int64, data []byte, ext string) (string, error)
	ExtForContentType(contentType string) (string, bool)
}

// OrderService provides order lifecycle operations.
type OrderService struct {
	DB     *gorm.DB
	Notify notify.Notifier
	Photos PhotoStore

	// FreshDays bounds the fresh_only feed filter.
	FreshDays int
	// MaxPhotos caps attachments per order; extra uploads are dropped.
	MaxPhotos int

	Now func() time.Time
}

// NewOrderService constructs an OrderService with production defaults.
func NewOrderService(db *gorm.DB, n notify.Notifier, p PhotoStore) *OrderService {
	return &OrderService{
		DB:        db,
		Notify:    n,
		Photos:    p,
		FreshDays: 3,
		MaxPhotos: 3,
		Now:       time.Now,
	}
}

// CreateOrderInput is the payload for posting a new order.
type CreateOrderInput struct {
	Title        string
	Description  string
	City         string
	Address      string
	Categories   []string
	BudgetType   string
	BudgetAmount *int64
	StartDate    *datatypes.Date
	EndDate      *datatypes.Date
}

// Create posts a new order owned by the customer. A negotiable budget never
// carries an amount, a fixed one always does.
func (s *OrderService) Create(ctx context.Context, customer *domain.User, in CreateOrderInput) (*domain.Order, error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	city := strings.TrimSpace(in.City)
	if title == "" {
		return nil, invalidf("title is required")
	}
	if desc == "" {
		return nil, invalidf("description is required")
	}
	if city == "" {
		return nil, invalidf("city is required")
	}
	amount, err := normalizeBudget(in.BudgetType, in.BudgetAmount)
	if err != nil {
		return nil, err
	}

	o := &domain.Order{
		CustomerID:   customer.ID,
		Title:        title,
		Description:  desc,
		City:         city,
		Address:      strings.TrimSpace(in.Address),
		Categories:   domain.StringList(in.Categories),
		BudgetType:   in.BudgetType,
		BudgetAmount: amount,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Status:       domain.OrderStatusActive,
	}
	if err := repo.CreateOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	return o, nil
}

// EditOrderInput is a partial order update: nil fields are left untouched.
type EditOrderInput struct {
	Title        *string
	Description  *string
	City         *string
	Address      *string
	Categories   *[]string
	BudgetType   *string
	BudgetAmount *int64
	StartDate    *datatypes.Date
	EndDate      *datatypes.Date
}

// Edit applies a partial update to a customer's own order. Terminal orders
// reject edits. Switching the budget to negotiable drops the stored amount
// unless the payload also supplies one.
func (s *OrderService) Edit(ctx context.Context, customer *domain.User, orderID int64, in EditOrderInput) (*domain.Order, error) {
	o, err := repo.GetOwnedOrder(ctx, s.DB, orderID, customer.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.IsTerminal() {
		return nil, ErrOrderNotEditable
	}

	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		if v == "" {
			return nil, invalidf("title cannot be blank")
		}
		o.Title = v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		if v == "" {
			return nil, invalidf("description cannot be blank")
		}
		o.Description = v
	}
	if in.City != nil {
		v := strings.TrimSpace(*in.City)
		if v == "" {
			return nil, invalidf("city cannot be blank")
		}
		o.City = v
	}
	if in.Address != nil {
		o.Address = strings.TrimSpace(*in.Address)
	}
	if in.Categories != nil {
		o.Categories = domain.StringList(*in.Categories)
	}
	if in.BudgetType != nil {
		if *in.BudgetType != domain.BudgetFixed && *in.BudgetType != domain.BudgetNegotiable {
			return nil, invalidf("budget_type must be fixed or negotiable")
		}
		// Switching to negotiable drops the stored amount unless the
		// payload names a new one below.
		if *in.BudgetType == domain.BudgetNegotiable && in.BudgetAmount == nil {
			o.BudgetAmount = nil
		}
		o.BudgetType = *in.BudgetType
	}
	if in.BudgetAmount != nil {
		if *in.BudgetAmount <= 0 {
			return nil, invalidf("budget_amount must be positive")
		}
		o.BudgetAmount = in.BudgetAmount
	}
	if o.BudgetType == domain.BudgetFixed && o.BudgetAmount == nil {
		return nil, invalidf("fixed budget requires a positive amount")
	}
	if in.StartDate != nil {
		o.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		o.EndDate = in.EndDate
	}

	if err := repo.SaveOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel marks a customer's own order cancelled. Re-cancelling and even
// cancelling a done order are accepted as no-ops of the same shape, which
// keeps retried cancellations safe.
func (s *OrderService) Cancel(ctx context.Context, customer *domain.User, orderID int64) (*domain.Order, error) {
	o, err := repo.GetOwnedOrder(ctx, s.DB, orderID, customer.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatusCancelled
	if err := repo.SaveOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get returns one of the customer's own orders. Foreign and missing orders
// are indistinguishable: both come back as ErrOrderNotFound.
func (s *OrderService) Get(ctx context.Context, customer *domain.User, orderID int64) (*domain.Order, error) {
	o, err := repo.GetOwnedOrder(ctx, s.DB, orderID, customer.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// ListMine returns the customer's own orders, optionally filtered by status.
func (s *OrderService) ListMine(ctx context.Context, customer *domain.User, status *string) ([]domain.Order, error) {
	if status != nil && !validOrderStatus(*status) {
		return nil, invalidf("unknown status %q", *status)
	}
	return repo.ListOrdersByCustomer(ctx, s.DB, customer.ID, status)
}

// FeedQuery narrows the executor feed. Explicit categories take precedence
// over the viewer's specializations, and an explicit city over the viewer's
// own city.
type FeedQuery struct {
	Categories []string
	City       *string
	BudgetType *string
	HasPhotos  *bool
	FreshOnly  bool

	// ShowAll disables the implicit narrowing to the viewer's own city and
	// specializations. Explicit filters still apply.
	ShowAll bool
}

// Feed returns active orders matching the executor's interests, newest
// first. The viewer's own postings never appear.
func (s *OrderService) Feed(ctx context.Context, viewer *domain.User, q FeedQuery) ([]domain.Order, error) {
	if q.BudgetType != nil && *q.BudgetType != domain.BudgetFixed && *q.BudgetType != domain.BudgetNegotiable {
		return nil, invalidf("unknown budget_type %q", *q.BudgetType)
	}

	f := repo.FeedFilter{
		ExcludeCustomerID: viewer.ID,
		BudgetType:        q.BudgetType,
		HasPhotos:         q.HasPhotos,
	}
	switch {
	case q.City != nil && strings.TrimSpace(*q.City) != "":
		city := strings.TrimSpace(*q.City)
		f.City = &city
	case !q.ShowAll && viewer.City != "":
		city := viewer.City
		f.City = &city
	}
	if q.FreshOnly {
		since := s.Now().AddDate(0, 0, -s.FreshDays)
		f.FreshSince = &since
	}

	orders, err := repo.ListActiveOrders(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}

	wanted := domain.StringList(q.Categories)
	if len(wanted) == 0 && !q.ShowAll {
		wanted = viewer.Specializations
	}
	if len(wanted) == 0 {
		return orders, nil
	}
	matched := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		// Uncategorized orders stay visible to everyone.
		if len(o.Categories) == 0 || o.Categories.Intersects(wanted) {
			matched = append(matched, o)
		}
	}
	return matched, nil
}

// PhotoUpload is one decoded attachment ready for storage.
type PhotoUpload struct {
	Data []byte
	Ext  string
}

// AttachPhotos stores uploads against a customer's own order. The batch is
// silently truncated so the order never exceeds MaxPhotos attachments.
func (s *OrderService) AttachPhotos(ctx context.Context, customer *domain.User, orderID int64, uploads []PhotoUpload) (*domain.Order, error) {
	if s.Photos == nil {
		return nil, invalidf("photo uploads are disabled")
	}
	o, err := repo.GetOwnedOrder(ctx, s.DB, orderID, customer.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.IsTerminal() {
		return nil, ErrOrderNotEditable
	}

	room := s.MaxPhotos - len(o.Photos)
	if room <= 0 {
		return o, nil
	}
	if len(uploads) > room {
		uploads = uploads[:room]
	}
	for _, up := range uploads {
		url, err := s.Photos.SaveOrderPhoto(o.ID, up.Data, up.Ext)
		if err != nil {
			return nil, err
		}
		o.Photos = append(o.Photos, url)
	}
	o.HasPhotos = len(o.Photos) > 0
	if err := repo.SaveOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ChooseExecutor assigns the bidder behind responseID to the order. Allowed
// while the order is active or already in_progress, so the customer can
// switch to another waiting bid before completion. The order moves to
// in_progress, the chosen response to chosen, every other waiting bid to
// declined, and the contact-reveal row is created. Exactly one concurrent
// chooser can settle a given response.
func (s *OrderService) ChooseExecutor(ctx context.Context, customer *domain.User, orderID, responseID int64) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "ChooseExecutor", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("response.id", responseID),
		attribute.Int64("user.id", customer.ID),
	))
	defer span.End()

	var (
		order    *domain.Order
		executor *domain.User
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := repo.GetOwnedOrder(ctx, tx, orderID, customer.ID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if o.Status != domain.OrderStatusActive && o.Status != domain.OrderStatusInProgress {
			return ErrOrderNotActive
		}
		r, err := repo.GetResponseForOrder(ctx, tx, responseID, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrResponseNotFound
			}
			return err
		}
		if r.Status != domain.ResponseStatusWaiting {
			return ErrResponseSettled
		}

		won, err := repo.AssignExecutor(ctx, tx, orderID, r.ExecutorID)
		if err != nil {
			return err
		}
		if !won {
			return ErrOrderNotActive
		}
		if _, err := repo.MarkResponseChosen(ctx, tx, r.ID); err != nil {
			return err
		}
		if _, err := repo.DeclineOtherWaiting(ctx, tx, orderID, r.ID); err != nil {
			return err
		}
		chat, err := repo.EnsureChat(ctx, tx, orderID, o.CustomerID, r.ExecutorID)
		if err != nil {
			return err
		}
		if chat.ExecutorID != r.ExecutorID {
			// Switching executors rebinds the reveal row and voids any
			// consent given to the previous one.
			chat.ExecutorID = r.ExecutorID
			chat.CustomerContactsShown = false
			chat.ExecutorContactsShown = false
			if err := repo.SaveChat(ctx, tx, chat); err != nil {
				return err
			}
		}

		executor, err = repo.GetUserByID(ctx, tx, r.ExecutorID)
		if err != nil {
			return err
		}
		o.Status = domain.OrderStatusInProgress
		o.ExecutorID = &r.ExecutorID
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notify != nil {
		s.Notify.ExecutorChosen(ctx, order, customer, executor)
	}
	return order, nil
}

// Contacts is one party's revealed contact card.
type Contacts struct {
	UserID     int64  `json:"user_id"`
	TelegramID int64  `json:"telegram_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// ContactReveal is the state of the mutual consent exchange. The response
// always carries both flags and their conjunction; the contact cards for
// both parties appear only once both sides have agreed.
type ContactReveal struct {
	CustomerShown bool      `json:"customer_contacts_shown"`
	ExecutorShown bool      `json:"executor_contacts_shown"`
	BothAccepted  bool      `json:"both_accepted"`
	Customer      *Contacts `json:"customer,omitempty"`
	Executor      *Contacts `json:"executor,omitempty"`
}

// ShowContacts raises the caller's consent flag on the order's chat and
// returns the current reveal state. The flag is monotonic: repeated calls
// are no-ops. Both parties' contact cards are included only once both flags
// are raised.
func (s *OrderService) ShowContacts(ctx context.Context, user *domain.User, orderID int64) (*ContactReveal, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "ShowContacts", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("user.id", user.ID),
	))
	defer span.End()

	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !o.IsParticipant(user.ID) {
		return nil, ErrForbidden
	}
	if o.ExecutorID == nil {
		return nil, ErrExecutorNotChosen
	}

	chat, err := repo.EnsureChat(ctx, s.DB, orderID, o.CustomerID, *o.ExecutorID)
	if err != nil {
		return nil, err
	}
	changed := false
	if user.ID == chat.CustomerID && !chat.CustomerContactsShown {
		chat.CustomerContactsShown = true
		changed = true
	}
	if user.ID == chat.ExecutorID && !chat.ExecutorContactsShown {
		chat.ExecutorContactsShown = true
		changed = true
	}
	if changed {
		if err := repo.SaveChat(ctx, s.DB, chat); err != nil {
			return nil, err
		}
	}
	return s.revealState(ctx, chat)
}

// ContactState reports the reveal state without raising any flag.
func (s *OrderService) ContactState(ctx context.Context, user *domain.User, orderID int64) (*ContactReveal, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !o.IsParticipant(user.ID) {
		return nil, ErrForbidden
	}
	if o.ExecutorID == nil {
		return nil, ErrExecutorNotChosen
	}
	chat, err := repo.EnsureChat(ctx, s.DB, orderID, o.CustomerID, *o.ExecutorID)
	if err != nil {
		return nil, err
	}
	return s.revealState(ctx, chat)
}

func (s *OrderService) revealState(ctx context.Context, chat *domain.Chat) (*ContactReveal, error) {
	state := &ContactReveal{
		CustomerShown: chat.CustomerContactsShown,
		ExecutorShown: chat.ExecutorContactsShown,
		BothAccepted:  chat.CustomerContactsShown && chat.ExecutorContactsShown,
	}
	if !state.BothAccepted {
		return state, nil
	}
	customer, err := repo.GetUserByID(ctx, s.DB, chat.CustomerID)
	if err != nil {
		return nil, err
	}
	executor, err := repo.GetUserByID(ctx, s.DB, chat.ExecutorID)
	if err != nil {
		return nil, err
	}
	state.Customer = contactCard(customer)
	state.Executor = contactCard(executor)
	return state, nil
}

func contactCard(u *domain.User) *Contacts {
	return &Contacts{
		UserID:     u.ID,
		TelegramID: u.TelegramID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
		Phone:      u.Phone,
	}
}

// ChatLinkInfo points a participant at their order counterpart for a direct
// Telegram conversation.
type ChatLinkInfo struct {
	CounterpartID int64  `json:"counterpart_id"`
	TelegramID    int64  `json:"telegram_id"`
	Link          string `json:"link"`
}

// ChatLink returns a direct messaging deep link to the order counterpart.
// Available to either participant once an executor is assigned; it does not
// wait for the contact-reveal handshake since a deep link exposes no phone
// number.
func (s *OrderService) ChatLink(ctx context.Context, user *domain.User, orderID int64) (*ChatLinkInfo, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !o.IsParticipant(user.ID) {
		return nil, ErrForbidden
	}
	if o.ExecutorID == nil {
		return nil, ErrExecutorNotChosen
	}
	otherID, _ := o.Counterpart(user.ID)
	other, err := repo.GetUserByID(ctx, s.DB, otherID)
	if err != nil {
		return nil, err
	}
	if other.TelegramID == 0 {
		return nil, invalidf("counterpart has no telegram account")
	}
	return &ChatLinkInfo{
		CounterpartID: other.ID,
		TelegramID:    other.TelegramID,
		Link:          fmt.Sprintf("tg://user?id=%d", other.TelegramID),
	}, nil
}

// Complete moves an order to done. Either participant may finish the job,
// and completing an already done order is an idempotent success so client
// retries stay safe. Cancelled orders stay cancelled.
func (s *OrderService) Complete(ctx context.Context, user *domain.User, orderID int64) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Complete", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("user.id", user.ID),
	))
	defer span.End()

	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !o.IsParticipant(user.ID) {
		return nil, ErrForbidden
	}
	if o.Status == domain.OrderStatusDone {
		return o, nil
	}
	if o.Status != domain.OrderStatusActive && o.Status != domain.OrderStatusInProgress {
		return nil, ErrOrderNotCompletable
	}
	o.Status = domain.OrderStatusDone
	if err := repo.SaveOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	return o, nil
}

// normalizeBudget validates the budget pair and returns the amount to store.
func normalizeBudget(budgetType string, amount *int64) (*int64, error) {
	switch budgetType {
	case domain.BudgetFixed:
		if amount == nil || *amount <= 0 {
			return nil, invalidf("fixed budget requires a positive amount")
		}
		return amount, nil
	case domain.BudgetNegotiable:
		// Negotiable budgets never carry an amount.
		return nil, nil
	default:
		return nil, invalidf("budget_type must be fixed or negotiable")
	}
}

func validOrderStatus(s string) bool {
	switch s {
	case domain.OrderStatusActive, domain.OrderStatusInProgress,
		domain.OrderStatusDone, domain.OrderStatusCancelled:
		return true
	}
	return false
}

// Package domain defines the persistence models for the marketplace:
// users, orders, executor responses, per-order contact-reveal chats,
// reviews, and support tickets. These types are mapped with GORM and
// form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// User roles. A role is assigned at registration and never changes.
const (
	RoleCustomer = "customer"
	RoleExecutor = "executor"
	RoleAdmin    = "admin"
)

// Order lifecycle: active → in_progress → done, with cancellation
// possible from active and in_progress. Done and cancelled are terminal.
const (
	OrderStatusActive     = "active"
	OrderStatusInProgress = "in_progress"
	OrderStatusDone       = "done"
	OrderStatusCancelled  = "cancelled"
)

// Budget modes for an order.
const (
	BudgetFixed      = "fixed"
	BudgetNegotiable = "negotiable"
)

// Response (bid) statuses.
const (
	ResponseStatusWaiting  = "waiting"
	ResponseStatusChosen   = "chosen"
	ResponseStatusDeclined = "declined"
)

// Review moderation statuses.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusHidden   = "hidden"
)

// Support ticket statuses.
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusClosed     = "closed"
)

// User is an identity record resolved from either a trusted header or a
// signed Telegram payload. TelegramID is the external platform id and is
// unique across accounts.
type User struct {
	ID         int64  `json:"id"          gorm:"primaryKey;autoIncrement"`
	TelegramID int64  `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Role       string `json:"role"        gorm:"type:varchar(16);not null;check:role IN ('customer','executor','admin')"`

	FirstName string `json:"first_name" gorm:"type:varchar(128);not null"`
	LastName  string `json:"last_name"  gorm:"type:varchar(128)"`
	Username  string `json:"username"   gorm:"type:varchar(128)"`
	Phone     string `json:"phone"      gorm:"type:varchar(32)"`
	City      string `json:"city"       gorm:"type:varchar(128);index"`

	ExperienceYears *int       `json:"experience_years,omitempty"`
	Specializations StringList `json:"specializations" gorm:"column:specializations"`
	PortfolioPhotos StringList `json:"portfolio_photos" gorm:"column:portfolio_photos"`

	About       string `json:"about"        gorm:"type:text"`
	CompanyName string `json:"company_name" gorm:"type:varchar(255)"`
	AboutOrders string `json:"about_orders" gorm:"type:text"`

	AvatarURL       string     `json:"avatar_url,omitempty" gorm:"type:varchar(512)"`
	AvatarUpdatedAt *time.Time `json:"-"`

	IsBlocked bool      `json:"is_blocked" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Order is a job posting created by a customer. ExecutorID stays nil until
// the customer chooses a response; content fields are editable only while
// the order is active or in progress.
type Order struct {
	ID         int64  `json:"id"          gorm:"primaryKey;autoIncrement"`
	CustomerID int64  `json:"customer_id" gorm:"not null;index"`
	ExecutorID *int64 `json:"executor_id" gorm:"index"`

	Title       string     `json:"title"       gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text;not null"`
	City        string     `json:"city"        gorm:"type:varchar(128);not null;index"`
	Address     string     `json:"address"     gorm:"type:varchar(255)"`
	Categories  StringList `json:"categories"  gorm:"column:categories"`

	BudgetType   string `json:"budget_type"   gorm:"type:varchar(16);not null;check:budget_type IN ('fixed','negotiable')"`
	BudgetAmount *int64 `json:"budget_amount"`

	StartDate *datatypes.Date `json:"start_date"`
	EndDate   *datatypes.Date `json:"end_date"`

	Photos    StringList `json:"photos" gorm:"column:photos"`
	HasPhotos bool       `json:"has_photos" gorm:"not null;default:false"`

	Status    string    `json:"status" gorm:"type:varchar(16);not null;default:'active';index;check:status IN ('active','in_progress','done','cancelled')"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Customer *User `json:"-" gorm:"foreignKey:CustomerID;references:ID"`
	Executor *User `json:"-" gorm:"foreignKey:ExecutorID;references:ID"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// IsTerminal reports whether the order accepts no further transitions.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDone || o.Status == OrderStatusCancelled
}

// IsParticipant reports whether userID is the order's customer or its
// assigned executor.
func (o *Order) IsParticipant(userID int64) bool {
	if o.CustomerID == userID {
		return true
	}
	return o.ExecutorID != nil && *o.ExecutorID == userID
}

// Counterpart returns the other party of the order relative to userID.
// The second return is false when userID is not a participant or no
// executor is assigned yet.
func (o *Order) Counterpart(userID int64) (int64, bool) {
	if o.ExecutorID == nil {
		return 0, false
	}
	switch userID {
	case o.CustomerID:
		return *o.ExecutorID, true
	case *o.ExecutorID:
		return o.CustomerID, true
	}
	return 0, false
}

// Response is an executor's bid against an order. Price is nil when the
// executor prefers to negotiate. At most one waiting response may exist
// per (order, executor) pair.
type Response struct {
	ID         int64 `json:"id"          gorm:"primaryKey;autoIncrement"`
	OrderID    int64 `json:"order_id"    gorm:"not null;index:idx_order_responses"`
	ExecutorID int64 `json:"executor_id" gorm:"not null;index"`

	Price   *int64 `json:"price"`
	Comment string `json:"comment" gorm:"type:text;not null"`

	Status    string    `json:"status" gorm:"type:varchar(16);not null;default:'waiting';check:status IN ('waiting','chosen','declined')"`
	CreatedAt time.Time `json:"created_at"`

	Order    *Order `json:"-" gorm:"foreignKey:OrderID;references:ID"`
	Executor *User  `json:"-" gorm:"foreignKey:ExecutorID;references:ID"`
}

// TableName returns the database table name for Response.
func (Response) TableName() string { return "responses" }

// Chat is the per-order contact-reveal ledger: two independent consent
// flags, each raised monotonically by its own side. Exactly one row per
// order, created lazily on first assignment or reveal attempt.
type Chat struct {
	ID         int64 `json:"id"          gorm:"primaryKey;autoIncrement"`
	OrderID    int64 `json:"order_id"    gorm:"uniqueIndex;not null"`
	CustomerID int64 `json:"customer_id" gorm:"not null"`
	ExecutorID int64 `json:"executor_id" gorm:"not null"`

	CustomerContactsShown bool `json:"customer_contacts_shown" gorm:"not null;default:false"`
	ExecutorContactsShown bool `json:"executor_contacts_shown" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Review is feedback left by one transaction party about the other after
// the order is done. One review per (order, author, target) triple; only
// approved reviews count toward the target's aggregate rating.
type Review struct {
	ID           int64 `json:"id"             gorm:"primaryKey;autoIncrement"`
	OrderID      int64 `json:"order_id"       gorm:"not null;uniqueIndex:ux_review_triple,priority:1"`
	AuthorID     int64 `json:"author_id"      gorm:"not null;uniqueIndex:ux_review_triple,priority:2"`
	TargetUserID int64 `json:"target_user_id" gorm:"not null;index;uniqueIndex:ux_review_triple,priority:3"`

	Rating int    `json:"rating" gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Text   string `json:"text"   gorm:"type:text;not null"`

	Status    string    `json:"status" gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','approved','hidden')"`
	CreatedAt time.Time `json:"created_at"`

	Author *User  `json:"-" gorm:"foreignKey:AuthorID;references:ID"`
	Order  *Order `json:"-" gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// SupportTicket is a user-to-admin help request.
type SupportTicket struct {
	ID     int64 `json:"id"      gorm:"primaryKey;autoIncrement"`
	UserID int64 `json:"user_id" gorm:"not null;index"`

	Topic   string `json:"topic"   gorm:"type:varchar(255);not null"`
	Message string `json:"message" gorm:"type:text;not null"`

	Status    string    `json:"status" gorm:"type:varchar(16);not null;default:'open';check:status IN ('open','in_progress','closed')"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for SupportTicket.
func (SupportTicket) TableName() string { return "support_tickets" }

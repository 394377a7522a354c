// Marketplace HTTP handlers.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Service access goes through the
// interfaces declared here so that transport tests can substitute stubs.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/workscout/go-marketplace-backend/internal/auth"
	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/http/middleware"
	"github.com/workscout/go-marketplace-backend/internal/repo"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// IdentityVerifier proves who the caller is on the platform before any
// account exists. Registration is the only consumer.
type IdentityVerifier interface {
	Identity(ctx context.Context, headerValue, initData string) (*auth.Identity, error)
}

// UserService defines account operations consumed by HTTP handlers.
type UserService interface {
	Register(ctx context.Context, telegramID int64, in services.RegisterInput) (*domain.User, error)
	Update(ctx context.Context, u *domain.User, in services.UpdateInput) (*domain.User, error)
	GetProfile(ctx context.Context, userID int64) (*services.Profile, error)
	RefreshAvatar(ctx context.Context, u *domain.User)
}

// OrderService defines the order lifecycle operations consumed by HTTP
// handlers: CRUD, the executor feed, photos, selection, contact reveal and
// completion.
type OrderService interface {
	Create(ctx context.Context, customer *domain.User, in services.CreateOrderInput) (*domain.Order, error)
	Edit(ctx context.Context, customer *domain.User, orderID int64, in services.EditOrderInput) (*domain.Order, error)
	Cancel(ctx context.Context, customer *domain.User, orderID int64) (*domain.Order, error)
	Get(ctx context.Context, customer *domain.User, orderID int64) (*domain.Order, error)
	ListMine(ctx context.Context, customer *domain.User, status *string) ([]domain.Order, error)
	Feed(ctx context.Context, viewer *domain.User, q services.FeedQuery) ([]domain.Order, error)
	AttachPhotos(ctx context.Context, customer *domain.User, orderID int64, uploads []services.PhotoUpload) (*domain.Order, error)
	ChooseExecutor(ctx context.Context, customer *domain.User, orderID, responseID int64) (*domain.Order, error)
	ShowContacts(ctx context.Context, user *domain.User, orderID int64) (*services.ContactReveal, error)
	ContactState(ctx context.Context, user *domain.User, orderID int64) (*services.ContactReveal, error)
	ChatLink(ctx context.Context, user *domain.User, orderID int64) (*services.ChatLinkInfo, error)
	Complete(ctx context.Context, user *domain.User, orderID int64) (*domain.Order, error)
}

// ResponseService defines bid operations consumed by HTTP handlers.
type ResponseService interface {
	Create(ctx context.Context, executor *domain.User, orderID int64, in services.CreateResponseInput) (*domain.Response, error)
	ListForOrder(ctx context.Context, customer *domain.User, orderID int64) ([]services.OrderResponse, error)
	ListMine(ctx context.Context, executor *domain.User) ([]services.MyResponse, error)
}

// ReviewService defines review operations consumed by HTTP handlers.
type ReviewService interface {
	Create(ctx context.Context, author *domain.User, in services.CreateReviewInput) (*domain.Review, error)
	ListForUser(ctx context.Context, targetID int64) ([]domain.Review, error)
	RatingFor(ctx context.Context, targetID int64) (repo.RatingStats, error)
}

// SupportService defines help-desk operations consumed by HTTP handlers.
type SupportService interface {
	Create(ctx context.Context, user *domain.User, in services.CreateTicketInput) (*domain.SupportTicket, error)
	ListMine(ctx context.Context, user *domain.User) ([]domain.SupportTicket, error)
}

// AdminService defines moderation operations consumed by HTTP handlers.
type AdminService interface {
	ListUsers(ctx context.Context, f repo.UserAdminFilter) ([]domain.User, error)
	SetBlocked(ctx context.Context, actor *domain.User, userID int64, blocked bool) error
	ListOrders(ctx context.Context, f repo.OrderAdminFilter) ([]domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID int64, status string) (*domain.Order, error)
	ListReviews(ctx context.Context, f repo.ReviewAdminFilter) ([]domain.Review, error)
	ModerateReview(ctx context.Context, reviewID int64, status string) (*domain.Review, error)
	ListTickets(ctx context.Context, f repo.SupportAdminFilter) ([]domain.SupportTicket, error)
	UpdateTicketStatus(ctx context.Context, ticketID int64, status string) (*domain.SupportTicket, error)
	Stats(ctx context.Context, w repo.StatsWindow) (*repo.PlatformStats, error)
}

//
// Handler wiring
//

// Handlers groups every HTTP endpoint of the marketplace API.
type Handlers struct {
	identity  IdentityVerifier
	users     UserService
	orders    OrderService
	responses ResponseService
	reviews   ReviewService
	support   SupportService
	admin     AdminService

	// maxPhotoBytes caps a single multipart photo upload.
	maxPhotoBytes int64
}

// New constructs a Handlers instance bound to the given services.
func New(
	identity IdentityVerifier,
	users UserService,
	orders OrderService,
	responses ResponseService,
	reviews ReviewService,
	support SupportService,
	admin AdminService,
	maxPhotoBytes int64,
) *Handlers {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = 8 << 20
	}
	return &Handlers{
		identity:      identity,
		users:         users,
		orders:        orders,
		responses:     responses,
		reviews:       reviews,
		support:       support,
		admin:         admin,
		maxPhotoBytes: maxPhotoBytes,
	}
}

//
// Helpers
//

// currentUser pulls the authenticated account out of the Gin context. A
// missing account aborts with 401; routes behind Authenticate never hit that
// branch.
func currentUser(c *gin.Context) (*domain.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeNotAuthenticated, "authentication required")
		return nil, false
	}
	return u, true
}

// pathID parses a positive integer path parameter. A malformed id aborts
// with 404 so probing invalid ids looks identical to probing absent ones.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "not found")
		return 0, false
	}
	return id, true
}

// queryStr returns a trimmed query value, nil when absent or blank.
func queryStr(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

// queryBool interprets 1/true/yes as true; nil when the param is absent.
func queryBool(c *gin.Context, name string) *bool {
	v := strings.ToLower(strings.TrimSpace(c.Query(name)))
	if v == "" {
		return nil
	}
	b := v == "1" || v == "true" || v == "yes"
	return &b
}

// queryInt64 parses an integer query param, nil when absent or malformed.
func queryInt64(c *gin.Context, name string) *int64 {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseDate converts a YYYY-MM-DD string into a datatypes.Date.
func parseDate(s string) (*datatypes.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(t)
	return &d, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/auth"
	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/http/middleware"
	"github.com/workscout/go-marketplace-backend/internal/repo"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

//
// Function-field stubs for the service contracts. Only the fields a test
// sets are expected to be called.
//

type stubIdentity struct {
	identityFn func(headerValue, initData string) (*auth.Identity, error)
}

func (s *stubIdentity) Identity(_ context.Context, headerValue, initData string) (*auth.Identity, error) {
	return s.identityFn(headerValue, initData)
}

type stubUsers struct {
	registerFn      func(telegramID int64, in services.RegisterInput) (*domain.User, error)
	updateFn        func(u *domain.User, in services.UpdateInput) (*domain.User, error)
	getProfileFn    func(userID int64) (*services.Profile, error)
	refreshAvatarFn func(u *domain.User)
}

func (s *stubUsers) Register(_ context.Context, telegramID int64, in services.RegisterInput) (*domain.User, error) {
	return s.registerFn(telegramID, in)
}

func (s *stubUsers) Update(_ context.Context, u *domain.User, in services.UpdateInput) (*domain.User, error) {
	return s.updateFn(u, in)
}

func (s *stubUsers) GetProfile(_ context.Context, userID int64) (*services.Profile, error) {
	return s.getProfileFn(userID)
}

func (s *stubUsers) RefreshAvatar(_ context.Context, u *domain.User) {
	if s.refreshAvatarFn != nil {
		s.refreshAvatarFn(u)
	}
}

type stubOrders struct {
	createFn         func(customer *domain.User, in services.CreateOrderInput) (*domain.Order, error)
	editFn           func(customer *domain.User, orderID int64, in services.EditOrderInput) (*domain.Order, error)
	cancelFn         func(customer *domain.User, orderID int64) (*domain.Order, error)
	getFn            func(customer *domain.User, orderID int64) (*domain.Order, error)
	listMineFn       func(customer *domain.User, status *string) ([]domain.Order, error)
	feedFn           func(viewer *domain.User, q services.FeedQuery) ([]domain.Order, error)
	attachPhotosFn   func(customer *domain.User, orderID int64, uploads []services.PhotoUpload) (*domain.Order, error)
	chooseExecutorFn func(customer *domain.User, orderID, responseID int64) (*domain.Order, error)
	showContactsFn   func(user *domain.User, orderID int64) (*services.ContactReveal, error)
	contactStateFn   func(user *domain.User, orderID int64) (*services.ContactReveal, error)
	chatLinkFn       func(user *domain.User, orderID int64) (*services.ChatLinkInfo, error)
	completeFn       func(user *domain.User, orderID int64) (*domain.Order, error)
}

func (s *stubOrders) Create(_ context.Context, u *domain.User, in services.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(u, in)
}

func (s *stubOrders) Edit(_ context.Context, u *domain.User, id int64, in services.EditOrderInput) (*domain.Order, error) {
	return s.editFn(u, id, in)
}

func (s *stubOrders) Cancel(_ context.Context, u *domain.User, id int64) (*domain.Order, error) {
	return s.cancelFn(u, id)
}

func (s *stubOrders) Get(_ context.Context, u *domain.User, id int64) (*domain.Order, error) {
	return s.getFn(u, id)
}

func (s *stubOrders) ListMine(_ context.Context, u *domain.User, status *string) ([]domain.Order, error) {
	return s.listMineFn(u, status)
}

func (s *stubOrders) Feed(_ context.Context, u *domain.User, q services.FeedQuery) ([]domain.Order, error) {
	return s.feedFn(u, q)
}

func (s *stubOrders) AttachPhotos(_ context.Context, u *domain.User, id int64, uploads []services.PhotoUpload) (*domain.Order, error) {
	return s.attachPhotosFn(u, id, uploads)
}

func (s *stubOrders) ChooseExecutor(_ context.Context, u *domain.User, orderID, responseID int64) (*domain.Order, error) {
	return s.chooseExecutorFn(u, orderID, responseID)
}

func (s *stubOrders) ShowContacts(_ context.Context, u *domain.User, id int64) (*services.ContactReveal, error) {
	return s.showContactsFn(u, id)
}

func (s *stubOrders) ContactState(_ context.Context, u *domain.User, id int64) (*services.ContactReveal, error) {
	return s.contactStateFn(u, id)
}

func (s *stubOrders) ChatLink(_ context.Context, u *domain.User, id int64) (*services.ChatLinkInfo, error) {
	return s.chatLinkFn(u, id)
}

func (s *stubOrders) Complete(_ context.Context, u *domain.User, id int64) (*domain.Order, error) {
	return s.completeFn(u, id)
}

type stubResponses struct {
	createFn       func(executor *domain.User, orderID int64, in services.CreateResponseInput) (*domain.Response, error)
	listForOrderFn func(customer *domain.User, orderID int64) ([]services.OrderResponse, error)
	listMineFn     func(executor *domain.User) ([]services.MyResponse, error)
}

func (s *stubResponses) Create(_ context.Context, u *domain.User, orderID int64, in services.CreateResponseInput) (*domain.Response, error) {
	return s.createFn(u, orderID, in)
}

func (s *stubResponses) ListForOrder(_ context.Context, u *domain.User, orderID int64) ([]services.OrderResponse, error) {
	return s.listForOrderFn(u, orderID)
}

func (s *stubResponses) ListMine(_ context.Context, u *domain.User) ([]services.MyResponse, error) {
	return s.listMineFn(u)
}

type stubReviews struct {
	createFn      func(author *domain.User, in services.CreateReviewInput) (*domain.Review, error)
	listForUserFn func(targetID int64) ([]domain.Review, error)
	ratingForFn   func(targetID int64) (repo.RatingStats, error)
}

func (s *stubReviews) Create(_ context.Context, u *domain.User, in services.CreateReviewInput) (*domain.Review, error) {
	return s.createFn(u, in)
}

func (s *stubReviews) ListForUser(_ context.Context, targetID int64) ([]domain.Review, error) {
	return s.listForUserFn(targetID)
}

func (s *stubReviews) RatingFor(_ context.Context, targetID int64) (repo.RatingStats, error) {
	return s.ratingForFn(targetID)
}

type stubSupport struct {
	createFn   func(user *domain.User, in services.CreateTicketInput) (*domain.SupportTicket, error)
	listMineFn func(user *domain.User) ([]domain.SupportTicket, error)
}

func (s *stubSupport) Create(_ context.Context, u *domain.User, in services.CreateTicketInput) (*domain.SupportTicket, error) {
	return s.createFn(u, in)
}

func (s *stubSupport) ListMine(_ context.Context, u *domain.User) ([]domain.SupportTicket, error) {
	return s.listMineFn(u)
}

type stubAdmin struct {
	listUsersFn          func(f repo.UserAdminFilter) ([]domain.User, error)
	setBlockedFn         func(actor *domain.User, userID int64, blocked bool) error
	listOrdersFn         func(f repo.OrderAdminFilter) ([]domain.Order, error)
	setOrderStatusFn     func(orderID int64, status string) (*domain.Order, error)
	listReviewsFn        func(f repo.ReviewAdminFilter) ([]domain.Review, error)
	moderateReviewFn     func(reviewID int64, status string) (*domain.Review, error)
	listTicketsFn        func(f repo.SupportAdminFilter) ([]domain.SupportTicket, error)
	updateTicketStatusFn func(ticketID int64, status string) (*domain.SupportTicket, error)
	statsFn              func(w repo.StatsWindow) (*repo.PlatformStats, error)
}

func (s *stubAdmin) ListUsers(_ context.Context, f repo.UserAdminFilter) ([]domain.User, error) {
	return s.listUsersFn(f)
}

func (s *stubAdmin) SetBlocked(_ context.Context, actor *domain.User, userID int64, blocked bool) error {
	return s.setBlockedFn(actor, userID, blocked)
}

func (s *stubAdmin) ListOrders(_ context.Context, f repo.OrderAdminFilter) ([]domain.Order, error) {
	return s.listOrdersFn(f)
}

func (s *stubAdmin) SetOrderStatus(_ context.Context, orderID int64, status string) (*domain.Order, error) {
	return s.setOrderStatusFn(orderID, status)
}

func (s *stubAdmin) ListReviews(_ context.Context, f repo.ReviewAdminFilter) ([]domain.Review, error) {
	return s.listReviewsFn(f)
}

func (s *stubAdmin) ModerateReview(_ context.Context, reviewID int64, status string) (*domain.Review, error) {
	return s.moderateReviewFn(reviewID, status)
}

func (s *stubAdmin) ListTickets(_ context.Context, f repo.SupportAdminFilter) ([]domain.SupportTicket, error) {
	return s.listTicketsFn(f)
}

func (s *stubAdmin) UpdateTicketStatus(_ context.Context, ticketID int64, status string) (*domain.SupportTicket, error) {
	return s.updateTicketStatusFn(ticketID, status)
}

func (s *stubAdmin) Stats(_ context.Context, w repo.StatsWindow) (*repo.PlatformStats, error) {
	return s.statsFn(w)
}

//
// Harness
//

type testDeps struct {
	identity  *stubIdentity
	users     *stubUsers
	orders    *stubOrders
	responses *stubResponses
	reviews   *stubReviews
	support   *stubSupport
	admin     *stubAdmin
}

// newTestRouter wires every route the handlers serve, with asUser installed
// before them so currentUser resolves without the auth middleware.
func newTestRouter(d *testDeps, u *domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(d.identity, d.users, d.orders, d.responses, d.reviews, d.support, d.admin, 1<<20)

	r := gin.New()
	if u != nil {
		r.Use(func(c *gin.Context) {
			middleware.SetUser(c, u)
			c.Next()
		})
	}

	r.POST("/auth/register", h.Register)
	r.GET("/users/me", h.GetMe)
	r.PUT("/users/me", h.UpdateMe)
	r.GET("/users/:id", h.GetUser)

	r.POST("/orders", h.CreateOrder)
	r.GET("/orders/my", h.MyOrders)
	r.GET("/orders/available", h.AvailableOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.PATCH("/orders/:id", h.EditOrder)
	r.DELETE("/orders/:id", h.CancelOrder)
	r.POST("/orders/:id/photos", h.UploadPhotos)
	r.POST("/orders/:id/choose_executor", h.ChooseExecutor)
	r.POST("/orders/:id/show-contacts", h.ShowContacts)
	r.GET("/orders/:id/contacts", h.ContactsState)
	r.GET("/orders/:id/chat-link", h.ChatLink)
	r.POST("/orders/:id/complete", h.CompleteOrder)
	r.POST("/orders/:id/responses", h.CreateResponse)
	r.GET("/orders/:id/responses", h.OrderResponses)
	r.GET("/executor/responses", h.MyResponses)

	r.POST("/reviews", h.CreateReview)
	r.GET("/reviews/for-user/:id", h.ReviewsForUser)

	r.POST("/support", h.CreateTicket)
	r.GET("/support/my", h.MyTickets)

	r.GET("/admin/users", h.AdminListUsers)
	r.POST("/admin/users/:id/block", h.AdminBlockUser)
	r.POST("/admin/users/:id/unblock", h.AdminUnblockUser)
	r.GET("/admin/orders", h.AdminListOrders)
	r.PATCH("/admin/orders/:id/status", h.AdminSetOrderStatus)
	r.GET("/admin/reviews", h.AdminListReviews)
	r.PATCH("/admin/reviews/:id", h.AdminModerateReview)
	r.GET("/admin/support", h.AdminListTickets)
	r.PATCH("/admin/support/:id", h.AdminUpdateTicket)
	r.GET("/admin/stats", h.AdminStats)

	return r
}

func testCustomer() *domain.User {
	return &domain.User{ID: 7, TelegramID: 100700, Role: domain.RoleCustomer, FirstName: "Anna", City: "Moscow"}
}

func testExecutor() *domain.User {
	return &domain.User{ID: 9, TelegramID: 100900, Role: domain.RoleExecutor, FirstName: "Boris", City: "Moscow"}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decodeBody(t, w, &resp)
	return resp.Code
}

// Admin HTTP handlers: moderation of users, orders, reviews and support
// tickets, plus platform statistics. All routes here sit behind the admin
// role check.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/repo"
	"github.com/workscout/go-marketplace-backend/internal/utils"
)

// pageOf reads the page/per_page query params. Pagination stays off until
// per_page is given; per_page is capped at 100.
func pageOf(c *gin.Context) repo.Page {
	perPage := utils.AtoiDefault(c.Query("per_page"), 0)
	if perPage <= 0 {
		return repo.Page{}
	}
	perPage = utils.ClampInt(perPage, 1, 100)
	page := utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	return repo.Page{Limit: perPage, Offset: (page - 1) * perPage}
}

// SetStatusRequest carries a bare status value for the admin PATCH
// endpoints.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminListUsers godoc
// @ID          adminListUsers
// @Summary     List users
// @Tags        Admin
// @Produce     json
// @Param       role        query  string  false  "customer or executor"
// @Param       city        query  string  false  "City filter"
// @Param       is_blocked  query  bool    false  "Blocked filter"
// @Success     200  {array}  domain.User
// @Router      /admin/users [get]
func (h *Handlers) AdminListUsers(c *gin.Context) {
	list, err := h.admin.ListUsers(c.Request.Context(), repo.UserAdminFilter{
		Role:      queryStr(c, "role"),
		City:      queryStr(c, "city"),
		IsBlocked: queryBool(c, "is_blocked"),
		Page:      pageOf(c),
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// AdminBlockUser godoc
// @ID          adminBlockUser
// @Summary     Block a user
// @Tags        Admin
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/users/{id}/block [post]
func (h *Handlers) AdminBlockUser(c *gin.Context) {
	h.adminSetBlocked(c, true)
}

// AdminUnblockUser godoc
// @ID          adminUnblockUser
// @Summary     Unblock a user
// @Tags        Admin
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/users/{id}/unblock [post]
func (h *Handlers) AdminUnblockUser(c *gin.Context) {
	h.adminSetBlocked(c, false)
}

func (h *Handlers) adminSetBlocked(c *gin.Context, blocked bool) {
	actor, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.admin.SetBlocked(c.Request.Context(), actor, id, blocked); err != nil {
		failSvc(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdminListOrders godoc
// @ID          adminListOrders
// @Summary     List orders
// @Tags        Admin
// @Produce     json
// @Param       status       query  string  false  "Status filter"
// @Param       city         query  string  false  "City filter"
// @Param       customer_id  query  int     false  "Customer filter"
// @Param       executor_id  query  int     false  "Executor filter"
// @Success     200  {array}  domain.Order
// @Router      /admin/orders [get]
func (h *Handlers) AdminListOrders(c *gin.Context) {
	list, err := h.admin.ListOrders(c.Request.Context(), repo.OrderAdminFilter{
		Status:     queryStr(c, "status"),
		City:       queryStr(c, "city"),
		CustomerID: queryInt64(c, "customer_id"),
		ExecutorID: queryInt64(c, "executor_id"),
		Page:       pageOf(c),
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// AdminSetOrderStatus godoc
// @ID          adminSetOrderStatus
// @Summary     Force an order status
// @Description Moderation override that may set any valid status regardless of the normal lifecycle.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       id    path  int                          true  "Order ID"
// @Param       body  body  handlers.SetStatusRequest    true  "New status"
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/orders/{id}/status [patch]
func (h *Handlers) AdminSetOrderStatus(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "status is required")
		return
	}
	o, err := h.admin.SetOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// AdminListReviews godoc
// @ID          adminListReviews
// @Summary     List reviews for moderation
// @Tags        Admin
// @Produce     json
// @Param       status  query  string  false  "pending, approved or hidden"
// @Success     200  {array}  domain.Review
// @Router      /admin/reviews [get]
func (h *Handlers) AdminListReviews(c *gin.Context) {
	list, err := h.admin.ListReviews(c.Request.Context(), repo.ReviewAdminFilter{
		Status: queryStr(c, "status"),
		Page:   pageOf(c),
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// AdminModerateReview godoc
// @ID          adminModerateReview
// @Summary     Approve or hide a review
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       id    path  int                          true  "Review ID"
// @Param       body  body  handlers.SetStatusRequest    true  "approved or hidden"
// @Success     200  {object}  domain.Review
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/reviews/{id} [patch]
func (h *Handlers) AdminModerateReview(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "status is required")
		return
	}
	r, err := h.admin.ModerateReview(c.Request.Context(), id, req.Status)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// AdminListTickets godoc
// @ID          adminListTickets
// @Summary     List support tickets
// @Tags        Admin
// @Produce     json
// @Param       status   query  string  false  "Status filter"
// @Param       user_id  query  int     false  "Reporter filter"
// @Success     200  {array}  domain.SupportTicket
// @Router      /admin/support [get]
func (h *Handlers) AdminListTickets(c *gin.Context) {
	list, err := h.admin.ListTickets(c.Request.Context(), repo.SupportAdminFilter{
		Status: queryStr(c, "status"),
		UserID: queryInt64(c, "user_id"),
		Page:   pageOf(c),
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// AdminUpdateTicket godoc
// @ID          adminUpdateTicket
// @Summary     Move a ticket through the help-desk flow
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       id    path  int                          true  "Ticket ID"
// @Param       body  body  handlers.SetStatusRequest    true  "New status"
// @Success     200  {object}  domain.SupportTicket
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/support/{id} [patch]
func (h *Handlers) AdminUpdateTicket(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "status is required")
		return
	}
	t, err := h.admin.UpdateTicketStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// AdminStats godoc
// @ID          adminStats
// @Summary     Platform statistics
// @Description Aggregate counters, optionally windowed by creation date. User totals are always all-time.
// @Tags        Admin
// @Produce     json
// @Param       date_from  query  string  false  "YYYY-MM-DD, inclusive"
// @Param       date_to    query  string  false  "YYYY-MM-DD, inclusive"
// @Success     200  {object}  repo.PlatformStats
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /admin/stats [get]
func (h *Handlers) AdminStats(c *gin.Context) {
	var w repo.StatsWindow
	if s := c.Query("date_from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "date_from must be YYYY-MM-DD")
			return
		}
		w.From = &t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "date_to must be YYYY-MM-DD")
			return
		}
		// Inclusive day bound.
		end := t.Add(24*time.Hour - time.Nanosecond)
		w.To = &end
	}
	stats, err := h.admin.Stats(c.Request.Context(), w)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

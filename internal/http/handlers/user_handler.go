// Account HTTP handlers.
//
// This file exposes REST endpoints for registration and profiles:
//   - POST /auth/register   (create account from a verified platform identity)
//   - GET  /users/me        (own profile)
//   - PUT  /users/me        (partial profile update)
//   - GET  /users/{id}      (public profile with rating aggregate)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/http/middleware"
	"github.com/workscout/go-marketplace-backend/internal/repo"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account. Role decides
// which optional blocks are meaningful.
type RegisterRequest struct {
	Role            string   `json:"role" binding:"required" example:"executor"`
	FirstName       string   `json:"first_name" example:"Ivan"`
	LastName        string   `json:"last_name"`
	Username        string   `json:"username"`
	Phone           string   `json:"phone"`
	City            string   `json:"city" example:"Moscow"`
	ExperienceYears *int     `json:"experience_years"`
	Specializations []string `json:"specializations"`
	About           string   `json:"about"`
	CompanyName     string   `json:"company_name"`
	AboutOrders     string   `json:"about_orders"`
}

// UpdateProfileRequest is a partial profile update: absent fields are left
// untouched.
type UpdateProfileRequest struct {
	FirstName       *string   `json:"first_name"`
	LastName        *string   `json:"last_name"`
	Phone           *string   `json:"phone"`
	City            *string   `json:"city"`
	ExperienceYears *int      `json:"experience_years"`
	Specializations *[]string `json:"specializations"`
	About           *string   `json:"about"`
	CompanyName     *string   `json:"company_name"`
	AboutOrders     *string   `json:"about_orders"`
}

// Rating is the approved-review aggregate. Average is null until the user
// has at least one approved review.
type Rating struct {
	Average *float64 `json:"average"`
	Count   int64    `json:"count"`
}

func ratingOf(s repo.RatingStats) Rating {
	if s.Count == 0 {
		return Rating{}
	}
	avg := s.Average
	return Rating{Average: &avg, Count: s.Count}
}

// ProfileResponse is a user with their rating aggregate and completed-order
// counters.
type ProfileResponse struct {
	User                 *domain.User `json:"user"`
	Rating               Rating       `json:"rating"`
	OrdersCount          int64        `json:"orders_count"`
	OrdersCreatedCount   int64        `json:"orders_created_count"`
	OrdersCompletedCount int64        `json:"orders_completed_count"`
	ReviewsCount         int64        `json:"reviews_count"`
	HasReviews           bool         `json:"has_reviews"`
}

func profileResponse(p *services.Profile) ProfileResponse {
	return ProfileResponse{
		User:                 p.User,
		Rating:               ratingOf(p.Rating),
		OrdersCount:          p.OrdersCreated + p.OrdersCompleted,
		OrdersCreatedCount:   p.OrdersCreated,
		OrdersCompletedCount: p.OrdersCompleted,
		ReviewsCount:         p.Rating.Count,
		HasReviews:           p.Rating.Count > 0,
	}
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Register an account
// @Description Creates an account bound to the verified platform identity from the request credential.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       X-User-Id       header  string  false "Platform id (trusted-header mode)"
// @Param       X-Tg-Init-Data  header  string  false "Signed payload (initdata mode)"
// @Param       body            body    handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad credential"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ident, err := h.identity.Identity(
		c.Request.Context(),
		c.GetHeader(middleware.HeaderUserID),
		c.GetHeader(middleware.HeaderInitData),
	)
	if err != nil {
		failAuth(c, err)
		return
	}

	// The signed payload already carries the caller's display name; the
	// request body wins when both are present.
	in := services.RegisterInput{
		Role:            req.Role,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Username:        strings.TrimSpace(req.Username),
		Phone:           req.Phone,
		City:            req.City,
		ExperienceYears: req.ExperienceYears,
		Specializations: req.Specializations,
		About:           req.About,
		CompanyName:     req.CompanyName,
		AboutOrders:     req.AboutOrders,
	}
	if in.FirstName == "" {
		in.FirstName = ident.FirstName
	}
	if in.LastName == "" {
		in.LastName = ident.LastName
	}
	if in.Username == "" {
		in.Username = ident.Username
	}

	u, err := h.users.Register(c.Request.Context(), ident.TelegramID, in)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetMe godoc
// @ID          getMe
// @Summary     Own profile
// @Description Returns the caller's profile with the rating aggregate. Refreshes the cached avatar opportunistically.
// @Tags        Users
// @Produce     json
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /users/me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	h.users.RefreshAvatar(c.Request.Context(), u)
	p, err := h.users.GetProfile(c.Request.Context(), u.ID)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, profileResponse(p))
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update own profile
// @Description Applies a partial update to the caller's profile. Role cannot change.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.UpdateProfileRequest  true  "Fields to change"
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /users/me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.users.Update(c.Request.Context(), u, services.UpdateInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		City:            req.City,
		ExperienceYears: req.ExperienceYears,
		Specializations: req.Specializations,
		About:           req.About,
		CompanyName:     req.CompanyName,
		AboutOrders:     req.AboutOrders,
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

// GetUser godoc
// @ID          getUser
// @Summary     Public profile
// @Description Returns another user's public profile with the rating aggregate.
// @Tags        Users
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	p, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, profileResponse(p))
}

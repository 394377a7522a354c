package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

// CreateReviewRequest is the JSON payload for reviewing the counterpart of a
// completed order.
type CreateReviewRequest struct {
	OrderID      int64  `json:"order_id" binding:"required"`
	TargetUserID int64  `json:"target_user_id" binding:"required"`
	Rating       int    `json:"rating" binding:"required" example:"5"`
	Text         string `json:"text" binding:"required"`
}

// UserReviewsResponse is the public review page of a user: the approved-only
// rating aggregate plus the visible review list.
type UserReviewsResponse struct {
	Rating       *float64        `json:"rating"`
	ReviewsCount int64           `json:"reviews_count"`
	HasReviews   bool            `json:"has_reviews"`
	Reviews      []domain.Review `json:"reviews"`
}

// CreateReview godoc
// @ID          createReview
// @Summary     Review the order counterpart
// @Description The order must be done and the author a participant. New reviews await moderation before they count.
// @Tags        Reviews
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateReviewRequest  true  "Review payload"
// @Success     201  {object}  domain.Review
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /reviews [post]
func (h *Handlers) CreateReview(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	r, err := h.reviews.Create(c.Request.Context(), u, services.CreateReviewInput{
		OrderID:      req.OrderID,
		TargetUserID: req.TargetUserID,
		Rating:       req.Rating,
		Text:         req.Text,
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

// ReviewsForUser godoc
// @ID          reviewsForUser
// @Summary     Reviews about a user
// @Tags        Reviews
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  handlers.UserReviewsResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /reviews/for-user/{id} [get]
func (h *Handlers) ReviewsForUser(c *gin.Context) {
	if _, okUser := currentUser(c); !okUser {
		return
	}
	targetID, okID := pathID(c, "id")
	if !okID {
		return
	}
	stats, err := h.reviews.RatingFor(c.Request.Context(), targetID)
	if err != nil {
		failSvc(c, err)
		return
	}
	reviews, err := h.reviews.ListForUser(c.Request.Context(), targetID)
	if err != nil {
		failSvc(c, err)
		return
	}
	resp := UserReviewsResponse{
		ReviewsCount: stats.Count,
		HasReviews:   stats.Count > 0,
		Reviews:      reviews,
	}
	if stats.Count > 0 {
		avg := stats.Average
		resp.Rating = &avg
	}
	ok(c, http.StatusOK, resp)
}

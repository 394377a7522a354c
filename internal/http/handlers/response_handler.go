package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

// CreateResponseRequest is the JSON payload for bidding on an order. Price is
// optional when the executor prefers to discuss it.
type CreateResponseRequest struct {
	Price        *int64 `json:"price" example:"15000"`
	DiscussPrice bool   `json:"discuss_price"`
	Comment      string `json:"comment" binding:"required"`
}

// OrderResponseItem is one bid as seen by the order owner: the bid itself
// plus the executor's public card and rating.
type OrderResponseItem struct {
	Response *domain.Response `json:"response"`
	Executor *domain.User     `json:"executor"`
	Rating   Rating           `json:"rating"`
}

// MyResponseItem is one of the executor's own bids with the order it targets
// and a display-ready budget label.
type MyResponseItem struct {
	Response    *domain.Response `json:"response"`
	Order       *domain.Order    `json:"order"`
	BudgetLabel string           `json:"budget_label"`
}

// CreateResponse godoc
// @ID          createResponse
// @Summary     Bid on an order
// @Tags        Responses
// @Accept      json
// @Produce     json
// @Param       id    path  int                               true  "Order ID"
// @Param       body  body  handlers.CreateResponseRequest    true  "Bid payload"
// @Success     201  {object}  domain.Response
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/responses [post]
func (h *Handlers) CreateResponse(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	orderID, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req CreateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	r, err := h.responses.Create(c.Request.Context(), u, orderID, services.CreateResponseInput{
		Price:        req.Price,
		DiscussPrice: req.DiscussPrice,
		Comment:      req.Comment,
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

// OrderResponses godoc
// @ID          orderResponses
// @Summary     Bids on own order
// @Tags        Responses
// @Produce     json
// @Param       id  path  int  true  "Order ID"
// @Success     200  {array}  handlers.OrderResponseItem
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/responses [get]
func (h *Handlers) OrderResponses(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	orderID, okID := pathID(c, "id")
	if !okID {
		return
	}
	rows, err := h.responses.ListForOrder(c.Request.Context(), u, orderID)
	if err != nil {
		failSvc(c, err)
		return
	}
	out := make([]OrderResponseItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, OrderResponseItem{
			Response: r.Response,
			Executor: r.Executor,
			Rating:   ratingOf(r.Rating),
		})
	}
	ok(c, http.StatusOK, out)
}

// MyResponses godoc
// @ID          myResponses
// @Summary     Own bids
// @Tags        Responses
// @Produce     json
// @Success     200  {array}  handlers.MyResponseItem
// @Router      /executor/responses [get]
func (h *Handlers) MyResponses(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	rows, err := h.responses.ListMine(c.Request.Context(), u)
	if err != nil {
		failSvc(c, err)
		return
	}
	out := make([]MyResponseItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, MyResponseItem{
			Response:    r.Response,
			Order:       r.Order,
			BudgetLabel: r.BudgetLabel,
		})
	}
	ok(c, http.StatusOK, out)
}

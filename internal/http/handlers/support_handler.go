package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workscout/go-marketplace-backend/internal/services"
)

// CreateTicketRequest is the JSON payload for opening a support ticket.
type CreateTicketRequest struct {
	Topic   string `json:"topic" binding:"required" example:"payment"`
	Message string `json:"message" binding:"required"`
}

// CreateTicket godoc
// @ID          createTicket
// @Summary     Open a support ticket
// @Tags        Support
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateTicketRequest  true  "Ticket payload"
// @Success     201  {object}  domain.SupportTicket
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /support [post]
func (h *Handlers) CreateTicket(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.support.Create(c.Request.Context(), u, services.CreateTicketInput{
		Topic:   req.Topic,
		Message: req.Message,
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

// MyTickets godoc
// @ID          myTickets
// @Summary     Own support tickets
// @Tags        Support
// @Produce     json
// @Success     200  {array}  domain.SupportTicket
// @Router      /support/my [get]
func (h *Handlers) MyTickets(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	list, err := h.support.ListMine(c.Request.Context(), u)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

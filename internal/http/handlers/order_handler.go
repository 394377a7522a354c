// Order HTTP handlers.
//
// This file exposes REST endpoints for the order lifecycle:
//   - POST   /orders                        (create)
//   - GET    /orders/my                     (owner's orders)
//   - GET    /orders/available              (executor feed)
//   - GET    /orders/{id}                   (owner read)
//   - PATCH  /orders/{id}                   (owner edit)
//   - DELETE /orders/{id}                   (owner cancel)
//   - POST   /orders/{id}/photos            (multipart upload)
//   - POST   /orders/{id}/choose_executor   (assign a bid)
//   - POST   /orders/{id}/show-contacts     (consent flag + conditional reveal)
//   - GET    /orders/{id}/chat-link         (deep link to counterpart)
//   - POST   /orders/{id}/complete          (terminal transition)
package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/workscout/go-marketplace-backend/internal/media"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

//
// DTOs
//

// CreateOrderRequest is the JSON payload for posting an order. Dates use
// YYYY-MM-DD.
type CreateOrderRequest struct {
	Title        string   `json:"title" binding:"required" example:"Assemble a wardrobe"`
	Description  string   `json:"description" binding:"required"`
	City         string   `json:"city" binding:"required" example:"Moscow"`
	Address      string   `json:"address"`
	Categories   []string `json:"categories"`
	BudgetType   string   `json:"budget_type" binding:"required" example:"fixed"`
	BudgetAmount *int64   `json:"budget_amount"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
}

// EditOrderRequest is a partial order update: absent fields are left
// untouched. An explicit empty start/end date clears nothing; dates are only
// replaced when present.
type EditOrderRequest struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	City         *string   `json:"city"`
	Address      *string   `json:"address"`
	Categories   *[]string `json:"categories"`
	BudgetType   *string   `json:"budget_type"`
	BudgetAmount *int64    `json:"budget_amount"`
	StartDate    *string   `json:"start_date"`
	EndDate      *string   `json:"end_date"`
}

// ChooseExecutorRequest names the winning bid.
type ChooseExecutorRequest struct {
	ResponseID int64 `json:"response_id" binding:"required"`
}

//
// Handlers
//

// CreateOrder godoc
// @ID          createOrder
// @Summary     Post a new order
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateOrderRequest  true  "Order payload"
// @Success     201  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	var start, end *datatypes.Date
	if strings.TrimSpace(req.StartDate) != "" {
		d, err := parseDate(req.StartDate)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "start_date must be YYYY-MM-DD")
			return
		}
		start = d
	}
	if strings.TrimSpace(req.EndDate) != "" {
		d, err := parseDate(req.EndDate)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "end_date must be YYYY-MM-DD")
			return
		}
		end = d
	}
	o, err := h.orders.Create(c.Request.Context(), u, services.CreateOrderInput{
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		Address:      req.Address,
		Categories:   req.Categories,
		BudgetType:   req.BudgetType,
		BudgetAmount: req.BudgetAmount,
		StartDate:    start,
		EndDate:      end,
	})
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusCreated, o)
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Read own order
// @Tags        Orders
// @Produce     json
// @Param       id  path  int  true  "Order ID"
// @Success     200  {object}  domain.Order
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), u, id)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// EditOrder godoc
// @ID          editOrder
// @Summary     Edit own order
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       id    path  int                          true  "Order ID"
// @Param       body  body  handlers.EditOrderRequest    true  "Fields to change"
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [patch]
func (h *Handlers) EditOrder(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req EditOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in := services.EditOrderInput{
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		Address:      req.Address,
		Categories:   req.Categories,
		BudgetType:   req.BudgetType,
		BudgetAmount: req.BudgetAmount,
	}
	if req.StartDate != nil {
		d, err := parseDate(*req.StartDate)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "start_date must be YYYY-MM-DD")
			return
		}
		in.StartDate = d
	}
	if req.EndDate != nil {
		d, err := parseDate(*req.EndDate)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "end_date must be YYYY-MM-DD")
			return
		}
		in.EndDate = d
	}
	o, err := h.orders.Edit(c.Request.Context(), u, id, in)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// CancelOrder godoc
// @ID          cancelOrder
// @Summary     Cancel own order
// @Tags        Orders
// @Produce     json
// @Param       id  path  int  true  "Order ID"
// @Success     200  {object}  domain.Order
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [delete]
func (h *Handlers) CancelOrder(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	o, err := h.orders.Cancel(c.Request.Context(), u, id)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// MyOrders godoc
// @ID          myOrders
// @Summary     Own orders
// @Tags        Orders
// @Produce     json
// @Param       status  query  string  false  "Filter by status"
// @Success     200  {array}  domain.Order
// @Router      /orders/my [get]
func (h *Handlers) MyOrders(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	list, err := h.orders.ListMine(c.Request.Context(), u, queryStr(c, "status"))
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// AvailableOrders godoc
// @ID          availableOrders
// @Summary     Executor feed
// @Description Active orders matching the executor's interests. Explicit city/categories params override the implicit narrowing; show_all disables it.
// @Tags        Orders
// @Produce     json
// @Param       city         query  string  false  "Explicit city filter"
// @Param       categories   query  string  false  "Comma-separated category list"
// @Param       budget_type  query  string  false  "fixed or negotiable"
// @Param       has_photos   query  bool    false  "Only orders with photos"
// @Param       fresh_only   query  bool    false  "Only recently posted orders"
// @Param       show_all     query  bool    false  "Disable implicit narrowing"
// @Success     200  {array}  domain.Order
// @Router      /orders/available [get]
func (h *Handlers) AvailableOrders(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	q := services.FeedQuery{
		City:       queryStr(c, "city"),
		BudgetType: queryStr(c, "budget_type"),
		HasPhotos:  queryBool(c, "has_photos"),
	}
	if raw := strings.TrimSpace(c.Query("categories")); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				q.Categories = append(q.Categories, cat)
			}
		}
	}
	if b := queryBool(c, "fresh_only"); b != nil {
		q.FreshOnly = *b
	}
	if b := queryBool(c, "show_all"); b != nil {
		q.ShowAll = *b
	}
	list, err := h.orders.Feed(c.Request.Context(), u, q)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// UploadPhotos godoc
// @ID          uploadOrderPhotos
// @Summary     Attach photos to own order
// @Description Multipart upload under the "photos" field. jpg/png/webp only, a hard per-file size cap, and the batch is silently truncated to the order's remaining photo slots.
// @Tags        Orders
// @Accept      multipart/form-data
// @Produce     json
// @Param       id      path      int   true  "Order ID"
// @Param       photos  formData  file  true  "Image files"
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     413  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/photos [post]
func (h *Handlers) UploadPhotos(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart form expected")
		return
	}
	files := form.File["photos"]
	if len(files) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "no photos attached")
		return
	}

	uploads := make([]services.PhotoUpload, 0, len(files))
	for _, fh := range files {
		if fh.Size > h.maxPhotoBytes {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "photo exceeds the size limit")
			return
		}
		ext, supported := extForUpload(fh.Header.Get("Content-Type"), fh.Filename)
		if !supported {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "only jpg, png and webp photos are accepted")
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable upload")
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxPhotoBytes+1))
		_ = f.Close()
		if err != nil || int64(len(data)) > h.maxPhotoBytes {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "photo exceeds the size limit")
			return
		}
		uploads = append(uploads, services.PhotoUpload{Data: data, Ext: ext})
	}

	o, err := h.orders.AttachPhotos(c.Request.Context(), u, id, uploads)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// ChooseExecutor godoc
// @ID          chooseExecutor
// @Summary     Assign a bid to own order
// @Description Atomically moves the order into work, settles all bids and opens the contact-reveal chat.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       id    path  int                               true  "Order ID"
// @Param       body  body  handlers.ChooseExecutorRequest    true  "Winning response"
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/choose_executor [post]
func (h *Handlers) ChooseExecutor(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req ChooseExecutorRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ResponseID <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "response_id is required")
		return
	}
	o, err := h.orders.ChooseExecutor(c.Request.Context(), u, id, req.ResponseID)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// ShowContacts godoc
// @ID          showContacts
// @Summary     Reveal contacts to the counterpart
// @Description Raises the caller's consent flag. Both parties' contact cards appear only once both sides agreed.
// @Tags        Orders
// @Produce     json
// @Param       id  path  int  true  "Order ID"
// @Success     200  {object}  services.ContactReveal
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/show-contacts [post]
func (h *Handlers) ShowContacts(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	state, err := h.orders.ShowContacts(c.Request.Context(), u, id)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, state)
}

// ContactsState godoc
// @ID          contactsState
// @Summary     Current contact-reveal state
// @Description Read-only view of both consent flags. Raises nothing.
// @Tags        Orders
// @Produce     json
// @Param       id  path  int  true  "Order ID"
// @Success     200  {object}  services.ContactReveal
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/contacts [get]
func (h *Handlers) ContactsState(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	state, err := h.orders.ContactState(c.Request.Context(), u, id)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, state)
}

// ChatLink godoc
// @ID          chatLink
// @Summary     Deep link to the order counterpart
// @Tags        Orders
// @Produce     json
// @Param       id  path  int  true  "Order ID"
// @Success     200  {object}  services.ChatLinkInfo
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/chat-link [get]
func (h *Handlers) ChatLink(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	link, err := h.orders.ChatLink(c.Request.Context(), u, id)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, link)
}

// CompleteOrder godoc
// @ID          completeOrder
// @Summary     Mark the order done
// @Description Either participant may complete. Completing a done order is an idempotent success.
// @Tags        Orders
// @Produce     json
// @Param       id  path  int  true  "Order ID"
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/complete [post]
func (h *Handlers) CompleteOrder(c *gin.Context) {
	u, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	o, err := h.orders.Complete(c.Request.Context(), u, id)
	if err != nil {
		failSvc(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// extForUpload decides the stored file extension from the declared content
// type, falling back to the filename suffix.
func extForUpload(contentType, filename string) (string, bool) {
	if ext, supported := media.ExtForContentType(strings.SplitN(contentType, ";", 2)[0]); supported {
		return ext, true
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "jpg", "jpeg":
		return "jpg", true
	case "png":
		return "png", true
	case "webp":
		return "webp", true
	}
	return "", false
}

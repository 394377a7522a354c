package handlers

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/services"
)

func TestCreateOrder(t *testing.T) {
	u := testCustomer()
	var got services.CreateOrderInput
	d := &testDeps{orders: &stubOrders{
		createFn: func(_ *domain.User, in services.CreateOrderInput) (*domain.Order, error) {
			got = in
			return &domain.Order{ID: 1, Title: in.Title, Status: domain.OrderStatusActive}, nil
		},
	}}
	r := newTestRouter(d, u)

	body := `{"title":"Assemble a wardrobe","description":"IKEA Pax","city":"Moscow",
		"categories":["furniture"],"budget_type":"fixed","budget_amount":5000,
		"start_date":"2026-09-01"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got.Title != "Assemble a wardrobe" || got.City != "Moscow" {
		t.Fatalf("input not forwarded: %+v", got)
	}
	if got.BudgetAmount == nil || *got.BudgetAmount != 5000 {
		t.Fatalf("budget_amount lost: %+v", got.BudgetAmount)
	}
	if got.StartDate == nil {
		t.Fatal("start_date not parsed")
	}
}

func TestCreateOrder_BadDate(t *testing.T) {
	d := &testDeps{orders: &stubOrders{}}
	r := newTestRouter(d, testCustomer())

	body := `{"title":"t","description":"d","city":"c","budget_type":"negotiable","start_date":"01.09.2026"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if code := errCode(t, w); code != ErrCodeValidation {
		t.Fatalf("code=%s", code)
	}
}

func TestCreateOrder_NoUser(t *testing.T) {
	d := &testDeps{orders: &stubOrders{}}
	r := newTestRouter(d, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	if code := errCode(t, w); code != ErrCodeNotAuthenticated {
		t.Fatalf("code=%s", code)
	}
}

func TestGetOrder_MalformedID(t *testing.T) {
	d := &testDeps{orders: &stubOrders{}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
	r.ServeHTTP(w, req)

	// Malformed ids look exactly like missing orders.
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if code := errCode(t, w); code != ErrCodeNotFound {
		t.Fatalf("code=%s", code)
	}
}

func TestGetOrder_NotFoundMapping(t *testing.T) {
	d := &testDeps{orders: &stubOrders{
		getFn: func(_ *domain.User, _ int64) (*domain.Order, error) {
			return nil, services.ErrOrderNotFound
		},
	}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestMyOrders_StatusFilter(t *testing.T) {
	var gotStatus *string
	d := &testDeps{orders: &stubOrders{
		listMineFn: func(_ *domain.User, status *string) ([]domain.Order, error) {
			gotStatus = status
			return []domain.Order{{ID: 1}, {ID: 2}}, nil
		},
	}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/my?status=active", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if gotStatus == nil || *gotStatus != "active" {
		t.Fatalf("status filter not forwarded: %v", gotStatus)
	}
	var list []domain.Order
	decodeBody(t, w, &list)
	if len(list) != 2 {
		t.Fatalf("len=%d", len(list))
	}
}

func TestAvailableOrders_QueryParsing(t *testing.T) {
	var got services.FeedQuery
	d := &testDeps{orders: &stubOrders{
		feedFn: func(_ *domain.User, q services.FeedQuery) ([]domain.Order, error) {
			got = q
			return nil, nil
		},
	}}
	r := newTestRouter(d, testExecutor())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/orders/available?city=Kazan&categories=plumbing,%20electrics&budget_type=fixed&has_photos=true&fresh_only=1&show_all=yes", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got.City == nil || *got.City != "Kazan" {
		t.Fatalf("city=%v", got.City)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "plumbing" || got.Categories[1] != "electrics" {
		t.Fatalf("categories=%v", got.Categories)
	}
	if got.BudgetType == nil || *got.BudgetType != "fixed" {
		t.Fatalf("budget_type=%v", got.BudgetType)
	}
	if got.HasPhotos == nil || !*got.HasPhotos {
		t.Fatalf("has_photos=%v", got.HasPhotos)
	}
	if !got.FreshOnly || !got.ShowAll {
		t.Fatalf("fresh_only=%v show_all=%v", got.FreshOnly, got.ShowAll)
	}
}

func TestUploadPhotos(t *testing.T) {
	var got []services.PhotoUpload
	d := &testDeps{orders: &stubOrders{
		attachPhotosFn: func(_ *domain.User, _ int64, uploads []services.PhotoUpload) (*domain.Order, error) {
			got = uploads
			return &domain.Order{ID: 3}, nil
		},
	}}
	r := newTestRouter(d, testCustomer())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="photos"; filename="a.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("jpegdata")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/3/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if len(got) != 1 || got[0].Ext != "jpg" || string(got[0].Data) != "jpegdata" {
		t.Fatalf("uploads=%+v", got)
	}
}

func TestUploadPhotos_UnsupportedType(t *testing.T) {
	d := &testDeps{orders: &stubOrders{}}
	r := newTestRouter(d, testCustomer())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="photos"; filename="a.gif"`)
	hdr.Set("Content-Type", "image/gif")
	part, _ := mw.CreatePart(hdr)
	_, _ = part.Write([]byte("gifdata"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/3/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if code := errCode(t, w); code != ErrCodeValidation {
		t.Fatalf("code=%s", code)
	}
}

func TestUploadPhotos_TooLarge(t *testing.T) {
	d := &testDeps{orders: &stubOrders{}}
	r := newTestRouter(d, testCustomer()) // 1 MiB cap in the harness

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="photos"; filename="big.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, _ := mw.CreatePart(hdr)
	_, _ = part.Write(bytes.Repeat([]byte("x"), 1<<20+1))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/3/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", w.Code)
	}
	if code := errCode(t, w); code != ErrCodePayloadTooLarge {
		t.Fatalf("code=%s", code)
	}
}

func TestChooseExecutor(t *testing.T) {
	var gotOrder, gotResp int64
	d := &testDeps{orders: &stubOrders{
		chooseExecutorFn: func(_ *domain.User, orderID, responseID int64) (*domain.Order, error) {
			gotOrder, gotResp = orderID, responseID
			return &domain.Order{ID: orderID, Status: domain.OrderStatusInProgress}, nil
		},
	}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/5/choose_executor", strings.NewReader(`{"response_id":12}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotOrder != 5 || gotResp != 12 {
		t.Fatalf("orderID=%d responseID=%d", gotOrder, gotResp)
	}
}

func TestChooseExecutor_MissingResponseID(t *testing.T) {
	d := &testDeps{orders: &stubOrders{}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/5/choose_executor", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestShowContacts_BothShown(t *testing.T) {
	d := &testDeps{orders: &stubOrders{
		showContactsFn: func(_ *domain.User, _ int64) (*services.ContactReveal, error) {
			return &services.ContactReveal{
				CustomerShown: true,
				ExecutorShown: true,
				BothAccepted:  true,
				Customer:      &services.Contacts{TelegramID: 100700, Phone: "+79990001122"},
				Executor:      &services.Contacts{TelegramID: 100900, Phone: "+79990003344"},
			}, nil
		},
	}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/5/show-contacts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp services.ContactReveal
	decodeBody(t, w, &resp)
	if !resp.BothAccepted || resp.Customer == nil || resp.Executor == nil {
		t.Fatalf("reveal=%+v", resp)
	}
	if resp.Executor.Phone != "+79990003344" {
		t.Fatalf("executor card=%+v", resp.Executor)
	}
}

func TestContactsState_ReadOnly(t *testing.T) {
	d := &testDeps{orders: &stubOrders{
		contactStateFn: func(_ *domain.User, _ int64) (*services.ContactReveal, error) {
			return &services.ContactReveal{CustomerShown: true}, nil
		},
	}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/5/contacts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp services.ContactReveal
	decodeBody(t, w, &resp)
	if !resp.CustomerShown || resp.ExecutorShown || resp.BothAccepted || resp.Customer != nil {
		t.Fatalf("reveal=%+v", resp)
	}
}

func TestChatLink(t *testing.T) {
	d := &testDeps{orders: &stubOrders{
		chatLinkFn: func(_ *domain.User, _ int64) (*services.ChatLinkInfo, error) {
			return &services.ChatLinkInfo{CounterpartID: 9, TelegramID: 100900, Link: "tg://user?id=100900"}, nil
		},
	}}
	r := newTestRouter(d, testCustomer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/5/chat-link", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp services.ChatLinkInfo
	decodeBody(t, w, &resp)
	if resp.Link != "tg://user?id=100900" {
		t.Fatalf("link=%s", resp.Link)
	}
}

func TestCompleteOrder_TransitionError(t *testing.T) {
	d := &testDeps{orders: &stubOrders{
		completeFn: func(_ *domain.User, _ int64) (*domain.Order, error) {
			return nil, services.ErrOrderNotCompletable
		},
	}}
	r := newTestRouter(d, testExecutor())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/5/complete", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if code := errCode(t, w); code != ErrCodeInvalidTransition {
		t.Fatalf("code=%s", code)
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"market-admin/internal/models"
	"market-admin/internal/services"
	"market-admin/internal/validation"
)

type stubProducts struct {
	product   *models.Product
	list      []*models.Product
	err       error
	filter    models.ProductFilter
	created   *models.ProductInput
	patch     *models.ProductPatch
	deletedID string
	version   *int
	actor     services.Actor
}

func (s *stubProducts) List(_ context.Context, f models.ProductFilter) ([]*models.Product, error) {
	s.filter = f
	return s.list, s.err
}

func (s *stubProducts) Search(_ context.Context, q string, limit int) ([]*models.Product, error) {
	s.filter = models.ProductFilter{Search: q, Limit: limit}
	return s.list, s.err
}

func (s *stubProducts) Get(context.Context, string) (*models.Product, error) {
	return s.product, s.err
}

func (s *stubProducts) LowStock(context.Context, int) ([]*models.Product, error) {
	return s.list, s.err
}

func (s *stubProducts) Create(_ context.Context, actor services.Actor, in *models.ProductInput) (*models.Product, error) {
	s.actor, s.created = actor, in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Product{ID: "p-new", Name: in.Name, Status: models.ProductActive, Version: 1, CreatedAt: time.Now()}, nil
}

func (s *stubProducts) Update(_ context.Context, actor services.Actor, id string, patch *models.ProductPatch) (*models.Product, error) {
	s.actor, s.patch = actor, patch
	if s.err != nil {
		return nil, s.err
	}
	return &models.Product{ID: id, Version: 4}, nil
}

func (s *stubProducts) Delete(_ context.Context, actor services.Actor, id string, version *int) (*models.Product, error) {
	s.actor, s.deletedID, s.version = actor, id, version
	if s.err != nil {
		return nil, s.err
	}
	return &models.Product{ID: id, Status: models.ProductDeleted}, nil
}

type stubProductImages struct {
	data []byte
}

func (s *stubProductImages) AddProductImage(_ context.Context, _ services.Actor, id string, data []byte) (*models.Product, error) {
	s.data = data
	return &models.Product{ID: id, Images: []string{"https://cdn.test/products/a.jpg"}}, nil
}

func (s *stubProductImages) RemoveProductImage(_ context.Context, _ services.Actor, id, _ string) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

func TestCreateProductValidationErrors(t *testing.T) {
	svc := &stubProducts{}
	h := NewProductHandler(svc, nil, testLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, "POST", "/api/products", map[string]interface{}{
		"name":  "  ",
		"price": "abc",
		"stock": -1,
	}))

	assertStatus(t, rec, http.StatusBadRequest)
	var body validation.Errors
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{
		"Name is required",
		"Description is required",
		"Valid price is required",
		"Category is required",
		"Valid stock quantity is required",
	}
	if len(body.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %+v", len(want), body.Errors)
	}
	for i, msg := range want {
		if body.Errors[i].Msg != msg || body.Errors[i].Location != "body" || body.Errors[i].Type != "field" {
			t.Errorf("error %d = %+v, want msg %q", i, body.Errors[i], msg)
		}
	}
	if svc.created != nil {
		t.Fatal("service should not be called on invalid input")
	}
}

func TestCreateProductAcceptsStockQuantity(t *testing.T) {
	svc := &stubProducts{}
	h := NewProductHandler(svc, nil, testLogger())

	req := withAdmin(jsonRequest(t, "POST", "/api/products", map[string]interface{}{
		"name":           "Lamp",
		"description":    "Desk lamp",
		"price":          "19.50",
		"category":       "home",
		"stock_quantity": 4,
	}), &models.AdminUser{ID: "admin-1", UserID: "user-1"})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assertStatus(t, rec, http.StatusCreated)
	if svc.created.StockQuantity != 4 {
		t.Errorf("expected stock 4, got %d", svc.created.StockQuantity)
	}
	if !svc.created.Price.Equal(decimal.RequireFromString("19.5")) {
		t.Errorf("unexpected price %s", svc.created.Price)
	}
	if svc.actor.AdminID != "admin-1" {
		t.Errorf("expected actor admin-1, got %q", svc.actor.AdminID)
	}
	body := decodeMap(t, rec)
	if body["id"] != "p-new" || body["status"] != models.ProductActive {
		t.Errorf("unexpected body %v", body)
	}
	if rec.Header().Get("ETag") != `"1"` {
		t.Errorf("unexpected ETag %q", rec.Header().Get("ETag"))
	}
}

func TestCreateProductRejectsUnknownFields(t *testing.T) {
	h := NewProductHandler(&stubProducts{}, nil, testLogger())
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, "POST", "/api/products", `{"name":"x","owner":"me"}`))
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestGetProductNotFound(t *testing.T) {
	h := NewProductHandler(&stubProducts{err: services.ErrNotFound}, nil, testLogger())
	rec := httptest.NewRecorder()
	h.Get(rec, withVars(httptest.NewRequest("GET", "/api/products/nope", nil), map[string]string{"id": "nope"}))

	assertStatus(t, rec, http.StatusNotFound)
	if got := decodeMap(t, rec)["error"]; got != "Product not found" {
		t.Errorf("unexpected error %v", got)
	}
}

func TestListProductsPassesFilters(t *testing.T) {
	svc := &stubProducts{}
	h := NewProductHandler(svc, nil, testLogger())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/products?category=home&status=deleted&limit=5&offset=10", nil))

	assertStatus(t, rec, http.StatusOK)
	if svc.filter.Category != "home" || svc.filter.Status != "deleted" || svc.filter.Limit != 5 || svc.filter.Offset != 10 {
		t.Errorf("unexpected filter %+v", svc.filter)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("expected empty array, got %q", got)
	}
}

func TestListProductsFailure(t *testing.T) {
	h := NewProductHandler(&stubProducts{err: errors.New("connection refused")}, nil, testLogger())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/products", nil))

	assertStatus(t, rec, http.StatusInternalServerError)
	if got := decodeMap(t, rec)["error"]; got != "Failed to fetch products" {
		t.Errorf("unexpected error %v", got)
	}
}

func TestUpdateProductPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		body     interface{}
		ifMatch  string
		svcErr   error
		want     int
		wantVers int
	}{
		{name: "if-match header", body: map[string]interface{}{"price": 12}, ifMatch: `"3"`, want: http.StatusOK, wantVers: 3},
		{name: "body version", body: map[string]interface{}{"stock": 2, "version": 7}, want: http.StatusOK, wantVers: 7},
		{name: "stale version", body: map[string]interface{}{"name": "New"}, ifMatch: "2", svcErr: services.ErrConflict, want: http.StatusConflict, wantVers: 2},
		{name: "bad header", body: map[string]interface{}{"name": "New"}, ifMatch: "abc", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubProducts{err: tt.svcErr}
			h := NewProductHandler(svc, nil, testLogger())
			req := withVars(jsonRequest(t, "PUT", "/api/products/p1", tt.body), map[string]string{"id": "p1"})
			if tt.ifMatch != "" {
				req.Header.Set("If-Match", tt.ifMatch)
			}
			rec := httptest.NewRecorder()
			h.Update(rec, req)

			assertStatus(t, rec, tt.want)
			if tt.wantVers != 0 {
				if svc.patch == nil || svc.patch.ExpectedVersion == nil || *svc.patch.ExpectedVersion != tt.wantVers {
					t.Errorf("expected version %d, got %+v", tt.wantVers, svc.patch)
				}
			}
		})
	}
}

func TestUpdateProductValidation(t *testing.T) {
	svc := &stubProducts{}
	h := NewProductHandler(svc, nil, testLogger())
	req := withVars(jsonRequest(t, "PUT", "/api/products/p1", map[string]interface{}{
		"name":   "",
		"status": "archived",
	}), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assertStatus(t, rec, http.StatusBadRequest)
	var body validation.Errors
	json.NewDecoder(rec.Body).Decode(&body)
	if len(body.Errors) != 2 || body.Errors[0].Msg != "Name cannot be empty" || body.Errors[1].Path != "status" {
		t.Errorf("unexpected errors %+v", body.Errors)
	}
	if svc.patch != nil {
		t.Fatal("service should not be called")
	}
}

func TestUpdateProductEmptyPatch(t *testing.T) {
	svc := &stubProducts{}
	h := NewProductHandler(svc, nil, testLogger())
	req := withVars(jsonRequest(t, "PUT", "/api/products/p1", `{"version":2}`), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assertStatus(t, rec, http.StatusOK)
	if svc.patch == nil || !svc.patch.Empty() {
		t.Errorf("expected an empty patch to reach the service, got %+v", svc.patch)
	}
}

func TestUpdateMissingProductWithEmptyBody(t *testing.T) {
	h := NewProductHandler(&stubProducts{err: services.ErrNotFound}, nil, testLogger())
	req := withVars(jsonRequest(t, "PUT", "/api/products/missing", `{}`), map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assertStatus(t, rec, http.StatusNotFound)
	if got := decodeMap(t, rec)["error"]; got != "Product not found" {
		t.Errorf("unexpected error %v", got)
	}
}

func TestDeleteProduct(t *testing.T) {
	svc := &stubProducts{}
	h := NewProductHandler(svc, nil, testLogger())
	rec := httptest.NewRecorder()
	h.Delete(rec, withVars(httptest.NewRequest("DELETE", "/api/products/p1", nil), map[string]string{"id": "p1"}))

	assertStatus(t, rec, http.StatusOK)
	if got := decodeMap(t, rec)["message"]; got != "Product deleted successfully" {
		t.Errorf("unexpected message %v", got)
	}
	if svc.deletedID != "p1" || svc.version != nil {
		t.Errorf("unexpected delete call id=%q version=%v", svc.deletedID, svc.version)
	}
}

func TestDeleteProductNotFound(t *testing.T) {
	h := NewProductHandler(&stubProducts{err: services.ErrNotFound}, nil, testLogger())
	rec := httptest.NewRecorder()
	h.Delete(rec, withVars(httptest.NewRequest("DELETE", "/api/products/x", nil), map[string]string{"id": "x"}))
	assertStatus(t, rec, http.StatusNotFound)
}

func TestUploadImage(t *testing.T) {
	t.Run("storage disabled", func(t *testing.T) {
		h := NewProductHandler(&stubProducts{}, nil, testLogger())
		rec := httptest.NewRecorder()
		h.UploadImage(rec, httptest.NewRequest("POST", "/api/products/p1/images", nil))
		assertStatus(t, rec, http.StatusServiceUnavailable)
	})

	t.Run("multipart", func(t *testing.T) {
		images := &stubProductImages{}
		h := NewProductHandler(&stubProducts{}, images, testLogger())

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, _ := mw.CreateFormFile("image", "photo.jpg")
		part.Write([]byte("fake-image-bytes"))
		mw.Close()

		req := httptest.NewRequest("POST", "/api/products/p1/images", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.UploadImage(rec, withVars(req, map[string]string{"id": "p1"}))

		assertStatus(t, rec, http.StatusCreated)
		if string(images.data) != "fake-image-bytes" {
			t.Errorf("unexpected upload payload %q", images.data)
		}
	})
}

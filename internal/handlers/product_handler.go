package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"market-admin/internal/middleware"
	"market-admin/internal/models"
	"market-admin/internal/services"
	"market-admin/internal/storage"
	"market-admin/internal/validation"
	"market-admin/pkg/utils"
)

type ProductService interface {
	List(ctx context.Context, f models.ProductFilter) ([]*models.Product, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	LowStock(ctx context.Context, threshold int) ([]*models.Product, error)
	Create(ctx context.Context, actor services.Actor, in *models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, actor services.Actor, id string, patch *models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, actor services.Actor, id string, expectedVersion *int) (*models.Product, error)
}

type ProductImages interface {
	AddProductImage(ctx context.Context, actor services.Actor, productID string, data []byte) (*models.Product, error)
	RemoveProductImage(ctx context.Context, actor services.Actor, productID, url string) (*models.Product, error)
}

type ProductHandler struct {
	Service ProductService
	Images  ProductImages
	logger  *logrus.Logger
}

// NewProductHandler wires the products API. images may be nil when object
// storage is not configured.
func NewProductHandler(service ProductService, images ProductImages, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{Service: service, Images: images, logger: logger}
}

const productNotFound = "Product not found"

type productPayload struct {
	Name           json.RawMessage        `json:"name"`
	Description    json.RawMessage        `json:"description"`
	Price          json.RawMessage        `json:"price"`
	Category       json.RawMessage        `json:"category"`
	Stock          json.RawMessage        `json:"stock"`
	StockQuantity  json.RawMessage        `json:"stock_quantity"`
	Status         json.RawMessage        `json:"status"`
	Images         *[]string              `json:"images"`
	Specifications map[string]interface{} `json:"specifications"`
	SellerID       *string                `json:"seller_id"`
	IsApproved     *bool                  `json:"is_approved"`
	Version        *int                   `json:"version"`
}

// stockField returns whichever stock field the client sent, preferring "stock".
func (p *productPayload) stockField() (string, json.RawMessage) {
	if validation.Present(p.Stock) || !validation.Present(p.StockQuantity) {
		return "stock", p.Stock
	}
	return "stock_quantity", p.StockQuantity
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && !models.ValidProductStatus(status) {
		badRequest(w, "Invalid status filter")
		return
	}
	products, err := h.Service.List(r.Context(), models.ProductFilter{
		Category: q.Get("category"),
		Status:   status,
		Search:   q.Get("search"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to fetch products")
		return
	}
	utils.JSON(w, http.StatusOK, nonNilProducts(products))
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		badRequest(w, "Search query is required")
		return
	}
	products, err := h.Service.Search(r.Context(), query, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to search products")
		return
	}
	utils.JSON(w, http.StatusOK, nonNilProducts(products))
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.LowStock(r.Context(), queryInt(r, "threshold", 10))
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to fetch products")
		return
	}
	utils.JSON(w, http.StatusOK, nonNilProducts(products))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to fetch product")
		return
	}
	setETag(w, p.Version)
	utils.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body productPayload
	if err := validation.DecodeStrict(r.Body, &body); err != nil {
		badRequest(w, err.Error())
		return
	}

	var v validation.Validator
	in := &models.ProductInput{
		Name:           v.RequiredString("name", body.Name, "Name is required"),
		Description:    v.RequiredString("description", body.Description, "Description is required"),
		Price:          v.Numeric("price", body.Price, "Valid price is required"),
		Category:       v.RequiredString("category", body.Category, "Category is required"),
		Specifications: body.Specifications,
		SellerID:       body.SellerID,
	}
	path, raw := body.stockField()
	in.StockQuantity = v.Int(path, raw, 0, "Valid stock quantity is required")
	if body.Images != nil {
		in.Images = *body.Images
	}
	if err := v.Err(); err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to create product")
		return
	}

	p, err := h.Service.Create(r.Context(), middleware.Actor(r), in)
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to create product")
		return
	}
	setETag(w, p.Version)
	utils.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body productPayload
	if err := validation.DecodeStrict(r.Body, &body); err != nil {
		badRequest(w, err.Error())
		return
	}

	var v validation.Validator
	patch := &models.ProductPatch{
		Name:           v.OptionalString("name", body.Name, "Name cannot be empty"),
		Description:    v.OptionalString("description", body.Description, "Description cannot be empty"),
		Price:          v.OptionalNumeric("price", body.Price, "Valid price is required"),
		Category:       v.OptionalString("category", body.Category, "Category cannot be empty"),
		Images:         body.Images,
		Specifications: body.Specifications,
		IsApproved:     body.IsApproved,
	}
	path, raw := body.stockField()
	patch.StockQuantity = v.OptionalInt(path, raw, 0, "Valid stock quantity is required")
	if status := v.OptionalString("status", body.Status, "Invalid status"); status != nil && *status != "" {
		if !models.ValidProductStatus(*status) {
			v.Add("status", "Invalid status", body.Status)
		}
		patch.Status = status
	}
	if err := v.Err(); err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to update product")
		return
	}

	version, ok := expectedVersion(r, body.Version)
	if !ok {
		badRequest(w, "Invalid If-Match header")
		return
	}
	patch.ExpectedVersion = version

	p, err := h.Service.Update(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to update product")
		return
	}
	setETag(w, p.Version)
	utils.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	version, ok := expectedVersion(r, nil)
	if !ok {
		badRequest(w, "Invalid If-Match header")
		return
	}
	if _, err := h.Service.Delete(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], version); err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to delete product")
		return
	}
	utils.Message(w, http.StatusOK, "Product deleted successfully")
}

func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Image storage is not configured")
		return
	}
	data, ok := readUpload(w, r, storage.MaxProductImageSize)
	if !ok {
		return
	}
	p, err := h.Images.AddProductImage(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], data)
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to upload image")
		return
	}
	setETag(w, p.Version)
	utils.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Image storage is not configured")
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		badRequest(w, "Image url is required")
		return
	}
	p, err := h.Images.RemoveProductImage(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], url)
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to delete image")
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

// readUpload reads the "image" multipart field, allowing one byte over limit
// so the size check downstream can tell an oversized file apart.
func readUpload(w http.ResponseWriter, r *http.Request, limit int) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(limit)+1<<20)
	if err := r.ParseMultipartForm(int64(limit) + 1<<20); err != nil {
		utils.Error(w, http.StatusRequestEntityTooLarge, "Upload is too large or not multipart")
		return nil, false
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		badRequest(w, "Image file is required")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(limit)+1))
	if err != nil {
		badRequest(w, "Failed to read image")
		return nil, false
	}
	return data, true
}

func nonNilProducts(p []*models.Product) []*models.Product {
	if p == nil {
		return []*models.Product{}
	}
	return p
}

package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/middleware"
	"affiliate-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxImportBytes   = 10 << 20
	truncatedHeader  = "X-Catalog-Truncated"
	truncatedWarning = "product list reached the row ceiling and may be incomplete"
)

// Bulk actions accepted by POST /api/admin/products/bulk
const (
	BulkActionUpdate         = "update"
	BulkActionDelete         = "delete"
	BulkActionGenerateRating = "generate_rating"
)

// CreateProductRequest is the payload for creating a product. Field names
// follow the products table. Price must be present; a missing price is not
// read as zero.
type CreateProductRequest struct {
	ProductCode    *string             `json:"product_id"`
	ProductName    string              `json:"product_name"`
	Category       string              `json:"category"`
	Subcategory    *string             `json:"subcategory"`
	Item           *string             `json:"item"`
	Price          *decimal.Decimal    `json:"price" validate:"required"`
	OriginalPrice  decimal.NullDecimal `json:"original_price"`
	Commission     decimal.NullDecimal `json:"commission"`
	Sales          int                 `json:"sales"`
	Rating         decimal.NullDecimal `json:"rating"`
	AffiliateURL   string              `json:"affiliate_url"`
	ImageURL       string              `json:"image_url"`
	VideoURL       *string             `json:"video_url"`
	ShippingOrigin *string             `json:"dikirim_dari"`
	Store          *string             `json:"toko"`
	StockAvailable *bool               `json:"stock_available"`
	IsFeatured     bool                `json:"is_featured"`
	FeaturedOrder  *int                `json:"featured_order"`
}

func (req *CreateProductRequest) toNewProduct() *domain.NewProduct {
	stock := true
	if req.StockAvailable != nil {
		stock = *req.StockAvailable
	}
	return &domain.NewProduct{
		ProductCode:    req.ProductCode,
		ProductName:    req.ProductName,
		Category:       req.Category,
		Subcategory:    req.Subcategory,
		Item:           req.Item,
		Price:          *req.Price,
		OriginalPrice:  req.OriginalPrice,
		Commission:     req.Commission,
		Sales:          req.Sales,
		Rating:         req.Rating,
		AffiliateURL:   req.AffiliateURL,
		ImageURL:       req.ImageURL,
		VideoURL:       req.VideoURL,
		ShippingOrigin: req.ShippingOrigin,
		Store:          req.Store,
		StockAvailable: stock,
		IsFeatured:     req.IsFeatured,
		FeaturedOrder:  req.FeaturedOrder,
	}
}

// BulkRequest applies one action to many products
type BulkRequest struct {
	Action string               `json:"action" validate:"required,oneof=update delete generate_rating"`
	IDs    []uuid.UUID          `json:"ids" validate:"required,min=1,max=1000"`
	Patch  *domain.ProductPatch `json:"patch" validate:"required_if=Action update"`
}

// ReorderRequest lists featured products in their new display order
type ReorderRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=1000"`
}

// AdminProductsResponse is the full admin listing
type AdminProductsResponse struct {
	Products  []productView `json:"products"`
	Total     int           `json:"total"`
	Windows   int           `json:"windows"`
	Truncated bool          `json:"truncated"`
	Warning   string        `json:"warning,omitempty"`
}

// AdminHandler serves the authenticated catalog management surface
type AdminHandler struct {
	catalog  service.CatalogService
	products service.ProductService
	clicks   service.ClickService
	settings service.SettingsService
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	catalog service.CatalogService,
	products service.ProductService,
	clicks service.ClickService,
	settings service.SettingsService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		products: products,
		clicks:   clicks,
		settings: settings,
		logger:   logger,
	}
}

// RegisterRoutes registers the admin routes behind guard
func (h *AdminHandler) RegisterRoutes(r chi.Router, guard ...func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(guard...)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/non-featured", h.ListNonFeatured)
			r.Post("/bulk", h.Bulk)
			r.Post("/import", h.ImportCSV)
			r.Get("/export", h.ExportCSV)
			r.Patch("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Post("/{id}/rating", h.GenerateRating)
		})

		r.Put("/featured/order", h.ReorderFeatured)
		r.Post("/featured/{id}", h.AddFeatured)
		r.Delete("/featured/{id}", h.RemoveFeatured)

		r.Get("/analytics", h.Analytics)
		r.Patch("/settings", h.UpdateSettings)
	})
}

// ListProducts assembles the whole catalog and filters it in memory
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.ListAll(r.Context(), filterSpecFromQuery(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "List admin products", err)
		return
	}

	resp := AdminProductsResponse{
		Products:  presentProducts(result.Products),
		Total:     len(result.Products),
		Windows:   result.Windows,
		Truncated: result.Truncated,
	}
	if result.Truncated {
		w.Header().Set(truncatedHeader, "true")
		resp.Warning = truncatedWarning
	}
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) ListNonFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.NonFeatured(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "List non-featured products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProducts(products))
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	product, err := h.products.Create(r.Context(), req.toNewProduct())
	if err != nil {
		respondWithServiceError(w, h.logger, "Create product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, presentProduct(product))
}

// UpdateProduct applies a partial update. Keys absent from the body are left
// alone; null clears a nullable field.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var patch domain.ProductPatch
	if err := middleware.DecodeAndValidate(w, r, &patch); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}
	if patch.IsEmpty() {
		middleware.RespondWithError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	product, err := h.products.Update(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, h.logger, "Update product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProduct(product))
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Bulk runs one action over many ids and reports per-item outcomes
func (h *AdminHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	var (
		result *service.BulkResult
		err    error
	)
	switch req.Action {
	case BulkActionUpdate:
		if req.Patch.IsEmpty() {
			middleware.RespondWithError(w, http.StatusBadRequest, "no fields to update")
			return
		}
		result, err = h.products.BulkUpdate(r.Context(), req.IDs, *req.Patch)
	case BulkActionDelete:
		result, err = h.products.BulkDelete(r.Context(), req.IDs)
	case BulkActionGenerateRating:
		result, err = h.products.BulkGenerateRating(r.Context(), req.IDs)
	}
	if err != nil {
		respondWithServiceError(w, h.logger, "Bulk "+req.Action, err)
		return
	}

	h.logger.Info("Bulk action completed",
		zap.String("action", req.Action),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) GenerateRating(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.GenerateRating(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Generate rating", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProduct(product))
}

func (h *AdminHandler) AddFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.AddFeatured(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Add featured product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProduct(product))
}

func (h *AdminHandler) RemoveFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.RemoveFeatured(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Remove featured product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProduct(product))
}

func (h *AdminHandler) ReorderFeatured(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	updated, err := h.products.ReorderFeatured(r.Context(), req.IDs)
	if err != nil {
		respondWithServiceError(w, h.logger, "Reorder featured products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// ImportCSV accepts either a raw CSV body or a multipart upload in "file"
func (h *AdminHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "multipart upload must carry a file field")
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.products.ImportCSV(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "csv upload too large")
			return
		}
		respondWithServiceError(w, h.logger, "Import products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// ExportCSV streams the filtered full listing as CSV
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.ListAll(r.Context(), filterSpecFromQuery(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "Export products", err)
		return
	}

	filename := fmt.Sprintf("products-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if result.Truncated {
		w.Header().Set(truncatedHeader, "true")
	}
	w.WriteHeader(http.StatusOK)

	if err := h.products.ExportCSV(r.Context(), result.Products, w); err != nil {
		h.logger.Error("CSV export aborted mid-stream", zap.Error(err))
	}
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.clicks.Summary(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Load analytics", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := middleware.DecodeAndValidate(w, r, &patch); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	settings, err := h.settings.Update(r.Context(), patch)
	if err != nil {
		respondWithServiceError(w, h.logger, "Update settings", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

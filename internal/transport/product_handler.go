package transport

import (
	"net/http"

	"affiliate-catalog/internal/middleware"
	"affiliate-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PageResponse is one storefront page of products
type PageResponse struct {
	Products   []productView `json:"products"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor,omitempty"`
	Reset      bool          `json:"reset,omitempty"`
}

// ProductHandler serves the public product listing
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the public product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/featured", h.Featured)
		r.Get("/latest", h.Latest)
		r.Get("/popular", h.Popular)
		r.Get("/{id}", h.Get)
	})
}

// List returns one page of the filtered storefront listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	spec := filterSpecFromQuery(r)

	page, err := h.catalog.Page(r.Context(), spec, r.URL.Query().Get("cursor"))
	if err != nil {
		respondWithServiceError(w, h.logger, "List products", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PageResponse{
		Products:   presentProducts(page.Products),
		HasMore:    page.HasMore,
		NextCursor: page.NextCursor,
		Reset:      page.Reset,
	})
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "List featured products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProducts(products))
}

func (h *ProductHandler) Latest(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Latest(r.Context(), limitFromQuery(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "List latest products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProducts(products))
}

func (h *ProductHandler) Popular(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Popular(r.Context(), limitFromQuery(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "List popular products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProducts(products))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, presentProduct(product))
}

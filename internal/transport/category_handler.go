package transport

import (
	"net/http"
	"strings"

	"affiliate-catalog/internal/middleware"
	"affiliate-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryHandler serves the category tree, slug resolution and the
// facet lists used by the storefront filters
type CategoryHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCategoryHandler(catalog service.CatalogService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/categories", h.Hierarchy)
	r.Get("/api/categories/resolve", h.Resolve)
	r.Get("/api/filters/origins", h.ShippingOrigins)
	r.Get("/api/filters/items", h.Items)
}

func (h *CategoryHandler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	hierarchy, err := h.catalog.Hierarchy(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Load category hierarchy", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, hierarchy)
}

// Resolve maps category and subcategory slugs back to names. Unknown slugs
// answer 200 with known=false so the storefront can render a fallback title.
func (h *CategoryHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "category slug is required")
		return
	}

	resolved, err := h.catalog.ResolveSlugs(r.Context(), category, strings.TrimSpace(r.URL.Query().Get("subcategory")))
	if err != nil {
		respondWithServiceError(w, h.logger, "Resolve category slugs", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, resolved)
}

func (h *CategoryHandler) ShippingOrigins(w http.ResponseWriter, r *http.Request) {
	origins, err := h.catalog.ShippingOrigins(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "List shipping origins", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, origins)
}

func (h *CategoryHandler) Items(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.catalog.Items(r.Context(), strings.TrimSpace(q.Get("category")), strings.TrimSpace(q.Get("subcategory")))
	if err != nil {
		respondWithServiceError(w, h.logger, "List items", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

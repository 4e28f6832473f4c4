package transport

import (
	"net/http"

	"affiliate-catalog/internal/middleware"
	"affiliate-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ClickHandler records affiliate link clicks
type ClickHandler struct {
	clicks  service.ClickService
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewClickHandler(clicks service.ClickService, catalog service.CatalogService, logger *zap.Logger) *ClickHandler {
	return &ClickHandler{clicks: clicks, catalog: catalog, logger: logger}
}

// RegisterRoutes registers the click routes behind limiter. limiter may be nil.
func (h *ClickHandler) RegisterRoutes(r chi.Router, limiter func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter)
		}
		r.Post("/api/clicks/{productId}", h.Record)
		r.Get("/go/{productId}", h.Redirect)
	})
}

// Record tracks a click synchronously and reports write failures
func (h *ClickHandler) Record(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productId")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.clicks.Record(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Record click", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusAccepted, map[string]any{"recorded": true})
}

// Redirect sends the visitor to the product's affiliate link. Tracking runs
// in the background and never delays the redirect.
func (h *ClickHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productId")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Resolve affiliate link", err)
		return
	}

	h.clicks.RecordAsync(id)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, product.AffiliateURL, http.StatusFound)
}

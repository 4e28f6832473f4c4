package transport

import (
	"net/http"

	"affiliate-catalog/internal/middleware"
	"affiliate-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settings service.SettingsService
	logger   *zap.Logger
}

func NewSettingsHandler(settings service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/settings", h.Get)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Load settings", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

package transport

import (
	"context"
	"errors"
	"net/http"

	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/fetch"
	"affiliate-catalog/internal/middleware"
	"affiliate-catalog/internal/repository"
	"affiliate-catalog/internal/service"

	"go.uber.org/zap"
)

// badRequestErrors are caller mistakes reported verbatim with a 400
var badRequestErrors = []error{
	domain.ErrPriceRangeInverted,
	domain.ErrNegativePrice,
	domain.ErrSubcategoryWithoutCat,
	fetch.ErrInvalidCursor,
	service.ErrNotFeatured,
	service.ErrDuplicateFeatured,
	service.ErrUnknownPeriod,
	service.ErrMissingCSVHeader,
}

// respondWithServiceError maps a service or fetch error onto the HTTP error
// envelope. op names the failed operation in logs.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		fields := make([]middleware.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = middleware.FieldError{Field: f.Field, Message: f.Message}
		}
		middleware.RespondWithValidationErrors(w, fields)
		return
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if errors.Is(err, repository.ErrProductNotFound) {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	var partial *fetch.PartialFetchError
	if errors.As(err, &partial) {
		logger.Error(op+" failed after partial fetch",
			zap.Int("fetched", len(partial.Fetched)),
			zap.Int("windows", partial.Windows),
			zap.Error(err),
		)
		w.Header().Set("Retry-After", "5")
		middleware.RespondWithErrorDetails(w, http.StatusServiceUnavailable, "product listing incomplete, try again", map[string]any{
			"fetched":   len(partial.Fetched),
			"windows":   partial.Windows,
			"retryable": true,
		})
		return
	}

	if errors.Is(err, fetch.ErrBackendUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn(op+" hit an unavailable backend", zap.Error(err))
		w.Header().Set("Retry-After", "5")
		middleware.RespondWithErrorDetails(w, http.StatusServiceUnavailable, "product backend unavailable", map[string]any{
			"retryable": true,
		})
		return
	}

	if errors.Is(err, context.Canceled) {
		logger.Debug(op+" cancelled by client", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}

	logger.Error(op+" failed", zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

func respondWithDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))
	if fields := middleware.FormatValidationErrors(err); len(fields) > 0 {
		middleware.RespondWithValidationErrors(w, fields)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

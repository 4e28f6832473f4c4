package service

import (
	"context"
	"strings"

	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/repository"

	"go.uber.org/zap"
)

type SettingsService interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error)
}

type settingsService struct {
	repo   repository.SettingsRepository
	logger *zap.Logger
}

func NewSettingsService(repo repository.SettingsRepository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger}
}

func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	return s.repo.Get(ctx)
}

// Update applies the patch. Blank tracking ids clear the stored value.
func (s *settingsService) Update(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	verr := &ValidationError{}
	if patch.ShowCategoryFilter.Set && patch.ShowCategoryFilter.Null {
		verr.add("show_category_filter", "This field cannot be cleared")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	for _, f := range []*domain.Optional[string]{&patch.FacebookPixelID, &patch.GoogleAnalyticsID} {
		if f.HasValue() {
			f.Value = strings.TrimSpace(f.Value)
			if f.Value == "" {
				*f = domain.Cleared[string]()
			}
		}
	}

	settings, err := s.repo.Update(ctx, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Settings updated")
	return settings, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"affiliate-catalog/internal/domain"
)

const settingsColumns = `id, show_category_filter, facebook_pixel_id, google_analytics_id, updated_at`

// SettingsRepository reads and updates the single storefront settings row
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error)
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func scanSettings(row rowScanner) (*domain.Settings, error) {
	s := &domain.Settings{}
	if err := row.Scan(&s.ID, &s.ShowCategoryFilter, &s.FacebookPixelID, &s.GoogleAnalyticsID, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the settings row, creating it with defaults when missing
func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	s, err := scanSettings(r.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM settings ORDER BY updated_at ASC LIMIT 1`))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	s, err = scanSettings(r.db.QueryRowContext(ctx,
		`INSERT INTO settings (show_category_filter) VALUES (TRUE) RETURNING `+settingsColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	return s, nil
}

// Update applies the present fields of patch to the settings row
func (r *settingsRepository) Update(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}

	var set setBuilder
	addOptional(&set, "show_category_filter", patch.ShowCategoryFilter)
	addOptional(&set, "facebook_pixel_id", patch.FacebookPixelID)
	addOptional(&set, "google_analytics_id", patch.GoogleAnalyticsID)
	if len(set.clauses) == 0 {
		return current, nil
	}

	set.clauses = append(set.clauses, "updated_at = NOW()")
	set.args = append(set.args, current.ID)
	query := fmt.Sprintf(`UPDATE settings SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set.clauses, ", "), len(set.args), settingsColumns)

	updated, err := scanSettings(r.db.QueryRowContext(ctx, query, set.args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return updated, nil
}

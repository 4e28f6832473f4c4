package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventTypeClick is the only analytics event recorded today
const EventTypeClick = "click"

// ClickEvent is an append-only record of a product click. ID doubles as the
// idempotency key for the event log.
type ClickEvent struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	EventType string    `json:"event_type" db:"event_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductClicks is one row of the top-products report
type ProductClicks struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Clicks      int64     `json:"clicks"`
}

// AnalyticsSummary aggregates click analytics over a period
type AnalyticsSummary struct {
	Period        string          `json:"period"`
	TotalProducts int64           `json:"total_products"`
	TotalClicks   int64           `json:"total_clicks"`
	TopProducts   []ProductClicks `json:"top_products"`
}

// Settings holds storefront toggles and the tracking ids managed by admins
type Settings struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	ShowCategoryFilter bool      `json:"show_category_filter" db:"show_category_filter"`
	FacebookPixelID    *string   `json:"facebook_pixel_id" db:"facebook_pixel_id"`
	GoogleAnalyticsID  *string   `json:"google_analytics_id" db:"google_analytics_id"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// SettingsPatch is a partial settings update
type SettingsPatch struct {
	ShowCategoryFilter Optional[bool]   `json:"show_category_filter"`
	FacebookPixelID    Optional[string] `json:"facebook_pixel_id"`
	GoogleAnalyticsID  Optional[string] `json:"google_analytics_id"`
}

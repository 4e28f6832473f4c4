package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents an affiliate product in the catalog
type Product struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	ProductCode    *string             `json:"product_id" db:"product_id"`
	ProductName    string              `json:"product_name" db:"product_name"`
	Category       string              `json:"category" db:"category"`
	Subcategory    *string             `json:"subcategory" db:"subcategory"`
	Item           *string             `json:"item" db:"item"`
	Price          decimal.Decimal     `json:"price" db:"price"`
	OriginalPrice  decimal.NullDecimal `json:"original_price" db:"original_price"`
	Commission     decimal.NullDecimal `json:"commission" db:"commission"`
	Sales          int                 `json:"sales" db:"sales"`
	Rating         decimal.NullDecimal `json:"rating" db:"rating"`
	AffiliateURL   string              `json:"affiliate_url" db:"affiliate_url"`
	ImageURL       string              `json:"image_url" db:"image_url"`
	VideoURL       *string             `json:"video_url" db:"video_url"`
	ShippingOrigin *string             `json:"dikirim_dari" db:"dikirim_dari"`
	Store          *string             `json:"toko" db:"toko"`
	StockAvailable *bool               `json:"stock_available" db:"stock_available"`
	IsFeatured     bool                `json:"is_featured" db:"is_featured"`
	FeaturedOrder  *int                `json:"featured_order" db:"featured_order"`
	Clicks         int64               `json:"clicks" db:"clicks"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
}

// InStock reports whether the product can be bought. An unknown stock state
// counts as unavailable.
func (p *Product) InStock() bool {
	return p.StockAvailable != nil && *p.StockAvailable
}

// DiscountPercent returns the rounded discount implied by OriginalPrice, or 0
// when there is none.
func (p *Product) DiscountPercent() int {
	if !p.OriginalPrice.Valid {
		return 0
	}
	original := p.OriginalPrice.Decimal
	if original.LessThanOrEqual(decimal.Zero) || p.Price.GreaterThanOrEqual(original) {
		return 0
	}
	pct := original.Sub(p.Price).Div(original).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

// SubcategoryName returns the subcategory or "" when unset
func (p *Product) SubcategoryName() string {
	return deref(p.Subcategory)
}

// CategoryPair is the lightweight projection used to derive the category hierarchy
type CategoryPair struct {
	Category    string  `json:"category" db:"category"`
	Subcategory *string `json:"subcategory" db:"subcategory"`
}

// NewProduct carries the fields accepted when a product is created.
type NewProduct struct {
	ProductCode    *string
	ProductName    string
	Category       string
	Subcategory    *string
	Item           *string
	Price          decimal.Decimal
	OriginalPrice  decimal.NullDecimal
	Commission     decimal.NullDecimal
	Sales          int
	Rating         decimal.NullDecimal
	AffiliateURL   string
	ImageURL       string
	VideoURL       *string
	ShippingOrigin *string
	Store          *string
	StockAvailable bool
	IsFeatured     bool
	FeaturedOrder  *int
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

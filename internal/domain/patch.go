package domain

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Optional tracks whether a field was present in a patch and, if so, whether
// it was explicitly cleared.
//
//	absent:  Set == false
//	cleared: Set == true, Null == true
//	value:   Set == true, Null == false
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Cleared returns an Optional that explicitly clears the field
func Cleared[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// HasValue reports whether the field carries a non-null value
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked for keys
// present in the document, which is what marks the field as Set.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	o.Set = true
	if bytes.Equal(trimmed, []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(trimmed, &o.Value)
}

// MarshalJSON implements json.Marshaler
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ProductPatch is a partial update. Fields left absent are not touched.
// For nullable text columns an explicit empty string clears the field the same
// way an explicit null does.
type ProductPatch struct {
	ProductCode    Optional[string]          `json:"product_id"`
	ProductName    Optional[string]          `json:"product_name"`
	Category       Optional[string]          `json:"category"`
	Subcategory    Optional[string]          `json:"subcategory"`
	Item           Optional[string]          `json:"item"`
	Price          Optional[decimal.Decimal] `json:"price"`
	OriginalPrice  Optional[decimal.Decimal] `json:"original_price"`
	Commission     Optional[decimal.Decimal] `json:"commission"`
	Sales          Optional[int]             `json:"sales"`
	Rating         Optional[decimal.Decimal] `json:"rating"`
	AffiliateURL   Optional[string]          `json:"affiliate_url"`
	ImageURL       Optional[string]          `json:"image_url"`
	VideoURL       Optional[string]          `json:"video_url"`
	ShippingOrigin Optional[string]          `json:"dikirim_dari"`
	Store          Optional[string]          `json:"toko"`
	StockAvailable Optional[bool]            `json:"stock_available"`
	IsFeatured     Optional[bool]            `json:"is_featured"`
	FeaturedOrder  Optional[int]             `json:"featured_order"`
}

// Normalize folds explicit empty strings on nullable text fields into clears
func (p ProductPatch) Normalize() ProductPatch {
	for _, f := range []*Optional[string]{&p.ProductCode, &p.Subcategory, &p.Item, &p.VideoURL, &p.ShippingOrigin, &p.Store} {
		if f.Set && !f.Null && f.Value == "" {
			*f = Cleared[string]()
		}
	}
	return p
}

// IsEmpty reports whether the patch would change nothing
func (p ProductPatch) IsEmpty() bool {
	return !(p.ProductCode.Set || p.ProductName.Set || p.Category.Set || p.Subcategory.Set ||
		p.Item.Set || p.Price.Set || p.OriginalPrice.Set || p.Commission.Set || p.Sales.Set ||
		p.Rating.Set || p.AffiliateURL.Set || p.ImageURL.Set || p.VideoURL.Set ||
		p.ShippingOrigin.Set || p.Store.Set || p.StockAvailable.Set || p.IsFeatured.Set ||
		p.FeaturedOrder.Set)
}

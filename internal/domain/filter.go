package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// SortMode is the closed set of storefront orderings
type SortMode string

const (
	SortPopular     SortMode = "popular"
	SortBestselling SortMode = "terlaris"
	SortPriceAsc    SortMode = "harga_termurah"
	SortPriceDesc   SortMode = "harga_tertinggi"
	// SortRecommended is a uniform random shuffle. It carries no quality signal.
	SortRecommended SortMode = "rekomendasi"
	// SortNewest is the fallback for empty or unknown modes.
	SortNewest SortMode = ""
)

var (
	ErrPriceRangeInverted    = errors.New("priceMin must not exceed priceMax")
	ErrNegativePrice         = errors.New("price bounds must not be negative")
	ErrSubcategoryWithoutCat = errors.New("subcategory requires a category")
)

// ParseSortMode maps a raw value onto a known SortMode, falling back to SortNewest
func ParseSortMode(raw string) SortMode {
	switch m := SortMode(strings.TrimSpace(strings.ToLower(raw))); m {
	case SortPopular, SortBestselling, SortPriceAsc, SortPriceDesc, SortRecommended:
		return m
	default:
		return SortNewest
	}
}

// FilterSpec describes a storefront or admin product query. It is a value
// object: copy it, don't share pointers to it.
type FilterSpec struct {
	Search         string           `json:"search,omitempty"`
	PriceMin       *decimal.Decimal `json:"priceMin,omitempty"`
	PriceMax       *decimal.Decimal `json:"priceMax,omitempty"`
	Category       string           `json:"category,omitempty"`
	Subcategory    string           `json:"subcategory,omitempty"`
	ShippingOrigin string           `json:"dikirimDari,omitempty"`
	Item           string           `json:"item,omitempty"`
	SortBy         SortMode         `json:"sortBy,omitempty"`
}

// Validate checks the cross-field rules of the filter
func (f FilterSpec) Validate() error {
	if f.PriceMin != nil && f.PriceMin.IsNegative() {
		return ErrNegativePrice
	}
	if f.PriceMax != nil && f.PriceMax.IsNegative() {
		return ErrNegativePrice
	}
	if f.PriceMin != nil && f.PriceMax != nil && f.PriceMin.GreaterThan(*f.PriceMax) {
		return ErrPriceRangeInverted
	}
	if f.Subcategory != "" && f.Category == "" {
		return ErrSubcategoryWithoutCat
	}
	return nil
}

// SearchTerms splits the search string into lowercase terms
func (f FilterSpec) SearchTerms() []string {
	return strings.Fields(strings.ToLower(f.Search))
}

// Key returns a stable fingerprint of every field that changes the result set
// or its order.
func (f FilterSpec) Key() string {
	var b strings.Builder
	b.WriteString(strings.Join(f.SearchTerms(), " "))
	b.WriteByte('|')
	if f.PriceMin != nil {
		b.WriteString(f.PriceMin.String())
	}
	b.WriteByte('|')
	if f.PriceMax != nil {
		b.WriteString(f.PriceMax.String())
	}
	for _, part := range []string{f.Category, f.Subcategory, f.ShippingOrigin, f.Item, string(f.SortBy)} {
		b.WriteByte('|')
		b.WriteString(part)
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

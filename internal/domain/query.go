package domain

import "github.com/shopspring/decimal"

// OrderColumn is a sortable products column the backend can order by
type OrderColumn string

const (
	OrderByCreatedAt OrderColumn = "created_at"
	OrderByClicks    OrderColumn = "clicks"
	OrderBySales     OrderColumn = "sales"
	OrderByPrice     OrderColumn = "price"
)

// ProductQuery is a single bounded window request against the backend. Zero
// values mean "no constraint".
type ProductQuery struct {
	CategoryEq       string
	SubcategoryEq    string
	ShippingOriginEq string
	ItemEq           string
	PriceGte         *decimal.Decimal
	PriceLte         *decimal.Decimal
	// NameContainsAll requires every term to appear in product_name.
	NameContainsAll []string
	// OrderBy empty means the backend's natural order.
	OrderBy   OrderColumn
	Ascending bool
	Offset    int
	Limit     int
}

// Window is the result of one ProductQuery. Total is the number of rows
// matching the query across all windows, or -1 when the backend did not say.
type Window struct {
	Rows  []Product
	Total int
}

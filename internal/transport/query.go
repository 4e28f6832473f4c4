package transport

import (
	"net/http"
	"strconv"
	"strings"

	"affiliate-catalog/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxListLimit = 100

// filterSpecFromQuery is the only place URL parameters become a FilterSpec.
// Unparseable prices are dropped and unknown sort modes fall back to newest;
// cross-field rules are left to FilterSpec.Validate.
func filterSpecFromQuery(r *http.Request) domain.FilterSpec {
	q := r.URL.Query()
	return domain.FilterSpec{
		Search:         strings.TrimSpace(q.Get("search")),
		Category:       strings.TrimSpace(q.Get("category")),
		Subcategory:    strings.TrimSpace(q.Get("subcategory")),
		ShippingOrigin: strings.TrimSpace(q.Get("dikirimDari")),
		Item:           strings.TrimSpace(q.Get("item")),
		PriceMin:       parsePrice(q.Get("priceMin")),
		PriceMax:       parsePrice(q.Get("priceMax")),
		SortBy:         domain.ParseSortMode(q.Get("sortBy")),
	}
}

func parsePrice(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

// limitFromQuery returns the limit parameter clamped to [1, maxListLimit], or
// 0 when absent or invalid so the service default applies
func limitFromQuery(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	return min(n, maxListLimit)
}

func idParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// productView adds the derived storefront fields to a product
type productView struct {
	domain.Product
	DiscountPercent int  `json:"discount_percent"`
	InStock         bool `json:"in_stock"`
}

func presentProduct(p *domain.Product) productView {
	return productView{Product: *p, DiscountPercent: p.DiscountPercent(), InStock: p.InStock()}
}

func presentProducts(products []domain.Product) []productView {
	views := make([]productView, len(products))
	for i := range products {
		views[i] = presentProduct(&products[i])
	}
	return views
}

package catalog

import "affiliate-catalog/internal/domain"

// QueryFor pushes every criterion of spec the backend can evaluate into a
// ProductQuery. Offset and Limit are left for the caller.
//
// SortRecommended cannot be pushed down. Its windows are ordered newest
// first so offsets stay continuous, and callers shuffle each page.
func QueryFor(spec domain.FilterSpec) domain.ProductQuery {
	q := domain.ProductQuery{
		CategoryEq:       spec.Category,
		SubcategoryEq:    spec.Subcategory,
		ShippingOriginEq: spec.ShippingOrigin,
		ItemEq:           spec.Item,
		PriceGte:         spec.PriceMin,
		PriceLte:         spec.PriceMax,
		NameContainsAll:  spec.SearchTerms(),
	}

	switch spec.SortBy {
	case domain.SortPopular:
		q.OrderBy = domain.OrderByClicks
	case domain.SortBestselling:
		q.OrderBy = domain.OrderBySales
	case domain.SortPriceAsc:
		q.OrderBy, q.Ascending = domain.OrderByPrice, true
	case domain.SortPriceDesc:
		q.OrderBy = domain.OrderByPrice
	default:
		q.OrderBy = domain.OrderByCreatedAt
	}
	return q
}

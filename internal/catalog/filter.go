package catalog

import (
	"strings"

	"affiliate-catalog/internal/domain"
)

// Filter returns the products matching every criterion of spec, in input
// order. The input slice is not modified.
//
// Stages are AND-composed: search terms, category/subcategory, price range,
// then shipping origin and item.
func Filter(products []domain.Product, spec domain.FilterSpec) []domain.Product {
	terms := spec.SearchTerms()
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		if !matchesTerms(p, terms) {
			continue
		}
		if spec.Category != "" && p.Category != spec.Category {
			continue
		}
		if spec.Subcategory != "" && p.SubcategoryName() != spec.Subcategory {
			continue
		}
		if spec.PriceMin != nil && p.Price.LessThan(*spec.PriceMin) {
			continue
		}
		if spec.PriceMax != nil && p.Price.GreaterThan(*spec.PriceMax) {
			continue
		}
		if spec.ShippingOrigin != "" && derefString(p.ShippingOrigin) != spec.ShippingOrigin {
			continue
		}
		if spec.Item != "" && derefString(p.Item) != spec.Item {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// matchesTerms requires every term to be a substring of the lowercased name
func matchesTerms(p *domain.Product, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	name := strings.ToLower(p.ProductName)
	for _, t := range terms {
		if !strings.Contains(name, t) {
			return false
		}
	}
	return true
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

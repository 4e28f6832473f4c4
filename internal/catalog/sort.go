package catalog

import (
	"math/rand/v2"
	"sort"

	"affiliate-catalog/internal/domain"
)

// Engine filters and orders in-memory product sets. The zero value is not
// usable; call NewEngine.
type Engine struct {
	intN func(n int) int
}

// NewEngine returns an engine backed by the global random source
func NewEngine() *Engine {
	return &Engine{intN: rand.IntN}
}

// NewSeededEngine returns an engine whose shuffles are driven by r. r must
// not be shared across goroutines.
func NewSeededEngine(r *rand.Rand) *Engine {
	return &Engine{intN: r.IntN}
}

// Apply filters products with spec and sorts the result by spec.SortBy
func (e *Engine) Apply(products []domain.Product, spec domain.FilterSpec) []domain.Product {
	return e.Sort(Filter(products, spec), spec.SortBy)
}

// Sort returns a sorted copy of products. Every mode except SortRecommended
// is stable, so ties keep their input order.
func (e *Engine) Sort(products []domain.Product, mode domain.SortMode) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)

	switch mode {
	case domain.SortPopular:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Clicks > out[j].Clicks })
	case domain.SortBestselling:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Sales > out[j].Sales })
	case domain.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case domain.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case domain.SortRecommended:
		e.shuffle(out)
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

// Shuffle returns a uniformly shuffled copy of products
func (e *Engine) Shuffle(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	e.shuffle(out)
	return out
}

// shuffle is an in-place Fisher-Yates shuffle
func (e *Engine) shuffle(items []domain.Product) {
	for i := len(items) - 1; i > 0; i-- {
		j := e.intN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

package catalog

import (
	"math/rand/v2"
	"testing"
	"time"

	"affiliate-catalog/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var (
	nameWords  = []string{"Gaming", "Chair", "Wireless", "Mouse", "Office", "Desk", "Keyboard", "Pro"}
	categories = []string{"Electronics", "Fashion", "Home"}
	origins    = []string{"Jakarta", "Bandung", "Surabaya"}
)

// productsFromSeeds builds a deterministic catalog from generated integers
func productsFromSeeds(seeds []int) []domain.Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Product, 0, len(seeds))
	for i, s := range seeds {
		sub := "Sub" + string(rune('A'+s%2))
		origin := origins[s%len(origins)]
		out = append(out, domain.Product{
			ProductName:    nameWords[s%len(nameWords)] + " " + nameWords[(s/3)%len(nameWords)],
			Category:       categories[s%len(categories)],
			Subcategory:    &sub,
			ShippingOrigin: &origin,
			Price:          decimal.NewFromInt(int64(s % 1000)),
			Sales:          s % 50,
			Clicks:         int64(s % 17),
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func names(products []domain.Product) []string {
	out := make([]string, len(products))
	for i := range products {
		out[i] = products[i].ProductName
	}
	return out
}

func priceRef(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestApply_SortsByCheapestPrice(t *testing.T) {
	products := []domain.Product{
		{ProductName: "A", Price: decimal.NewFromInt(100), Sales: 5},
		{ProductName: "B", Price: decimal.NewFromInt(50), Sales: 20},
	}

	got := NewEngine().Apply(products, domain.FilterSpec{SortBy: domain.SortPriceAsc})

	if want := []string{"B", "A"}; !equalStrings(names(got), want) {
		t.Fatalf("got %v, want %v", names(got), want)
	}
	if products[0].ProductName != "A" {
		t.Error("input slice was reordered")
	}
}

func TestApply_SearchUsesAllTerms(t *testing.T) {
	products := []domain.Product{
		{ProductName: "Gaming Chair Pro"},
		{ProductName: "Office Chair"},
		{ProductName: "Gaming Desk"},
	}

	got := Filter(products, domain.FilterSpec{Search: "gaming chair"})
	if want := []string{"Gaming Chair Pro"}; !equalStrings(names(got), want) {
		t.Fatalf("got %v, want %v", names(got), want)
	}

	got = Filter([]domain.Product{
		{ProductName: "Wireless Optical Mouse"},
		{ProductName: "Wireless Keyboard"},
	}, domain.FilterSpec{Search: "  Wireless   MOUSE "})
	if want := []string{"Wireless Optical Mouse"}; !equalStrings(names(got), want) {
		t.Fatalf("got %v, want %v", names(got), want)
	}
}

func TestFilter_ComposesEveryCriterion(t *testing.T) {
	phones, jakarta, item := "Phones", "Jakarta", "Android"
	products := []domain.Product{
		{ProductName: "Phone X", Category: "Electronics", Subcategory: &phones, ShippingOrigin: &jakarta, Item: &item, Price: decimal.NewFromInt(300)},
		{ProductName: "Phone Y", Category: "Electronics", Subcategory: &phones, Price: decimal.NewFromInt(300)},
		{ProductName: "Phone Z", Category: "Electronics", Subcategory: &phones, ShippingOrigin: &jakarta, Item: &item, Price: decimal.NewFromInt(900)},
		{ProductName: "Phone Case", Category: "Fashion", ShippingOrigin: &jakarta, Price: decimal.NewFromInt(300)},
	}

	spec := domain.FilterSpec{
		Search:         "phone",
		Category:       "Electronics",
		Subcategory:    "Phones",
		PriceMin:       priceRef(100),
		PriceMax:       priceRef(500),
		ShippingOrigin: "Jakarta",
		Item:           "Android",
	}

	if got := names(Filter(products, spec)); !equalStrings(got, []string{"Phone X"}) {
		t.Fatalf("got %v", got)
	}
}

func TestFilter_PriceBoundsAreInclusive(t *testing.T) {
	products := []domain.Product{
		{ProductName: "low", Price: decimal.NewFromInt(100)},
		{ProductName: "high", Price: decimal.NewFromInt(200)},
		{ProductName: "out", Price: decimal.RequireFromString("200.01")},
	}
	got := Filter(products, domain.FilterSpec{PriceMin: priceRef(100), PriceMax: priceRef(200)})
	if !equalStrings(names(got), []string{"low", "high"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestFilter_EmptyResultIsNotNil(t *testing.T) {
	got := Filter(nil, domain.FilterSpec{Search: "anything"})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSort_UnknownModeFallsBackToNewest(t *testing.T) {
	now := time.Now()
	products := []domain.Product{
		{ProductName: "old", CreatedAt: now.Add(-2 * time.Hour)},
		{ProductName: "new", CreatedAt: now},
		{ProductName: "mid", CreatedAt: now.Add(-time.Hour)},
	}
	got := NewEngine().Sort(products, domain.ParseSortMode("not-a-mode"))
	if !equalStrings(names(got), []string{"new", "mid", "old"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestSort_TiesKeepInputOrder(t *testing.T) {
	products := []domain.Product{
		{ProductName: "first", Sales: 10},
		{ProductName: "second", Sales: 10},
		{ProductName: "top", Sales: 99},
		{ProductName: "third", Sales: 10},
	}
	got := NewEngine().Sort(products, domain.SortBestselling)
	if !equalStrings(names(got), []string{"top", "first", "second", "third"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestSort_PopularUsesClicks(t *testing.T) {
	products := []domain.Product{
		{ProductName: "quiet", Clicks: 1},
		{ProductName: "unclicked"},
		{ProductName: "busy", Clicks: 40},
	}
	got := NewEngine().Sort(products, domain.SortPopular)
	if !equalStrings(names(got), []string{"busy", "quiet", "unclicked"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestSort_RecommendedIsAPermutation(t *testing.T) {
	products := productsFromSeeds([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	engine := NewSeededEngine(rand.New(rand.NewPCG(1, 2)))

	got := engine.Sort(products, domain.SortRecommended)
	if len(got) != len(products) {
		t.Fatalf("len = %d", len(got))
	}
	seen := map[time.Time]int{}
	for _, p := range got {
		seen[p.CreatedAt]++
	}
	for _, p := range products {
		if seen[p.CreatedAt] != 1 {
			t.Fatalf("product %s missing or duplicated after shuffle", p.ProductName)
		}
	}
}

// Property: adding a filter criterion never grows the result set
func TestProperty_FilterMonotonicity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("extra criteria never increase result size", prop.ForAll(
		func(seeds []int, word string, category string, origin string, maxPrice int) bool {
			products := productsFromSeeds(seeds)
			specs := []domain.FilterSpec{
				{},
				{Search: word},
				{Search: word, Category: category},
				{Search: word, Category: category, PriceMax: priceRef(int64(maxPrice))},
				{Search: word, Category: category, PriceMax: priceRef(int64(maxPrice)), ShippingOrigin: origin},
				{Search: word + " " + word, Category: category, PriceMax: priceRef(int64(maxPrice)), ShippingOrigin: origin, Subcategory: "SubA"},
			}
			prev := len(products)
			for _, spec := range specs {
				n := len(Filter(products, spec))
				if n > prev {
					t.Logf("FAIL: %+v returned %d > %d", spec, n, prev)
					return false
				}
				prev = n
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5000)),
		gen.OneConstOf("gaming", "chair", "pro", "mouse", "z"),
		gen.OneConstOf("Electronics", "Fashion", "Home"),
		gen.OneConstOf("Jakarta", "Bandung", "Surabaya"),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: price sorts are monotone
func TestProperty_PriceSortIsOrdered(t *testing.T) {
	properties := gopter.NewProperties(nil)
	engine := NewEngine()

	properties.Property("harga_termurah is non-decreasing", prop.ForAll(
		func(seeds []int) bool {
			got := engine.Sort(productsFromSeeds(seeds), domain.SortPriceAsc)
			for i := 1; i < len(got); i++ {
				if got[i].Price.LessThan(got[i-1].Price) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5000)),
	))

	properties.Property("harga_tertinggi is non-increasing", prop.ForAll(
		func(seeds []int) bool {
			got := engine.Sort(productsFromSeeds(seeds), domain.SortPriceDesc)
			for i := 1; i < len(got); i++ {
				if got[i].Price.GreaterThan(got[i-1].Price) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestQueryFor_PushesDownFiltersAndOrder(t *testing.T) {
	spec := domain.FilterSpec{
		Search:   "Gaming  Chair",
		Category: "Home",
		PriceMin: priceRef(10),
		SortBy:   domain.SortPriceAsc,
	}
	q := QueryFor(spec)
	if q.CategoryEq != "Home" || q.PriceGte == nil || !q.PriceGte.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("filters not pushed down: %+v", q)
	}
	if !equalStrings(q.NameContainsAll, []string{"gaming", "chair"}) {
		t.Fatalf("terms = %v", q.NameContainsAll)
	}
	if q.OrderBy != domain.OrderByPrice || !q.Ascending {
		t.Fatalf("order = %s asc=%v", q.OrderBy, q.Ascending)
	}

	if q := QueryFor(domain.FilterSpec{SortBy: domain.SortRecommended}); q.OrderBy != domain.OrderByCreatedAt {
		t.Fatalf("recommended should page by created_at, got %s", q.OrderBy)
	}
	if q := QueryFor(domain.FilterSpec{SortBy: domain.SortPopular}); q.OrderBy != domain.OrderByClicks || q.Ascending {
		t.Fatalf("popular order = %s asc=%v", q.OrderBy, q.Ascending)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"affiliate-catalog/internal/cache"
	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing
type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	order    []uuid.UUID
	failIDs  map[uuid.UUID]error

	inserts     int
	updates     int
	windowCalls int
	orderWrites map[uuid.UUID]int
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		failIDs:  make(map[uuid.UUID]error),
	}
}

func (m *mockProductRepository) seed(p domain.Product) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().Add(-time.Duration(len(m.order)) * time.Minute)
	}
	cp := p
	m.products[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return p
}

func (m *mockProductRepository) failOn(id uuid.UUID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failIDs[id] = err
}

func (m *mockProductRepository) rows() []domain.Product {
	out := make([]domain.Product, 0, len(m.order))
	for _, id := range m.order {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

func (m *mockProductRepository) QueryProducts(ctx context.Context, q domain.ProductQuery) (domain.Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windowCalls++

	var matched []domain.Product
	for _, p := range m.rows() {
		if q.CategoryEq != "" && p.Category != q.CategoryEq {
			continue
		}
		matched = append(matched, p)
	}
	total := len(matched)
	start := min(q.Offset, total)
	end := min(start+q.Limit, total)
	rows := make([]domain.Product, end-start)
	copy(rows, matched[start:end])
	return domain.Window{Rows: rows, Total: total}, nil
}

func (m *mockProductRepository) DistinctCategoryPairs(ctx context.Context) ([]domain.CategoryPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pairs []domain.CategoryPair
	for _, p := range m.rows() {
		pairs = append(pairs, domain.CategoryPair{Category: p.Category, Subcategory: p.Subcategory})
	}
	return pairs, nil
}

func (m *mockProductRepository) DistinctShippingOrigins(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

func (m *mockProductRepository) DistinctItems(ctx context.Context, category, subcategory string) ([]string, error) {
	return []string{}, nil
}

func (m *mockProductRepository) Insert(ctx context.Context, np *domain.NewProduct) (*domain.Product, error) {
	m.mu.Lock()
	m.inserts++
	m.mu.Unlock()

	stock := np.StockAvailable
	p := m.seed(domain.Product{
		ProductCode:    np.ProductCode,
		ProductName:    np.ProductName,
		Category:       np.Category,
		Subcategory:    np.Subcategory,
		Item:           np.Item,
		Price:          np.Price,
		OriginalPrice:  np.OriginalPrice,
		Commission:     np.Commission,
		Sales:          np.Sales,
		Rating:         np.Rating,
		AffiliateURL:   np.AffiliateURL,
		ImageURL:       np.ImageURL,
		VideoURL:       np.VideoURL,
		ShippingOrigin: np.ShippingOrigin,
		Store:          np.Store,
		StockAvailable: &stock,
		IsFeatured:     np.IsFeatured,
		FeaturedOrder:  np.FeaturedOrder,
		CreatedAt:      time.Now(),
	})
	return &p, nil
}

func (m *mockProductRepository) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++

	if err, ok := m.failIDs[id]; ok {
		return nil, err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if patch.ProductName.HasValue() {
		p.ProductName = patch.ProductName.Value
	}
	if patch.Price.HasValue() {
		p.Price = patch.Price.Value
	}
	if patch.Rating.Set {
		p.Rating = decimal.NullDecimal{Decimal: patch.Rating.Value, Valid: !patch.Rating.Null}
	}
	if patch.IsFeatured.HasValue() {
		p.IsFeatured = patch.IsFeatured.Value
	}
	if patch.FeaturedOrder.Set {
		if patch.FeaturedOrder.Null {
			p.FeaturedOrder = nil
		} else {
			order := patch.FeaturedOrder.Value
			p.FeaturedOrder = &order
		}
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[id]; ok {
		return err
	}
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) Featured(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.rows() {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return orderOf(out[i]) < orderOf(out[j])
	})
	return out, nil
}

func orderOf(p domain.Product) int {
	if p.FeaturedOrder == nil {
		return 1 << 30
	}
	return *p.FeaturedOrder
}

func (m *mockProductRepository) NonFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.rows() {
		if !p.IsFeatured && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows()
	return rows[:min(limit, len(rows))], nil
}

func (m *mockProductRepository) Popular(ctx context.Context, limit int) ([]domain.Product, error) {
	return m.Latest(ctx, limit)
}

func (m *mockProductRepository) MaxFeaturedOrder(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	maxOrder := 0
	for _, p := range m.products {
		if p.IsFeatured && p.FeaturedOrder != nil && *p.FeaturedOrder > maxOrder {
			maxOrder = *p.FeaturedOrder
		}
	}
	return maxOrder, nil
}

func (m *mockProductRepository) UpdateFeaturedOrders(ctx context.Context, orders map[uuid.UUID]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderWrites = orders
	for id, order := range orders {
		o := order
		m.products[id].FeaturedOrder = &o
	}
	return nil
}

type mockClickRepository struct {
	mu         sync.Mutex
	events     []*domain.ClickEvent
	counters   map[uuid.UUID]int64
	eventErr   error
	counterErr error
	since      []*time.Time
	repaired   int64
}

func newMockClickRepository() *mockClickRepository {
	return &mockClickRepository{counters: make(map[uuid.UUID]int64)}
}

func (m *mockClickRepository) AppendClickEvent(ctx context.Context, event *domain.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eventErr != nil {
		return m.eventErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockClickRepository) IncrementClickCounter(ctx context.Context, productID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counterErr != nil {
		return 0, m.counterErr
	}
	m.counters[productID]++
	return m.counters[productID], nil
}

func (m *mockClickRepository) ReconcileClickCounters(ctx context.Context) (int64, error) {
	return m.repaired, nil
}

func (m *mockClickRepository) CountProductsSince(ctx context.Context, since *time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = append(m.since, since)
	return 3, nil
}

func (m *mockClickRepository) CountClicksSince(ctx context.Context, since *time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.events)), nil
}

func (m *mockClickRepository) TopProductsSince(ctx context.Context, since *time.Time, limit int) ([]domain.ProductClicks, error) {
	return []domain.ProductClicks{}, nil
}

type mockSettingsRepository struct {
	settings  domain.Settings
	lastPatch *domain.SettingsPatch
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsRepository) Update(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	m.lastPatch = &patch
	if patch.ShowCategoryFilter.HasValue() {
		m.settings.ShowCategoryFilter = patch.ShowCategoryFilter.Value
	}
	s := m.settings
	return &s, nil
}

// countingViewCache wraps a ViewCache and counts invalidations
type countingViewCache struct {
	cache.ViewCache
	mu            sync.Mutex
	invalidations int
	failGet       bool
}

func (c *countingViewCache) Get(ctx context.Context, view cache.View, key string, dst any) (bool, error) {
	if c.failGet {
		return false, errors.New("cache unreachable")
	}
	return c.ViewCache.Get(ctx, view, key, dst)
}

func (c *countingViewCache) InvalidateProductViews(ctx context.Context) error {
	c.mu.Lock()
	c.invalidations++
	c.mu.Unlock()
	return c.ViewCache.InvalidateProductViews(ctx)
}

func (c *countingViewCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}

func strPtr(s string) *string { return &s }

func validNewProduct(name string) *domain.NewProduct {
	return &domain.NewProduct{
		ProductName:    name,
		Category:       "Elektronik",
		Price:          decimal.NewFromInt(150000),
		AffiliateURL:   "https://shope.ee/" + strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		ImageURL:       "https://cdn.example.com/" + strings.ReplaceAll(strings.ToLower(name), " ", "-") + ".jpg",
		StockAvailable: true,
	}
}

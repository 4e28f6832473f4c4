package service

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"affiliate-catalog/internal/cache"
	"affiliate-catalog/internal/catalog"
	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/fetch"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type catalogFixture struct {
	catalog  CatalogService
	products ProductService
	repo     *mockProductRepository
	views    *countingViewCache
	redis    *miniredis.Miniredis
}

func setupCatalogService(t *testing.T, cfg fetch.Config) *catalogFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newMockProductRepository()
	views := &countingViewCache{ViewCache: cache.NewRedisViewCache(client, time.Minute, zap.NewNop())}
	engine := catalog.NewSeededEngine(rand.New(rand.NewPCG(1, 2)))

	coordinator, err := fetch.NewCoordinator(repo, engine, cfg, zap.NewNop(), nil)
	require.NoError(t, err)

	return &catalogFixture{
		catalog:  NewCatalogService(repo, coordinator, engine, views, zap.NewNop()),
		products: NewProductService(repo, views, BulkConfig{}, zap.NewNop(), nil),
		repo:     repo,
		views:    views,
		redis:    mr,
	}
}

func seedCatalog(repo *mockProductRepository, n int) {
	for i := range n {
		category := "Elektronik"
		if i%2 == 1 {
			category = "Fashion"
		}
		repo.seed(domain.Product{
			ProductName: "Produk",
			Category:    category,
			Price:       decimal.NewFromInt(int64(1000 * (i + 1))),
		})
	}
}

func TestListAll_CachesUnfilteredSnapshot(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 10, MaxRows: 1000})
	seedCatalog(f.repo, 25)
	ctx := context.Background()

	first, err := f.catalog.ListAll(ctx, domain.FilterSpec{Category: "Fashion", SortBy: domain.SortPriceDesc})
	require.NoError(t, err)
	assert.Len(t, first.Products, 12)
	assert.Equal(t, 3, first.Windows)
	assert.True(t, first.Products[0].Price.GreaterThan(first.Products[11].Price))
	calls := f.repo.windowCalls

	second, err := f.catalog.ListAll(ctx, domain.FilterSpec{Category: "Elektronik"})
	require.NoError(t, err)
	assert.Len(t, second.Products, 13)
	assert.Equal(t, calls, f.repo.windowCalls, "second listing is served from the cache")
}

func TestListAll_MutationInvalidatesSnapshot(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 50, MaxRows: 1000})
	seedCatalog(f.repo, 5)
	ctx := context.Background()

	before, err := f.catalog.ListAll(ctx, domain.FilterSpec{})
	require.NoError(t, err)
	require.Len(t, before.Products, 5)

	_, err = f.products.Create(ctx, validNewProduct("Produk Baru"))
	require.NoError(t, err)

	after, err := f.catalog.ListAll(ctx, domain.FilterSpec{})
	require.NoError(t, err)
	assert.Len(t, after.Products, 6)
	assert.Equal(t, 1, f.views.count())
}

func TestListAll_CacheOutageFallsBackToBackend(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 50, MaxRows: 1000})
	seedCatalog(f.repo, 3)
	f.views.failGet = true

	result, err := f.catalog.ListAll(context.Background(), domain.FilterSpec{})
	require.NoError(t, err)
	assert.Len(t, result.Products, 3)
}

func TestListAll_ReportsTruncation(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 10, MaxRows: 15})
	seedCatalog(f.repo, 30)

	result, err := f.catalog.ListAll(context.Background(), domain.FilterSpec{})
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Len(t, result.Products, 15)
}

func TestPage_RejectsInvertedPriceRange(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 50, MaxRows: 1000})
	lo, hi := decimal.NewFromInt(500), decimal.NewFromInt(100)

	_, err := f.catalog.Page(context.Background(), domain.FilterSpec{PriceMin: &lo, PriceMax: &hi}, "")

	assert.ErrorIs(t, err, domain.ErrPriceRangeInverted)
	assert.Zero(t, f.repo.windowCalls)
}

func TestFeatured_ServedFromCacheUntilInvalidated(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 50, MaxRows: 1000})
	order := 1
	featured := f.repo.seed(domain.Product{ProductName: "Unggulan", Category: "Fashion", IsFeatured: true, FeaturedOrder: &order})
	ctx := context.Background()

	list, err := f.catalog.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, f.redis.Exists("catalog:view:featured:_"))

	_, err = f.products.RemoveFeatured(ctx, featured.ID)
	require.NoError(t, err)
	assert.False(t, f.redis.Exists("catalog:view:featured:_"))

	list, err = f.catalog.Featured(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestResolveSlugs(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 50, MaxRows: 1000})
	f.repo.seed(domain.Product{ProductName: "Kaos", Category: "Fashion Pria", Subcategory: strPtr("Kaos & Polo")})
	ctx := context.Background()

	res, err := f.catalog.ResolveSlugs(ctx, catalog.Slugify("Fashion Pria"), catalog.Slugify("Kaos & Polo"))
	require.NoError(t, err)
	assert.True(t, res.Known)
	assert.Equal(t, "Fashion Pria", res.Category)
	assert.Equal(t, "Kaos & Polo", res.Subcategory)

	res, err = f.catalog.ResolveSlugs(ctx, "rumah-tangga", "")
	require.NoError(t, err)
	assert.False(t, res.Known)
	assert.Equal(t, catalog.Deslugify("rumah-tangga"), res.DisplayName)

	res, err = f.catalog.ResolveSlugs(ctx, catalog.Slugify("Fashion Pria"), "celana")
	require.NoError(t, err)
	assert.False(t, res.Known)
	assert.Equal(t, "Fashion Pria", res.Category)
}

func TestLatestAndPopular_DefaultLimits(t *testing.T) {
	f := setupCatalogService(t, fetch.Config{PageSize: 20, WindowSize: 50, MaxRows: 1000})
	seedCatalog(f.repo, 12)
	ctx := context.Background()

	latest, err := f.catalog.Latest(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, latest, DefaultLatestLimit)

	popular, err := f.catalog.Popular(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, popular, DefaultPopularLimit)
}

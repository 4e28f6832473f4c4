package service

import (
	"context"
	"fmt"

	"affiliate-catalog/internal/cache"
	"affiliate-catalog/internal/catalog"
	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/fetch"
	"affiliate-catalog/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLatestLimit  = 4
	DefaultPopularLimit = 8
	nonFeaturedLimit    = 1000
)

// ResolvedCategory is the outcome of mapping URL slugs back to names
type ResolvedCategory struct {
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Known       bool   `json:"known"`
	// DisplayName is a best-effort title for unknown slugs
	DisplayName string `json:"display_name"`
}

// CatalogService serves the read side of the catalog
type CatalogService interface {
	Page(ctx context.Context, spec domain.FilterSpec, cursor string) (*fetch.Page, error)
	ListAll(ctx context.Context, spec domain.FilterSpec) (*fetch.FullResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Featured(ctx context.Context) ([]domain.Product, error)
	NonFeatured(ctx context.Context) ([]domain.Product, error)
	Latest(ctx context.Context, limit int) ([]domain.Product, error)
	Popular(ctx context.Context, limit int) ([]domain.Product, error)
	Hierarchy(ctx context.Context) (*catalog.Hierarchy, error)
	ResolveSlugs(ctx context.Context, categorySlug, subcategorySlug string) (*ResolvedCategory, error)
	ShippingOrigins(ctx context.Context) ([]string, error)
	Items(ctx context.Context, category, subcategory string) ([]string, error)
}

type catalogService struct {
	repo        repository.ProductRepository
	coordinator *fetch.Coordinator
	engine      *catalog.Engine
	views       cache.ViewCache
	logger      *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	repo repository.ProductRepository,
	coordinator *fetch.Coordinator,
	engine *catalog.Engine,
	views cache.ViewCache,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		repo:        repo,
		coordinator: coordinator,
		engine:      engine,
		views:       views,
		logger:      logger,
	}
}

// fullSnapshot is the cached form of an unfiltered full fetch
type fullSnapshot struct {
	Products  []domain.Product `json:"products"`
	Windows   int              `json:"windows"`
	Truncated bool             `json:"truncated"`
}

func (s *catalogService) Page(ctx context.Context, spec domain.FilterSpec, cursor string) (*fetch.Page, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return s.coordinator.Page(ctx, spec, cursor)
}

// ListAll assembles the whole catalog and filters and sorts it in memory.
// The unfiltered set is cached so repeated admin searches reuse it.
func (s *catalogService) ListAll(ctx context.Context, spec domain.FilterSpec) (*fetch.FullResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var snap fullSnapshot
	if !s.cached(ctx, cache.ViewAll, "", &snap) {
		full, err := s.coordinator.FetchAll(ctx, domain.FilterSpec{})
		if err != nil {
			return nil, err
		}
		snap = fullSnapshot{Products: full.Products, Windows: full.Windows, Truncated: full.Truncated}
		s.store(ctx, cache.ViewAll, "", snap)
	}

	return &fetch.FullResult{
		Products:  s.engine.Apply(snap.Products, spec),
		Windows:   snap.Windows,
		Truncated: snap.Truncated,
	}, nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *catalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if s.cached(ctx, cache.ViewFeatured, "", &products) {
		return products, nil
	}
	products, err := s.repo.Featured(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, cache.ViewFeatured, "", products)
	return products, nil
}

func (s *catalogService) NonFeatured(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if s.cached(ctx, cache.ViewNonFeatured, "", &products) {
		return products, nil
	}
	products, err := s.repo.NonFeatured(ctx, nonFeaturedLimit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, cache.ViewNonFeatured, "", products)
	return products, nil
}

func (s *catalogService) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return s.repo.Latest(ctx, limit)
}

func (s *catalogService) Popular(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	return s.repo.Popular(ctx, limit)
}

// Hierarchy derives the category tree from the lightweight pair projection
func (s *catalogService) Hierarchy(ctx context.Context) (*catalog.Hierarchy, error) {
	h := &catalog.Hierarchy{}
	if s.cached(ctx, cache.ViewHierarchy, "", h) {
		return h, nil
	}
	pairs, err := s.repo.DistinctCategoryPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category pairs: %w", err)
	}
	h = catalog.BuildHierarchy(pairs)
	s.store(ctx, cache.ViewHierarchy, "", h)
	return h, nil
}

// ResolveSlugs maps URL slugs to category names. Unknown slugs are not an
// error: the result is marked unknown with a readable display name.
func (s *catalogService) ResolveSlugs(ctx context.Context, categorySlug, subcategorySlug string) (*ResolvedCategory, error) {
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	idx := catalog.NewSlugIndex(h)

	category, ok := idx.ResolveCategory(categorySlug)
	if !ok {
		return &ResolvedCategory{DisplayName: catalog.Deslugify(categorySlug)}, nil
	}
	res := &ResolvedCategory{Category: category, Known: true, DisplayName: category}
	if subcategorySlug == "" {
		return res, nil
	}

	sub, ok := idx.ResolveSubcategory(subcategorySlug)
	if !ok || !h.Contains(category, sub) {
		return &ResolvedCategory{Category: category, DisplayName: catalog.Deslugify(subcategorySlug)}, nil
	}
	res.Subcategory = sub
	res.DisplayName = sub
	return res, nil
}

func (s *catalogService) ShippingOrigins(ctx context.Context) ([]string, error) {
	return s.repo.DistinctShippingOrigins(ctx)
}

func (s *catalogService) Items(ctx context.Context, category, subcategory string) ([]string, error) {
	return s.repo.DistinctItems(ctx, category, subcategory)
}

// cached reads a view; cache failures are logged and treated as misses
func (s *catalogService) cached(ctx context.Context, view cache.View, key string, dst any) bool {
	ok, err := s.views.Get(ctx, view, key, dst)
	if err != nil {
		s.logger.Warn("View cache read failed", zap.String("view", string(view)), zap.Error(err))
		return false
	}
	return ok
}

func (s *catalogService) store(ctx context.Context, view cache.View, key string, value any) {
	if err := s.views.Set(ctx, view, key, value); err != nil {
		s.logger.Warn("View cache write failed", zap.String("view", string(view)), zap.Error(err))
	}
}

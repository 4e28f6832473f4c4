package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"affiliate-catalog/internal/cache"
	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/metrics"
	"affiliate-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNotFeatured       = errors.New("product is not featured")
	ErrDuplicateFeatured = errors.New("featured order lists a product more than once")
)

// generatedRatings are the values GenerateRating picks from
var generatedRatings = []decimal.Decimal{
	decimal.NewFromInt(4),
	decimal.RequireFromString("4.5"),
	decimal.NewFromInt(5),
}

// BulkConfig bounds bulk mutations
type BulkConfig struct {
	ChunkSize   int
	Concurrency int
}

// ProductService is the mutation gateway for products
type ProductService interface {
	Create(ctx context.Context, np *domain.NewProduct) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	BulkUpdate(ctx context.Context, ids []uuid.UUID, patch domain.ProductPatch) (*BulkResult, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) (*BulkResult, error)
	GenerateRating(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	BulkGenerateRating(ctx context.Context, ids []uuid.UUID) (*BulkResult, error)

	AddFeatured(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	RemoveFeatured(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ReorderFeatured(ctx context.Context, ids []uuid.UUID) (int, error)

	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
	ExportCSV(ctx context.Context, products []domain.Product, w io.Writer) error
}

type productService struct {
	repo    repository.ProductRepository
	views   cache.ViewCache
	bulk    BulkConfig
	logger  *zap.Logger
	metrics *metrics.CatalogMetrics
	pick    func(n int) int
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	repo repository.ProductRepository,
	views cache.ViewCache,
	bulk BulkConfig,
	logger *zap.Logger,
	m *metrics.CatalogMetrics,
) ProductService {
	if bulk.ChunkSize <= 0 {
		bulk.ChunkSize = 50
	}
	if bulk.Concurrency <= 0 {
		bulk.Concurrency = 5
	}
	return &productService{
		repo:    repo,
		views:   views,
		bulk:    bulk,
		logger:  logger,
		metrics: m,
		pick:    rand.IntN,
	}
}

// applyCreateDefaults fills the defaults a new product gets when the caller
// leaves them unset
func applyCreateDefaults(np *domain.NewProduct) {
	np.ProductName = strings.TrimSpace(np.ProductName)
	np.Category = strings.TrimSpace(np.Category)
	if !np.Commission.Valid {
		np.Commission = decimal.NewNullDecimal(decimal.Zero)
	}
	for _, f := range []**string{&np.ProductCode, &np.Subcategory, &np.Item, &np.VideoURL, &np.ShippingOrigin, &np.Store} {
		if *f != nil && strings.TrimSpace(**f) == "" {
			*f = nil
		}
	}
	if !np.IsFeatured {
		np.FeaturedOrder = nil
	}
}

// Create validates and inserts a product
func (s *productService) Create(ctx context.Context, np *domain.NewProduct) (*domain.Product, error) {
	applyCreateDefaults(np)
	if err := validateNewProduct(np); err != nil {
		return nil, err
	}

	product, err := s.repo.Insert(ctx, np)
	s.metrics.ObserveMutation("create", err)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

// Update applies the fields present in patch
func (s *productService) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	patch = patch.Normalize()
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	product, err := s.update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *productService) update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	product, err := s.repo.Update(ctx, id, patch)
	s.metrics.ObserveMutation("update", err)
	return product, err
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.ObserveMutation("delete", err)
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *productService) randomRating() decimal.Decimal {
	return generatedRatings[s.pick(len(generatedRatings))]
}

// GenerateRating assigns a random rating from the fixed rating set
func (s *productService) GenerateRating(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.update(ctx, id, domain.ProductPatch{Rating: domain.Some(s.randomRating())})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// AddFeatured appends the product to the end of the featured list
func (s *productService) AddFeatured(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsFeatured {
		return current, nil
	}

	maxOrder, err := s.repo.MaxFeaturedOrder(ctx)
	if err != nil {
		return nil, err
	}
	product, err := s.update(ctx, id, domain.ProductPatch{
		IsFeatured:    domain.Some(true),
		FeaturedOrder: domain.Some(maxOrder + 1),
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *productService) RemoveFeatured(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.update(ctx, id, domain.ProductPatch{
		IsFeatured:    domain.Some(false),
		FeaturedOrder: domain.Cleared[int](),
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// ReorderFeatured gives ids positions 1..n. Only rows whose order changes are
// written; the number of written rows is returned.
func (s *productService) ReorderFeatured(ctx context.Context, ids []uuid.UUID) (int, error) {
	featured, err := s.repo.Featured(ctx)
	if err != nil {
		return 0, err
	}
	current := make(map[uuid.UUID]*int, len(featured))
	for i := range featured {
		current[featured[i].ID] = featured[i].FeaturedOrder
	}

	changes := make(map[uuid.UUID]int)
	seen := make(map[uuid.UUID]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateFeatured, id)
		}
		seen[id] = true

		order, ok := current[id]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrNotFeatured, id)
		}
		if want := i + 1; order == nil || *order != want {
			changes[id] = want
		}
	}

	if len(changes) == 0 {
		return 0, nil
	}
	err = s.repo.UpdateFeaturedOrders(ctx, changes)
	s.metrics.ObserveMutation("reorder_featured", err)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return len(changes), nil
}

// invalidate drops every cached product view. A failure leaves stale views
// until their TTL expires, so it is logged rather than returned.
func (s *productService) invalidate(ctx context.Context) {
	if err := s.views.InvalidateProductViews(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Failed to invalidate product views", zap.Error(err))
	}
}

package transport

import (
	"context"
	"io"
	"strings"
	"sync"

	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/fetch"
	"affiliate-catalog/internal/repository"
	"affiliate-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fakeCatalog implements the read paths the handlers touch. Unimplemented
// methods panic through the embedded nil interface.
type fakeCatalog struct {
	service.CatalogService
	products map[uuid.UUID]*domain.Product
	full     *fetch.FullResult
	err      error

	mu       sync.Mutex
	lastSpec domain.FilterSpec
}

func newFakeCatalog(products ...domain.Product) *fakeCatalog {
	f := &fakeCatalog{products: make(map[uuid.UUID]*domain.Product)}
	for i := range products {
		f.products[products[i].ID] = &products[i]
	}
	return f
}

func (f *fakeCatalog) record(spec domain.FilterSpec) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSpec = spec
}

func (f *fakeCatalog) Page(ctx context.Context, spec domain.FilterSpec, cursor string) (*fetch.Page, error) {
	f.record(spec)
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	page := &fetch.Page{}
	for _, p := range f.products {
		page.Products = append(page.Products, *p)
	}
	return page, nil
}

func (f *fakeCatalog) ListAll(ctx context.Context, spec domain.FilterSpec) (*fetch.FullResult, error) {
	f.record(spec)
	if f.err != nil {
		return nil, f.err
	}
	return f.full, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeClicks struct {
	service.ClickService
	mu        sync.Mutex
	recorded  []uuid.UUID
	async     []uuid.UUID
	recordErr error
	periods   []string
}

func (f *fakeClicks) Record(ctx context.Context, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, productID)
	return nil
}

func (f *fakeClicks) RecordAsync(productID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.async = append(f.async, productID)
}

func (f *fakeClicks) Summary(ctx context.Context, period string) (*domain.AnalyticsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods = append(f.periods, period)
	if period == "90d" {
		return nil, service.ErrUnknownPeriod
	}
	return &domain.AnalyticsSummary{Period: period, TopProducts: []domain.ProductClicks{}}, nil
}

type fakeProducts struct {
	service.ProductService
	mu      sync.Mutex
	actions []string
	patches []domain.ProductPatch
}

func (f *fakeProducts) log(action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func (f *fakeProducts) Create(ctx context.Context, np *domain.NewProduct) (*domain.Product, error) {
	f.log("create")
	return &domain.Product{ID: uuid.New(), ProductName: np.ProductName, Price: np.Price}, nil
}

func (f *fakeProducts) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	f.log("update")
	f.mu.Lock()
	f.patches = append(f.patches, patch)
	f.mu.Unlock()
	return &domain.Product{ID: id, ProductName: patch.ProductName.Value}, nil
}

func (f *fakeProducts) BulkUpdate(ctx context.Context, ids []uuid.UUID, patch domain.ProductPatch) (*service.BulkResult, error) {
	f.log("bulk_update")
	return &service.BulkResult{Success: len(ids), Failures: []service.ItemFailure{}}, nil
}

func (f *fakeProducts) BulkDelete(ctx context.Context, ids []uuid.UUID) (*service.BulkResult, error) {
	f.log("bulk_delete")
	return &service.BulkResult{Success: len(ids) - 1, Failed: 1, Failures: []service.ItemFailure{{ID: ids[0], Error: "product not found"}}}, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id uuid.UUID) error {
	f.log("delete")
	return nil
}

func (f *fakeProducts) ExportCSV(ctx context.Context, products []domain.Product, w io.Writer) error {
	f.log("export")
	_, err := io.WriteString(w, "product_name\n")
	return err
}

func (f *fakeProducts) ImportCSV(ctx context.Context, r io.Reader) (*service.ImportResult, error) {
	f.log("import")
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Count(strings.TrimSpace(string(data)), "\n")
	return &service.ImportResult{Imported: lines, Failures: []service.RowFailure{}}, nil
}

func newTestRouter(catalog *fakeCatalog, products *fakeProducts, clicks *fakeClicks) chi.Router {
	r := chi.NewRouter()
	logger := zap.NewNop()
	NewProductHandler(catalog, logger).RegisterRoutes(r)
	NewClickHandler(clicks, catalog, logger).RegisterRoutes(r, nil)
	NewAdminHandler(catalog, products, clicks, nil, logger).RegisterRoutes(r)
	return r
}

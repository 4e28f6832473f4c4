package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"affiliate-catalog/internal/domain"

	"github.com/google/uuid"
)

// MaxRowsPerQuery is the hard cap on rows a single product query returns.
// Callers that need more rows must page with Offset.
const MaxRowsPerQuery = 1000

var (
	ErrProductNotFound = errors.New("product not found")
)

const productColumns = `id, product_id, product_name, category, subcategory, item, price,
	original_price, commission, sales, rating, affiliate_url, image_url, video_url,
	dikirim_dari, toko, stock_available, is_featured, featured_order, clicks, created_at`

var orderColumns = map[domain.OrderColumn]string{
	domain.OrderByCreatedAt: "created_at",
	domain.OrderByClicks:    "clicks",
	domain.OrderBySales:     "sales",
	domain.OrderByPrice:     "price",
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	QueryProducts(ctx context.Context, q domain.ProductQuery) (domain.Window, error)
	DistinctCategoryPairs(ctx context.Context) ([]domain.CategoryPair, error)
	DistinctShippingOrigins(ctx context.Context) ([]string, error)
	DistinctItems(ctx context.Context, category, subcategory string) ([]string, error)

	Insert(ctx context.Context, product *domain.NewProduct) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	Featured(ctx context.Context) ([]domain.Product, error)
	NonFeatured(ctx context.Context, limit int) ([]domain.Product, error)
	Latest(ctx context.Context, limit int) ([]domain.Product, error)
	Popular(ctx context.Context, limit int) ([]domain.Product, error)
	MaxFeaturedOrder(ctx context.Context) (int, error)
	UpdateFeaturedOrders(ctx context.Context, orders map[uuid.UUID]int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.ProductCode,
		&p.ProductName,
		&p.Category,
		&p.Subcategory,
		&p.Item,
		&p.Price,
		&p.OriginalPrice,
		&p.Commission,
		&p.Sales,
		&p.Rating,
		&p.AffiliateURL,
		&p.ImageURL,
		&p.VideoURL,
		&p.ShippingOrigin,
		&p.Store,
		&p.StockAvailable,
		&p.IsFeatured,
		&p.FeaturedOrder,
		&p.Clicks,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) queryList(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

// QueryProducts returns one bounded window of products and the total number
// of matching rows. The limit is clamped to MaxRowsPerQuery.
func (r *productRepository) QueryProducts(ctx context.Context, q domain.ProductQuery) (domain.Window, error) {
	where, args := buildProductWhere(q)

	var total int
	countQuery := "SELECT COUNT(*) FROM products" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.Window{}, fmt.Errorf("failed to count products: %w", err)
	}

	limit := q.Limit
	if limit <= 0 || limit > MaxRowsPerQuery {
		limit = MaxRowsPerQuery
	}
	offset := max(q.Offset, 0)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, productColumns, where, orderClause(q), len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	products, err := r.queryList(ctx, query, args...)
	if err != nil {
		return domain.Window{}, fmt.Errorf("failed to query products: %w", err)
	}
	return domain.Window{Rows: products, Total: total}, nil
}

func buildProductWhere(q domain.ProductQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	for _, term := range q.NameContainsAll {
		if term == "" {
			continue
		}
		add("product_name ILIKE $%d", "%"+escapeLike(term)+"%")
	}
	if q.CategoryEq != "" {
		add("category = $%d", q.CategoryEq)
	}
	if q.SubcategoryEq != "" {
		add("subcategory = $%d", q.SubcategoryEq)
	}
	if q.PriceGte != nil {
		add("price >= $%d", *q.PriceGte)
	}
	if q.PriceLte != nil {
		add("price <= $%d", *q.PriceLte)
	}
	if q.ShippingOriginEq != "" {
		add("dikirim_dari = $%d", q.ShippingOriginEq)
	}
	if q.ItemEq != "" {
		add("item = $%d", q.ItemEq)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause only emits whitelisted columns. id breaks ties so offsets are
// stable between windows.
func orderClause(q domain.ProductQuery) string {
	column, ok := orderColumns[q.OrderBy]
	if !ok {
		return "created_at DESC, id ASC"
	}
	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s, id ASC", column, direction)
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// DistinctCategoryPairs projects every (category, subcategory) combination
func (r *productRepository) DistinctCategoryPairs(ctx context.Context) ([]domain.CategoryPair, error) {
	query := `
		SELECT DISTINCT category, subcategory
		FROM products
		WHERE category <> ''
		ORDER BY category, subcategory
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list category pairs: %w", err)
	}
	defer rows.Close()

	pairs := []domain.CategoryPair{}
	for rows.Next() {
		var pair domain.CategoryPair
		if err := rows.Scan(&pair.Category, &pair.Subcategory); err != nil {
			return nil, fmt.Errorf("failed to scan category pair: %w", err)
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category pairs: %w", err)
	}
	return pairs, nil
}

// DistinctShippingOrigins lists the non-empty dikirim_dari values
func (r *productRepository) DistinctShippingOrigins(ctx context.Context) ([]string, error) {
	return r.distinctStrings(ctx, `
		SELECT DISTINCT dikirim_dari
		FROM products
		WHERE dikirim_dari IS NOT NULL AND dikirim_dari <> ''
		ORDER BY dikirim_dari
	`)
}

// DistinctItems lists item values, optionally narrowed by category and subcategory
func (r *productRepository) DistinctItems(ctx context.Context, category, subcategory string) ([]string, error) {
	q := domain.ProductQuery{CategoryEq: category, SubcategoryEq: subcategory}
	where, args := buildProductWhere(q)
	if where == "" {
		where = " WHERE "
	} else {
		where += " AND "
	}
	query := "SELECT DISTINCT item FROM products" + where + "item IS NOT NULL AND item <> '' ORDER BY item"
	return r.distinctStrings(ctx, query, args...)
}

func (r *productRepository) distinctStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating values: %w", err)
	}
	return values, nil
}

// Insert creates a product and returns the stored row
func (r *productRepository) Insert(ctx context.Context, np *domain.NewProduct) (*domain.Product, error) {
	query := `
		INSERT INTO products (id, product_id, product_name, category, subcategory, item, price,
			original_price, commission, sales, rating, affiliate_url, image_url, video_url,
			dikirim_dari, toko, stock_available, is_featured, featured_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ` + productColumns

	row := r.db.QueryRowContext(
		ctx,
		query,
		uuid.New(),
		np.ProductCode,
		np.ProductName,
		np.Category,
		np.Subcategory,
		np.Item,
		np.Price,
		np.OriginalPrice,
		np.Commission,
		np.Sales,
		np.Rating,
		np.AffiliateURL,
		np.ImageURL,
		np.VideoURL,
		np.ShippingOrigin,
		np.Store,
		np.StockAvailable,
		np.IsFeatured,
		np.FeaturedOrder,
	)

	product, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Update applies the fields present in patch and returns the updated row
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	var set setBuilder
	addOptional(&set, "product_id", patch.ProductCode)
	addOptional(&set, "product_name", patch.ProductName)
	addOptional(&set, "category", patch.Category)
	addOptional(&set, "subcategory", patch.Subcategory)
	addOptional(&set, "item", patch.Item)
	addOptional(&set, "price", patch.Price)
	addOptional(&set, "original_price", patch.OriginalPrice)
	addOptional(&set, "commission", patch.Commission)
	addOptional(&set, "sales", patch.Sales)
	addOptional(&set, "rating", patch.Rating)
	addOptional(&set, "affiliate_url", patch.AffiliateURL)
	addOptional(&set, "image_url", patch.ImageURL)
	addOptional(&set, "video_url", patch.VideoURL)
	addOptional(&set, "dikirim_dari", patch.ShippingOrigin)
	addOptional(&set, "toko", patch.Store)
	addOptional(&set, "stock_available", patch.StockAvailable)
	addOptional(&set, "is_featured", patch.IsFeatured)
	addOptional(&set, "featured_order", patch.FeaturedOrder)

	if len(set.clauses) == 0 {
		return r.FindByID(ctx, id)
	}

	set.args = append(set.args, id)
	query := fmt.Sprintf(`
		UPDATE products
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(set.clauses, ", "), len(set.args), productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, set.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

type setBuilder struct {
	clauses []string
	args    []any
}

func (b *setBuilder) add(column string, value any) {
	b.args = append(b.args, value)
	b.clauses = append(b.clauses, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func addOptional[T any](b *setBuilder, column string, o domain.Optional[T]) {
	if !o.Set {
		return
	}
	if o.Null {
		b.add(column, nil)
		return
	}
	b.add(column, o.Value)
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Featured lists featured products in curation order, newest first among
// products without an explicit order.
func (r *productRepository) Featured(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_featured = TRUE
		ORDER BY featured_order ASC NULLS LAST, created_at DESC
		LIMIT $1
	`
	products, err := r.queryList(ctx, query, MaxRowsPerQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

func (r *productRepository) NonFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_featured = FALSE
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`
	products, err := r.queryList(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list non-featured products: %w", err)
	}
	return products, nil
}

func (r *productRepository) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`
	products, err := r.queryList(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list latest products: %w", err)
	}
	return products, nil
}

func (r *productRepository) Popular(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY clicks DESC, sales DESC, id ASC
		LIMIT $1
	`
	products, err := r.queryList(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list popular products: %w", err)
	}
	return products, nil
}

// MaxFeaturedOrder returns the highest featured_order in use, or 0
func (r *productRepository) MaxFeaturedOrder(ctx context.Context) (int, error) {
	var maxOrder int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(featured_order), 0) FROM products WHERE is_featured = TRUE`,
	).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to read max featured order: %w", err)
	}
	return maxOrder, nil
}

// UpdateFeaturedOrders writes the given orders in a single transaction
func (r *productRepository) UpdateFeaturedOrders(ctx context.Context, orders map[uuid.UUID]int) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for id, order := range orders {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET featured_order = $2 WHERE id = $1`, id, order)
		if err != nil {
			return fmt.Errorf("failed to update featured order: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit featured order: %w", err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxRowsPerQuery {
		return MaxRowsPerQuery
	}
	return limit
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"affiliate-catalog/internal/catalog"
	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/metrics"

	"go.uber.org/zap"
)

// MaxWindow is the backend's hard cap on rows returned by a single query
const MaxWindow = 1000

var (
	// ErrBackendUnavailable marks timeouts and network failures. Callers may retry.
	ErrBackendUnavailable = errors.New("product backend unavailable")
	// ErrWindowTooLarge is returned by NewCoordinator for windows above MaxWindow
	ErrWindowTooLarge = fmt.Errorf("window size exceeds backend cap of %d rows", MaxWindow)
)

// Backend is the narrow read interface the coordinator needs
type Backend interface {
	QueryProducts(ctx context.Context, q domain.ProductQuery) (domain.Window, error)
}

// Config bounds the coordinator's requests
type Config struct {
	PageSize       int
	WindowSize     int
	MaxRows        int
	RequestTimeout time.Duration
}

// Page is one storefront page
type Page struct {
	Products   []domain.Product `json:"products"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
	// Reset is set when the supplied cursor belonged to a different filter
	// and was discarded.
	Reset bool `json:"reset,omitempty"`
}

// FullResult is the outcome of FetchAll
type FullResult struct {
	Products []domain.Product
	Windows  int
	// Truncated means the safety ceiling stopped the loop and the set may be
	// incomplete.
	Truncated bool
}

// PartialFetchError reports a full fetch that failed part way through.
// Fetched holds the rows received before the failure.
type PartialFetchError struct {
	Fetched []domain.Product
	Windows int
	Err     error
}

func (e *PartialFetchError) Error() string {
	return fmt.Sprintf("full fetch aborted after %d windows (%d rows): %v", e.Windows, len(e.Fetched), e.Err)
}

func (e *PartialFetchError) Unwrap() error {
	return e.Err
}

// Coordinator reconciles the backend's row cap with the two read patterns the
// catalog needs: incremental storefront pages and bounded full fetches.
type Coordinator struct {
	backend Backend
	engine  *catalog.Engine
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.CatalogMetrics
}

// NewCoordinator validates cfg and builds a Coordinator
func NewCoordinator(backend Backend, engine *catalog.Engine, cfg Config, logger *zap.Logger, m *metrics.CatalogMetrics) (*Coordinator, error) {
	if cfg.PageSize <= 0 || cfg.WindowSize <= 0 || cfg.MaxRows <= 0 {
		return nil, errors.New("page size, window size and max rows must be positive")
	}
	if cfg.PageSize > MaxWindow || cfg.WindowSize > MaxWindow {
		return nil, ErrWindowTooLarge
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		backend: backend,
		engine:  engine,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}, nil
}

// Page fetches one storefront page. A cursor issued for a different filter is
// stale: it is discarded and the first page is returned with Reset set.
// The page is the last one when it holds fewer rows than the page size.
func (c *Coordinator) Page(ctx context.Context, spec domain.FilterSpec, rawCursor string) (*Page, error) {
	cursor, err := ParseCursor(rawCursor)
	if err != nil {
		return nil, err
	}

	key := spec.Key()
	page := &Page{}
	offset := 0
	if cursor != nil {
		if cursor.FilterKey == key {
			offset = cursor.Offset
		} else {
			page.Reset = true
			c.logger.Debug("Discarding stale cursor",
				zap.String("cursor_filter", cursor.FilterKey),
				zap.String("filter", key),
			)
		}
	}

	q := catalog.QueryFor(spec)
	q.Offset = offset
	q.Limit = c.cfg.PageSize

	win, err := c.window(ctx, q, "page")
	if err != nil {
		return nil, err
	}

	rows := win.Rows
	if len(rows) > c.cfg.PageSize {
		rows = rows[:c.cfg.PageSize]
	}
	if spec.SortBy == domain.SortRecommended {
		rows = c.engine.Shuffle(rows)
	}
	if rows == nil {
		rows = []domain.Product{}
	}

	page.Products = rows
	page.HasMore = len(rows) == c.cfg.PageSize
	if page.HasMore {
		page.NextCursor = EncodeCursor(Cursor{Offset: offset + len(rows), FilterKey: key})
	}
	return page, nil
}

// FetchAll loads every product matching spec into memory, window by window.
// Windows are requested sequentially because each offset depends on the
// previous window being full. The loop stops on a short window, when the
// backend's total has been reached, or at the MaxRows ceiling.
func (c *Coordinator) FetchAll(ctx context.Context, spec domain.FilterSpec) (*FullResult, error) {
	q := catalog.QueryFor(spec)
	result := &FullResult{Products: make([]domain.Product, 0, c.cfg.WindowSize)}

	for {
		remaining := c.cfg.MaxRows - len(result.Products)
		if remaining <= 0 {
			result.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, &PartialFetchError{Fetched: result.Products, Windows: result.Windows, Err: err}
		}

		limit := min(c.cfg.WindowSize, remaining)
		q.Offset = len(result.Products)
		q.Limit = limit

		win, err := c.window(ctx, q, "full")
		result.Windows++
		if err != nil {
			c.logger.Error("Full fetch aborted",
				zap.Int("windows", result.Windows),
				zap.Int("rows", len(result.Products)),
				zap.Error(err),
			)
			return nil, &PartialFetchError{Fetched: result.Products, Windows: result.Windows, Err: err}
		}

		rows := win.Rows
		if len(rows) > limit {
			rows = rows[:limit]
		}
		result.Products = append(result.Products, rows...)

		if len(rows) < limit {
			break
		}
		if win.Total >= 0 && len(result.Products) >= win.Total {
			break
		}
	}

	if result.Truncated {
		c.metrics.IncFetchTruncated()
		c.logger.Warn("Full fetch reached row ceiling, product set may be incomplete",
			zap.Int("max_rows", c.cfg.MaxRows),
			zap.Int("windows", result.Windows),
		)
	}
	return result, nil
}

// window issues one bounded query with the per-request timeout applied
func (c *Coordinator) window(ctx context.Context, q domain.ProductQuery, mode string) (domain.Window, error) {
	if q.Limit > MaxWindow {
		q.Limit = MaxWindow
	}

	wctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	c.metrics.IncFetchWindow(mode)
	win, err := c.backend.QueryProducts(wctx, q)
	if err != nil {
		return domain.Window{}, classify(ctx, err)
	}
	return win, nil
}

// classify maps timeouts and network errors onto ErrBackendUnavailable. A
// cancellation from the caller's own context is returned unchanged.
func classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"affiliate-catalog/internal/domain"
	"affiliate-catalog/internal/metrics"
	"affiliate-catalog/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const topProductsLimit = 10

var ErrUnknownPeriod = errors.New("period must be one of 1d, 7d, 30d, all")

// analyticsPeriods maps a period name to its lookback; zero means all time
var analyticsPeriods = map[string]time.Duration{
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"all": 0,
}

// ClickService records product clicks and summarises them
type ClickService interface {
	Record(ctx context.Context, productID uuid.UUID) error
	RecordAsync(productID uuid.UUID)
	Summary(ctx context.Context, period string) (*domain.AnalyticsSummary, error)
	Reconcile(ctx context.Context) (int64, error)
	Wait()
}

type clickService struct {
	repo          repository.ClickRepository
	logger        *zap.Logger
	metrics       *metrics.CatalogMetrics
	recordTimeout time.Duration
	now           func() time.Time
	inflight      sync.WaitGroup
}

// NewClickService creates a new instance of ClickService
func NewClickService(repo repository.ClickRepository, recordTimeout time.Duration, logger *zap.Logger, m *metrics.CatalogMetrics) ClickService {
	if recordTimeout <= 0 {
		recordTimeout = 5 * time.Second
	}
	return &clickService{
		repo:          repo,
		logger:        logger,
		metrics:       m,
		recordTimeout: recordTimeout,
		now:           time.Now,
	}
}

// Record appends a click event and increments the product's counter. The two
// writes are independent and run concurrently; if exactly one fails the
// counter and the log disagree until the next reconcile.
func (s *clickService) Record(ctx context.Context, productID uuid.UUID) error {
	event := &domain.ClickEvent{
		ID:        uuid.New(),
		ProductID: productID,
		EventType: domain.EventTypeClick,
		CreatedAt: s.now().UTC(),
	}

	var eventErr, counterErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		eventErr = s.repo.AppendClickEvent(ctx, event)
	}()
	go func() {
		defer wg.Done()
		_, counterErr = s.repo.IncrementClickCounter(ctx, productID)
	}()
	wg.Wait()

	if eventErr != nil {
		s.metrics.IncClickWriteFailure("event")
	}
	if counterErr != nil {
		s.metrics.IncClickWriteFailure("counter")
	}

	err := multierr.Combine(eventErr, counterErr)
	if err == nil {
		s.metrics.IncClickRecorded()
		return nil
	}

	if (eventErr == nil) != (counterErr == nil) {
		s.logger.Warn("Click dual write diverged, counter will drift until reconcile",
			zap.String("product_id", productID.String()),
			zap.String("event_id", event.ID.String()),
			zap.NamedError("event_error", eventErr),
			zap.NamedError("counter_error", counterErr),
		)
	}
	return fmt.Errorf("failed to record click: %w", err)
}

// RecordAsync records a click without blocking the caller. The write runs on
// a context detached from any request, bounded by the record timeout.
func (s *clickService) RecordAsync(productID uuid.UUID) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
		defer cancel()
		if err := s.Record(ctx, productID); err != nil {
			s.logger.Error("Background click tracking failed",
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every RecordAsync call has finished
func (s *clickService) Wait() {
	s.inflight.Wait()
}

// Summary aggregates clicks and product counts for a period
func (s *clickService) Summary(ctx context.Context, period string) (*domain.AnalyticsSummary, error) {
	if period == "" {
		period = "7d"
	}
	lookback, ok := analyticsPeriods[period]
	if !ok {
		return nil, ErrUnknownPeriod
	}
	var since *time.Time
	if lookback > 0 {
		t := s.now().Add(-lookback)
		since = &t
	}

	summary := &domain.AnalyticsSummary{Period: period}
	var err error
	if summary.TotalProducts, err = s.repo.CountProductsSince(ctx, since); err != nil {
		return nil, err
	}
	if summary.TotalClicks, err = s.repo.CountClicksSince(ctx, since); err != nil {
		return nil, err
	}
	if summary.TopProducts, err = s.repo.TopProductsSince(ctx, since, topProductsLimit); err != nil {
		return nil, err
	}
	return summary, nil
}

// Reconcile rebuilds click counters from the event log
func (s *clickService) Reconcile(ctx context.Context) (int64, error) {
	repaired, err := s.repo.ReconcileClickCounters(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.SetClickDrift(repaired)
	if repaired > 0 {
		s.logger.Warn("Repaired drifted click counters", zap.Int64("products", repaired))
	}
	return repaired, nil
}

package service

import (
	"context"
	"sort"
	"sync"

	"affiliate-catalog/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ItemFailure records why one id in a bulk operation failed
type ItemFailure struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// BulkResult reports per-item outcomes. Successful items are never rolled
// back when others fail.
type BulkResult struct {
	Success  int           `json:"success"`
	Failed   int           `json:"failed"`
	Failures []ItemFailure `json:"failures"`
}

// BulkUpdate applies one patch to every id
func (s *productService) BulkUpdate(ctx context.Context, ids []uuid.UUID, patch domain.ProductPatch) (*BulkResult, error) {
	patch = patch.Normalize()
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	return s.runBulk(ctx, "bulk_update", ids, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.update(ctx, id, patch)
		return err
	})
}

func (s *productService) BulkDelete(ctx context.Context, ids []uuid.UUID) (*BulkResult, error) {
	return s.runBulk(ctx, "bulk_delete", ids, func(ctx context.Context, id uuid.UUID) error {
		err := s.repo.Delete(ctx, id)
		s.metrics.ObserveMutation("delete", err)
		return err
	})
}

// BulkGenerateRating assigns an independently drawn rating to each id
func (s *productService) BulkGenerateRating(ctx context.Context, ids []uuid.UUID) (*BulkResult, error) {
	ratings := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, id := range ids {
		ratings[id] = s.randomRating()
	}
	return s.runBulk(ctx, "bulk_generate_rating", ids, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.update(ctx, id, domain.ProductPatch{Rating: domain.Some(ratings[id])})
		return err
	})
}

// runBulk processes ids in chunks. Within a chunk at most Concurrency
// mutations are in flight and a failure never cancels its siblings. The
// context is checked between chunks; on cancellation the partial result is
// returned with the context error.
func (s *productService) runBulk(ctx context.Context, op string, ids []uuid.UUID, fn func(context.Context, uuid.UUID) error) (*BulkResult, error) {
	result := &BulkResult{Failures: []ItemFailure{}}
	// input position of each entry in result.Failures
	var failedAt []int

	var (
		mu       sync.Mutex
		stopErr  error
		attempts int
	)
	for start := 0; start < len(ids); start += s.bulk.ChunkSize {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		end := min(start+s.bulk.ChunkSize, len(ids))

		var g errgroup.Group
		g.SetLimit(s.bulk.Concurrency)
		for i := start; i < end; i++ {
			id := ids[i]
			g.Go(func() error {
				err := fn(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					result.Failures = append(result.Failures, ItemFailure{ID: id, Error: err.Error()})
					failedAt = append(failedAt, i)
					return nil
				}
				result.Success++
				return nil
			})
		}
		_ = g.Wait()
		attempts = end
	}

	sort.Sort(failuresByPosition{failures: result.Failures, positions: failedAt})

	if result.Success > 0 {
		s.invalidate(ctx)
	}

	logFields := []zap.Field{
		zap.String("op", op),
		zap.Int("requested", len(ids)),
		zap.Int("attempted", attempts),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	}
	if stopErr != nil {
		s.logger.Warn("Bulk operation interrupted", append(logFields, zap.Error(stopErr))...)
		return result, stopErr
	}
	s.logger.Info("Bulk operation finished", logFields...)
	return result, nil
}

// failuresByPosition orders failures by their index in the request. Positions
// are unique even when an id is repeated.
type failuresByPosition struct {
	failures  []ItemFailure
	positions []int
}

func (f failuresByPosition) Len() int           { return len(f.failures) }
func (f failuresByPosition) Less(a, b int) bool { return f.positions[a] < f.positions[b] }
func (f failuresByPosition) Swap(a, b int) {
	f.failures[a], f.failures[b] = f.failures[b], f.failures[a]
	f.positions[a], f.positions[b] = f.positions[b], f.positions[a]
}

package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ClickReconciler rebuilds denormalised click counters from the event log
type ClickReconciler interface {
	Reconcile(ctx context.Context) (int64, error)
}

// ClickReconcileWorker periodically repairs click counters that drifted after
// a one-sided dual write.
type ClickReconcileWorker struct {
	reconciler ClickReconciler
	interval   time.Duration
	logger     *zap.Logger
}

// NewClickReconcileWorker constructs a ClickReconcileWorker
func NewClickReconcileWorker(reconciler ClickReconciler, interval time.Duration, logger *zap.Logger) *ClickReconcileWorker {
	return &ClickReconcileWorker{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
	}
}

// Start runs one pass immediately, then one per interval until ctx is done
func (w *ClickReconcileWorker) Start(ctx context.Context) {
	w.logger.Info("Starting click reconcile worker", zap.Duration("interval", w.interval))

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			w.logger.Info("Click reconcile worker stopped")
			return
		}
	}
}

func (w *ClickReconcileWorker) run(ctx context.Context) {
	start := time.Now()
	repaired, err := w.reconciler.Reconcile(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Failed to reconcile click counters", zap.Error(err))
		}
		return
	}

	w.logger.Debug("Click counters reconciled",
		zap.Int64("repaired", repaired),
		zap.Duration("duration", time.Since(start)),
	)
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/application/services"
)

// VerifyWorker periodically sweeps pending payments older than the pending
// TTL and pushes each one through the reconciler's poll path. Stale charges
// the gateway never completed end up FAILED; charges that did complete while
// the webhook was lost end up SUCCESS with their votes cast. Records are
// never deleted.
type VerifyWorker struct {
	payments   application.PaymentRepository
	reconciler *services.Reconciler
	interval   time.Duration
	pendingTTL time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewVerifyWorker(
	payments application.PaymentRepository,
	reconciler *services.Reconciler,
	interval time.Duration,
	pendingTTL time.Duration,
	batchSize int,
	logger *slog.Logger,
) *VerifyWorker {
	return &VerifyWorker{
		payments:   payments,
		reconciler: reconciler,
		interval:   interval,
		pendingTTL: pendingTTL,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (w *VerifyWorker) Start(ctx context.Context) {
	w.logger.Info("verify worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.ProcessStalePayments(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("verify worker stopping")
			return
		case <-ticker.C:
			if err := w.ProcessStalePayments(ctx); err != nil {
				w.logger.Error("stale payment sweep failed", "error", err)
			}
		}
	}
}

func (w *VerifyWorker) ProcessStalePayments(ctx context.Context) error {
	cutoff := time.Now().Add(-w.pendingTTL)

	stale, err := w.payments.FindStalePending(ctx, cutoff, w.batchSize)
	if err != nil {
		return err
	}

	if len(stale) == 0 {
		return nil
	}

	var processed, resolved int
	for _, payment := range stale {
		result, err := w.reconciler.VerifyPayment(ctx, payment.Reference)
		if err != nil {
			w.logger.Warn("stale payment still unresolved",
				"reference", payment.Reference,
				"error", err)
		} else if result.IsTerminal() {
			resolved++
		}
		processed++
	}

	w.logger.Info("processed stale payment sweep",
		"processed", processed,
		"resolved", resolved)

	return nil
}

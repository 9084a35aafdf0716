package mailing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solidario/solidario/internal/metrics"
	"github.com/solidario/solidario/internal/model"
)

const (
	// DefaultBatchSize is the number of deliveries to process per poll.
	DefaultBatchSize = 50
	// DefaultPollInterval is the time between polling for pending deliveries.
	DefaultPollInterval = 5 * time.Second
	// DefaultMetricsInterval is how often to update queue depth metrics.
	DefaultMetricsInterval = 10 * time.Second
)

// Worker drains the mailing delivery queue.
type Worker struct {
	repo            *Repository
	client          *Client
	logger          *slog.Logger
	metrics         metrics.Recorder
	batchSize       int
	pollInterval    time.Duration
	metricsInterval time.Duration
	lastMetrics     time.Time
	started         bool
}

// NewWorker creates a new mailing delivery worker.
func NewWorker(repo *Repository, client *Client, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		repo:            repo,
		client:          client,
		logger:          logger.With("component", "mailing.worker"),
		metrics:         recorder,
		batchSize:       DefaultBatchSize,
		pollInterval:    DefaultPollInterval,
		metricsInterval: DefaultMetricsInterval,
	}
}

// Run starts the worker loop. Blocks until context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.started {
		return errors.New("worker already started")
	}
	w.started = true

	w.logger.Info("mailing worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("mailing worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
			}
		}
	}
}

// processOnce fetches and processes a batch of due deliveries.
func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	deliveries, err := w.repo.GetPendingDeliveries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending deliveries: %w", err)
	}

	for _, delivery := range deliveries {
		if err := w.deliver(ctx, delivery); err != nil {
			w.logger.Warn("delivery failed",
				"delivery_id", delivery.ID,
				"error", err,
			)
		}
	}

	return nil
}

// deliver attempts one subscriber push.
func (w *Worker) deliver(ctx context.Context, delivery *model.MailingDelivery) error {
	start := time.Now()
	httpStatus, err := w.client.Subscribe(ctx, delivery.Email, delivery.Name, delivery.GroupID)
	duration := time.Since(start)

	if err == nil {
		w.logger.Info("subscriber delivered",
			"delivery_id", delivery.ID,
			"http_status", httpStatus,
			"duration_ms", duration.Milliseconds(),
		)
		w.metrics.IncMailingDelivery("success")
		return w.repo.UpdateDeliverySuccess(ctx, delivery.ID)
	}

	nextAttempt := delivery.AttemptCount + 1
	exhausted := IsExhausted(nextAttempt, delivery.MaxAttempts)

	status := "failed"
	if exhausted {
		status = "exhausted"
	}

	w.logger.Warn("subscriber delivery failed",
		"delivery_id", delivery.ID,
		"attempt", nextAttempt,
		"exhausted", exhausted,
		"error", err,
	)
	w.metrics.IncMailingDelivery(status)

	return w.repo.UpdateDeliveryFailure(ctx, delivery.ID, err.Error(), NextRetryAt(nextAttempt), exhausted)
}

// maybeUpdateQueueDepth periodically updates the queue depth metric.
func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if time.Since(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	depth, err := w.repo.GetQueueDepth(ctx)
	if err != nil {
		w.logger.Warn("failed to get queue depth", "error", err)
		return
	}
	w.metrics.SetMailingQueueDepth(depth)
}

// SetBatchSize overrides the default batch size.
func (w *Worker) SetBatchSize(size int) {
	if size > 0 {
		w.batchSize = size
	}
}

// SetPollInterval overrides the default poll interval.
func (w *Worker) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		w.pollInterval = interval
	}
}

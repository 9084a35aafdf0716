package mailing

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/solidario/solidario/internal/metrics"
	"github.com/solidario/solidario/internal/model"
)

// EnqueueTimeout bounds the queue insert so a slow database cannot
// stall the registration response.
const EnqueueTimeout = 2 * time.Second

// Publisher queues mailing-list deliveries for new registrations.
type Publisher struct {
	repo    *Repository
	groupID string
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new mailing publisher.
func NewPublisher(repo *Repository, groupID string, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		repo:    repo,
		groupID: groupID,
		logger:  logger.With("component", "mailing.publisher"),
		metrics: recorder,
	}
}

// EnqueueSubscriber queues a subscriber push. Best effort: errors are
// logged, never returned, so registration responses are unaffected.
func (p *Publisher) EnqueueSubscriber(ctx context.Context, email, name string) {
	// Detach from the request context: the registration has already
	// committed, and cancelling the response must not drop the queue row.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), EnqueueTimeout)
	defer cancel()

	now := time.Now().UTC()
	delivery := &model.MailingDelivery{
		ID:           ulid.Make().String(),
		Email:        email,
		Name:         name,
		GroupID:      p.groupID,
		Status:       model.DeliveryStatusPending,
		AttemptCount: 0,
		MaxAttempts:  DefaultMaxAttempts,
		NextRetryAt:  now, // Immediate delivery
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.repo.CreateDelivery(ctx, delivery); err != nil {
		p.logger.Warn("failed to queue mailing delivery",
			"email", email,
			"error", err,
		)
		p.metrics.IncMailingDelivery("dropped")
		return
	}

	p.logger.Debug("mailing delivery queued",
		"delivery_id", delivery.ID,
		"email", email,
	)
}

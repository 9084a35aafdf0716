package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/solidario/solidario/internal/metrics"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

// subscriptionStore is the subset of the repository the subscription
// service depends on.
type subscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	ExtendActiveSubscription(ctx context.Context, userID string, term time.Duration) (*model.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	ExpireDueSubscriptions(ctx context.Context, userID string) (int64, error)
	ExpireAllDueSubscriptions(ctx context.Context) (int64, error)
	UserExists(ctx context.Context, id string) (bool, error)
}

// subscriptionCache caches subscription snapshots.
type subscriptionCache interface {
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	SetSubscription(ctx context.Context, sub *model.Subscription) error
	DeleteSubscription(ctx context.Context, userID string) error
}

// SubscriptionService tracks membership validity windows.
type SubscriptionService struct {
	store   subscriptionStore
	cache   subscriptionCache
	term    time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewSubscriptionService creates a new SubscriptionService. cache may
// be nil to disable snapshot caching.
func NewSubscriptionService(store subscriptionStore, cache subscriptionCache, term time.Duration, logger *slog.Logger, recorder metrics.Recorder) *SubscriptionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SubscriptionService{
		store:   store,
		cache:   cache,
		term:    term,
		logger:  logger.With("component", "subscription"),
		metrics: recorder,
	}
}

// Activate opens a new validity window for the user starting now.
func (s *SubscriptionService) Activate(ctx context.Context, userID string) (*model.Subscription, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &model.Subscription{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Status:    model.SubscriptionActive,
		StartsAt:  now,
		EndsAt:    now.Add(s.term),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.metrics.IncSubscriptionEvent("activated")
	s.logger.Info("subscription activated",
		slog.String("user_id", userID),
		slog.Time("ends_at", sub.EndsAt),
	)

	return sub, nil
}

// Renew extends the user's active subscription by one term. Returns
// repository.ErrNoActiveSubscription when the user has no active
// window to extend.
func (s *SubscriptionService) Renew(ctx context.Context, userID string) (*model.Subscription, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	sub, err := s.store.ExtendActiveSubscription(ctx, userID, s.term)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.metrics.IncSubscriptionEvent("renewed")
	s.logger.Info("subscription renewed",
		slog.String("user_id", userID),
		slog.Time("ends_at", sub.EndsAt),
	)

	return sub, nil
}

// Status returns the user's current subscription snapshot, served from
// cache when fresh.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*model.Subscription, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if sub, err := s.cache.GetSubscription(ctx, userID); err == nil {
			return sub, nil
		}
	}

	sub, err := s.store.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetSubscription(ctx, sub)
	}

	return sub, nil
}

// ExpireDue marks the user's overdue windows as expired. Idempotent:
// running it twice expires nothing the second time.
func (s *SubscriptionService) ExpireDue(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.ExpireDueSubscriptions(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx, userID)
		s.metrics.IncSubscriptionEvent("expired")
	}
	return n, nil
}

// ExpireAllDue sweeps every overdue window in the system. Used by the
// admin endpoint and the periodic sweeper.
func (s *SubscriptionService) ExpireAllDue(ctx context.Context) (int64, error) {
	n, err := s.store.ExpireAllDueSubscriptions(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.IncSubscriptionEvent("expired")
		s.logger.Info("expired due subscriptions", slog.Int64("count", n))
	}
	return n, nil
}

func (s *SubscriptionService) requireUser(ctx context.Context, userID string) error {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return repository.ErrUserNotFound
	}
	return nil
}

func (s *SubscriptionService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.DeleteSubscription(ctx, userID)
	}
}

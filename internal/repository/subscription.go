package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/solidario/solidario/internal/model"
)

// Common errors for subscription repository operations.
var (
	ErrNoActiveSubscription = errors.New("no active subscription")
)

// CreateSubscription inserts a new subscription row.
func (r *Repository) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, user_id, status, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		sub.ID,
		sub.UserID,
		string(sub.Status),
		sub.StartsAt,
		sub.EndsAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// ExtendActiveSubscription pushes out ends_at of the user's active row
// by the given term. Returns ErrNoActiveSubscription when the user has
// no active row to renew.
func (r *Repository) ExtendActiveSubscription(ctx context.Context, userID string, term time.Duration) (*model.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET ends_at = ends_at + $2, updated_at = now()
		WHERE user_id = $1 AND status = 'active'
		RETURNING id, user_id, status, starts_at, ends_at, created_at, updated_at
	`

	var sub model.Subscription
	var status string
	err := r.pool.QueryRow(ctx, query, userID, term).Scan(
		&sub.ID,
		&sub.UserID,
		&status,
		&sub.StartsAt,
		&sub.EndsAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("extend subscription: %w", err)
	}

	sub.Status = model.SubscriptionStatus(status)
	return &sub, nil
}

// GetActiveSubscription retrieves the user's current active row.
// When historical data holds several active rows, the one ending last
// wins.
func (r *Repository) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	query := `
		SELECT id, user_id, status, starts_at, ends_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY ends_at DESC
		LIMIT 1
	`

	var sub model.Subscription
	var status string
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&status,
		&sub.StartsAt,
		&sub.EndsAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("get active subscription: %w", err)
	}

	sub.Status = model.SubscriptionStatus(status)
	return &sub, nil
}

// ExpireDueSubscriptions marks the user's active rows whose end has
// passed as expired. Acts only on rows already past expiry, so
// repeated calls are no-ops. Returns the number of rows flipped.
func (r *Repository) ExpireDueSubscriptions(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions
		SET status = 'expired', updated_at = now()
		WHERE user_id = $1 AND status = 'active' AND ends_at < now()
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireAllDueSubscriptions is the bulk sweep across all users.
func (r *Repository) ExpireAllDueSubscriptions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions
		SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND ends_at < now()
	`)
	if err != nil {
		return 0, fmt.Errorf("expire all subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}

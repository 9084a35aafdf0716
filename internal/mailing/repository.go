package mailing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/solidario/solidario/internal/model"
)

// Repository handles mailing delivery queue persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new mailing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateDelivery queues a new delivery.
func (r *Repository) CreateDelivery(ctx context.Context, d *model.MailingDelivery) error {
	query := `
		INSERT INTO mailing_deliveries (
			id, email, name, group_id, status, attempt_count,
			max_attempts, next_retry_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Email,
		d.Name,
		d.GroupID,
		string(d.Status),
		d.AttemptCount,
		d.MaxAttempts,
		d.NextRetryAt,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mailing delivery: %w", err)
	}
	return nil
}

// GetPendingDeliveries fetches deliveries that are due for an attempt.
func (r *Repository) GetPendingDeliveries(ctx context.Context, limit int) ([]*model.MailingDelivery, error) {
	query := `
		SELECT id, email, name, group_id, status, attempt_count,
			   max_attempts, next_retry_at, last_error, created_at, updated_at
		FROM mailing_deliveries
		WHERE status IN ('pending', 'failed') AND next_retry_at <= now()
		ORDER BY next_retry_at
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*model.MailingDelivery
	for rows.Next() {
		var d model.MailingDelivery
		var status string
		if err := rows.Scan(
			&d.ID,
			&d.Email,
			&d.Name,
			&d.GroupID,
			&status,
			&d.AttemptCount,
			&d.MaxAttempts,
			&d.NextRetryAt,
			&d.LastError,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan mailing delivery: %w", err)
		}
		d.Status = model.DeliveryStatus(status)
		deliveries = append(deliveries, &d)
	}

	return deliveries, rows.Err()
}

// UpdateDeliverySuccess marks a delivery as delivered.
func (r *Repository) UpdateDeliverySuccess(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE mailing_deliveries
		SET status = 'success', attempt_count = attempt_count + 1,
			last_error = '', updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark delivery success: %w", err)
	}
	return nil
}

// UpdateDeliveryFailure records a failed attempt and schedules the
// next retry, or marks the delivery exhausted.
func (r *Repository) UpdateDeliveryFailure(ctx context.Context, id, lastError string, nextRetryAt time.Time, exhausted bool) error {
	status := string(model.DeliveryStatusFailed)
	if exhausted {
		status = string(model.DeliveryStatusExhausted)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE mailing_deliveries
		SET status = $2, attempt_count = attempt_count + 1,
			last_error = $3, next_retry_at = $4, updated_at = now()
		WHERE id = $1
	`, id, status, lastError, nextRetryAt)
	if err != nil {
		return fmt.Errorf("mark delivery failure: %w", err)
	}
	return nil
}

// GetQueueDepth returns the number of deliveries awaiting an attempt.
func (r *Repository) GetQueueDepth(ctx context.Context) (int64, error) {
	var depth int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM mailing_deliveries WHERE status IN ('pending', 'failed')
	`).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("query queue depth: %w", err)
	}
	return depth, nil
}

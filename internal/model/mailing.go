// Package model defines domain entities for the application.
package model

import "time"

// DeliveryStatus represents the state of a mailing-list delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSuccess   DeliveryStatus = "success"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusExhausted DeliveryStatus = "exhausted"
)

// MailingDelivery is one queued push of a subscriber to the mailing
// provider. Registration enqueues it after the core transaction
// commits; a background worker drains the queue.
type MailingDelivery struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name,omitempty"`
	GroupID      string         `json:"group_id,omitempty"`
	Status       DeliveryStatus `json:"status"`
	AttemptCount int            `json:"attempt_count"`
	MaxAttempts  int            `json:"max_attempts"`
	NextRetryAt  time.Time      `json:"next_retry_at"`
	LastError    string         `json:"last_error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CanRetry returns true if the delivery can be attempted again.
func (d *MailingDelivery) CanRetry() bool {
	return d.Status == DeliveryStatusFailed && d.AttemptCount < d.MaxAttempts
}

// IsTerminal returns true if the delivery is in a terminal state.
func (d *MailingDelivery) IsTerminal() bool {
	return d.Status == DeliveryStatusSuccess || d.Status == DeliveryStatusExhausted
}

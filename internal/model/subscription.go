// Package model defines domain entities for the application.
package model

import "time"

// SubscriptionStatus represents the stored state of a subscription row.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription is one validity window for a user. Renewal extends
// EndsAt of the active row; historical rows are kept as-is.
type Subscription struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Status    SubscriptionStatus `json:"status"`
	StartsAt  time.Time          `json:"starts_at"`
	EndsAt    time.Time          `json:"ends_at"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// IsDue returns true if an active row has passed its end timestamp
// and should be picked up by the expiry sweep.
func (s *Subscription) IsDue(now time.Time) bool {
	return s.Status == SubscriptionActive && now.After(s.EndsAt)
}

// RemainingAt returns how much validity is left at the given time.
// Zero or negative means the window has closed.
func (s *Subscription) RemainingAt(now time.Time) time.Duration {
	return s.EndsAt.Sub(now)
}

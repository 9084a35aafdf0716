// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Registration metrics
	IncUserRegistered(sponsored bool)
	IncBonusCredited(category string)

	// Payment metrics
	IncPaymentClaim(outcome string) // outcome: "confirmed", "rejected", "invalid", "duplicate", "unavailable"
	ObserveVerifyDuration(duration time.Duration)

	// Subscription metrics
	IncSubscriptionEvent(event string) // event: "activated", "renewed", "expired"

	// Mailing pipeline metrics
	IncMailingDelivery(status string) // status: "success", "failed", "exhausted", "dropped"
	SetMailingQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot is a point-in-time view of the in-memory counters.
type Snapshot struct {
	UsersRegistered   map[string]int64 `json:"users_registered"`  // keyed "sponsored"/"direct"
	BonusesCredited   map[string]int64 `json:"bonuses_credited"`  // keyed by category
	PaymentClaims     map[string]int64 `json:"payment_claims"`    // keyed by outcome
	SubscriptionEvents map[string]int64 `json:"subscription_events"`
	MailingDeliveries map[string]int64 `json:"mailing_deliveries"`
	MailingQueueDepth int64            `json:"mailing_queue_depth"`
}

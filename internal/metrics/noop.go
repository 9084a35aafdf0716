package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered(sponsored bool) {}

// IncBonusCredited is a no-op.
func (n *NoopRecorder) IncBonusCredited(category string) {}

// IncPaymentClaim is a no-op.
func (n *NoopRecorder) IncPaymentClaim(outcome string) {}

// ObserveVerifyDuration is a no-op.
func (n *NoopRecorder) ObserveVerifyDuration(duration time.Duration) {}

// IncSubscriptionEvent is a no-op.
func (n *NoopRecorder) IncSubscriptionEvent(event string) {}

// IncMailingDelivery is a no-op.
func (n *NoopRecorder) IncMailingDelivery(status string) {}

// SetMailingQueueDepth is a no-op.
func (n *NoopRecorder) SetMailingQueueDepth(depth int64) {}

package metrics

import (
	"sync"
	"time"
)

// InMemoryRecorder keeps counters in process memory.
// Useful for tests and the debug snapshot endpoint.
type InMemoryRecorder struct {
	mu sync.Mutex

	usersRegistered    map[string]int64
	bonusesCredited    map[string]int64
	paymentClaims      map[string]int64
	subscriptionEvents map[string]int64
	mailingDeliveries  map[string]int64
	mailingQueueDepth  int64
	verifyDurations    []time.Duration
}

// NewInMemory returns a Recorder that accumulates counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		usersRegistered:    make(map[string]int64),
		bonusesCredited:    make(map[string]int64),
		paymentClaims:      make(map[string]int64),
		subscriptionEvents: make(map[string]int64),
		mailingDeliveries:  make(map[string]int64),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered(sponsored bool) {
	key := "direct"
	if sponsored {
		key = "sponsored"
	}
	m.mu.Lock()
	m.usersRegistered[key]++
	m.mu.Unlock()
}

// IncBonusCredited increments the bonus counter for a category.
func (m *InMemoryRecorder) IncBonusCredited(category string) {
	m.mu.Lock()
	m.bonusesCredited[category]++
	m.mu.Unlock()
}

// IncPaymentClaim increments the payment claim counter for an outcome.
func (m *InMemoryRecorder) IncPaymentClaim(outcome string) {
	m.mu.Lock()
	m.paymentClaims[outcome]++
	m.mu.Unlock()
}

// ObserveVerifyDuration records one oracle round trip.
func (m *InMemoryRecorder) ObserveVerifyDuration(duration time.Duration) {
	m.mu.Lock()
	m.verifyDurations = append(m.verifyDurations, duration)
	m.mu.Unlock()
}

// IncSubscriptionEvent increments the subscription event counter.
func (m *InMemoryRecorder) IncSubscriptionEvent(event string) {
	m.mu.Lock()
	m.subscriptionEvents[event]++
	m.mu.Unlock()
}

// IncMailingDelivery increments the mailing delivery counter.
func (m *InMemoryRecorder) IncMailingDelivery(status string) {
	m.mu.Lock()
	m.mailingDeliveries[status]++
	m.mu.Unlock()
}

// SetMailingQueueDepth records the current queue depth.
func (m *InMemoryRecorder) SetMailingQueueDepth(depth int64) {
	m.mu.Lock()
	m.mailingQueueDepth = depth
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		UsersRegistered:    copyMap(m.usersRegistered),
		BonusesCredited:    copyMap(m.bonusesCredited),
		PaymentClaims:      copyMap(m.paymentClaims),
		SubscriptionEvents: copyMap(m.subscriptionEvents),
		MailingDeliveries:  copyMap(m.mailingDeliveries),
		MailingQueueDepth:  m.mailingQueueDepth,
	}
}

func copyMap(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

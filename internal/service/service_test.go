package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

// fakeStore is an in-memory stand-in for the repository, shared by the
// service tests.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	referrals []*model.ReferralLink
	entries   []*model.LedgerEntry
	subs      map[string]*model.Subscription

	registerErr error
	entryErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*model.User),
		subs:  make(map[string]*model.Subscription),
	}
}

func (f *fakeStore) addUser(id, name, email string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{ID: id, Name: name, Email: email, CreatedAt: time.Now()}
	f.users[id] = u
	return u
}

func (f *fakeStore) RegisterUser(_ context.Context, user *model.User, referral *model.ReferralLink, entries []*model.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	f.users[user.ID] = user
	if referral != nil {
		f.referrals = append(f.referrals, referral)
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) UserExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeStore) CreateLedgerEntry(_ context.Context, entry *model.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entryErr != nil {
		return f.entryErr
	}
	if entry.TxHash != "" {
		for _, e := range f.entries {
			if e.TxHash == entry.TxHash {
				return repository.ErrTxAlreadyClaimed
			}
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeStore) ListLedgerEntriesByUser(_ context.Context, userID string) ([]*model.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.LedgerEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) CreateSubscription(_ context.Context, sub *model.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[sub.ID] = sub
	return nil
}

func (f *fakeStore) ExtendActiveSubscription(_ context.Context, userID string, term time.Duration) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.Subscription
	for _, s := range f.subs {
		if s.UserID == userID && s.Status == model.SubscriptionActive {
			if best == nil || s.EndsAt.After(best.EndsAt) {
				best = s
			}
		}
	}
	if best == nil {
		return nil, repository.ErrNoActiveSubscription
	}
	best.EndsAt = best.EndsAt.Add(term)
	best.UpdatedAt = time.Now()
	return best, nil
}

func (f *fakeStore) GetActiveSubscription(_ context.Context, userID string) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.Subscription
	for _, s := range f.subs {
		if s.UserID == userID && s.Status == model.SubscriptionActive {
			if best == nil || s.EndsAt.After(best.EndsAt) {
				best = s
			}
		}
	}
	if best == nil {
		return nil, repository.ErrNoActiveSubscription
	}
	return best, nil
}

func (f *fakeStore) ExpireDueSubscriptions(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for _, s := range f.subs {
		if s.UserID == userID && s.Status == model.SubscriptionActive && s.EndsAt.Before(now) {
			s.Status = model.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ExpireAllDueSubscriptions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for _, s := range f.subs {
		if s.Status == model.SubscriptionActive && s.EndsAt.Before(now) {
			s.Status = model.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

// fakeVerifier returns a canned verdict or error.
type fakeVerifier struct {
	state model.ConfirmationState
	err   error
	calls int
}

func (v *fakeVerifier) Verify(_ context.Context, _ string) (model.ConfirmationState, error) {
	v.calls++
	if v.err != nil {
		return "", v.err
	}
	return v.state, nil
}

// fakeQueue records enqueued subscribers.
type fakeQueue struct {
	mu     sync.Mutex
	emails []string
}

func (q *fakeQueue) EnqueueSubscriber(_ context.Context, email, _ string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.emails = append(q.emails, email)
}

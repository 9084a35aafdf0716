package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

const testTerm = 720 * time.Hour

func newSubscriptionService(store *fakeStore) *SubscriptionService {
	return NewSubscriptionService(store, nil, testTerm, testLogger(), nil)
}

func TestActivateOpensWindow(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	svc := newSubscriptionService(store)

	sub, err := svc.Activate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}

	if sub.Status != model.SubscriptionActive {
		t.Errorf("status = %s, want active", sub.Status)
	}
	got := sub.EndsAt.Sub(sub.StartsAt)
	if got != testTerm {
		t.Errorf("window length = %v, want %v", got, testTerm)
	}
}

func TestRenewExtendsByOneTerm(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	svc := newSubscriptionService(store)

	sub, err := svc.Activate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	origEnd := sub.EndsAt

	renewed, err := svc.Renew(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}

	if got := renewed.EndsAt.Sub(origEnd); got != testTerm {
		t.Errorf("renewal extended by %v, want %v", got, testTerm)
	}
}

func TestRenewWithoutActiveSubscription(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	svc := newSubscriptionService(store)

	_, err := svc.Renew(context.Background(), "u1")
	if !errors.Is(err, repository.ErrNoActiveSubscription) {
		t.Errorf("err = %v, want ErrNoActiveSubscription", err)
	}
}

func TestSubscriptionUnknownUser(t *testing.T) {
	svc := newSubscriptionService(newFakeStore())

	if _, err := svc.Activate(context.Background(), "ghost"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("Activate err = %v, want ErrUserNotFound", err)
	}
	if _, err := svc.Status(context.Background(), "ghost"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("Status err = %v, want ErrUserNotFound", err)
	}
}

func TestExpireDueIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	svc := newSubscriptionService(store)

	// Seed an overdue window directly.
	past := time.Now().Add(-48 * time.Hour)
	store.subs["s1"] = &model.Subscription{
		ID:       "s1",
		UserID:   "u1",
		Status:   model.SubscriptionActive,
		StartsAt: past.Add(-testTerm),
		EndsAt:   past,
	}

	n, err := svc.ExpireDue(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if n != 1 {
		t.Errorf("first sweep expired %d, want 1", n)
	}

	n, err = svc.ExpireDue(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ExpireDue second run: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep expired %d, want 0", n)
	}

	if store.subs["s1"].Status != model.SubscriptionExpired {
		t.Error("overdue subscription not marked expired")
	}
}

func TestExpireAllDueSweepsEveryUser(t *testing.T) {
	store := newFakeStore()
	svc := newSubscriptionService(store)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	store.subs["s1"] = &model.Subscription{ID: "s1", UserID: "u1", Status: model.SubscriptionActive, EndsAt: past}
	store.subs["s2"] = &model.Subscription{ID: "s2", UserID: "u2", Status: model.SubscriptionActive, EndsAt: past}
	store.subs["s3"] = &model.Subscription{ID: "s3", UserID: "u3", Status: model.SubscriptionActive, EndsAt: future}

	n, err := svc.ExpireAllDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireAllDue: %v", err)
	}
	if n != 2 {
		t.Errorf("expired %d, want 2", n)
	}
	if store.subs["s3"].Status != model.SubscriptionActive {
		t.Error("future subscription was expired")
	}
}

func TestStatusReturnsLatestActiveWindow(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	svc := newSubscriptionService(store)

	if _, err := svc.Activate(context.Background(), "u1"); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	sub, err := svc.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if sub.Status != model.SubscriptionActive {
		t.Errorf("status = %s, want active", sub.Status)
	}
}

func TestStatusNoActiveSubscription(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	svc := newSubscriptionService(store)

	_, err := svc.Status(context.Background(), "u1")
	if !errors.Is(err, repository.ErrNoActiveSubscription) {
		t.Errorf("err = %v, want ErrNoActiveSubscription", err)
	}
}

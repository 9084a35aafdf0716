package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBonusPolicy() BonusPolicy {
	return BonusPolicy{
		DirectBonus:    1000,
		HouseBonus:     500,
		HouseAccountID: "house",
	}
}

func newRegistrationService(store *fakeStore, queue SubscriberQueue) *RegistrationService {
	return NewRegistrationService(store, testBonusPolicy(), queue, testLogger(), nil)
}

func TestRegisterWithSponsor(t *testing.T) {
	store := newFakeStore()
	store.addUser("house", "House", "house@solidario.example")
	store.addUser("sponsor1", "Ana", "ana@example.org")

	svc := newRegistrationService(store, nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:      "Luis",
		Email:     "luis@example.org",
		SponsorID: "sponsor1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !user.HasSponsor() || *user.SponsorID != "sponsor1" {
		t.Errorf("user sponsor = %v, want sponsor1", user.SponsorID)
	}

	if len(store.referrals) != 1 {
		t.Fatalf("referrals = %d, want 1", len(store.referrals))
	}
	ref := store.referrals[0]
	if ref.SponsorID != "sponsor1" || ref.ReferredID != user.ID {
		t.Errorf("referral link = %+v", ref)
	}

	if len(store.entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(store.entries))
	}

	byCategory := map[model.EntryCategory]*model.LedgerEntry{}
	for _, e := range store.entries {
		byCategory[e.Category] = e
	}

	direct := byCategory[model.CategoryDirectReferralBonus]
	if direct == nil || direct.UserID != "sponsor1" || direct.Amount != 1000 {
		t.Errorf("direct bonus entry = %+v", direct)
	}
	house := byCategory[model.CategoryHouseBonus]
	if house == nil || house.UserID != "house" || house.Amount != 500 {
		t.Errorf("house bonus entry = %+v", house)
	}
}

func TestRegisterWithoutSponsor(t *testing.T) {
	store := newFakeStore()
	svc := newRegistrationService(store, nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Luis",
		Email: "luis@example.org",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.HasSponsor() {
		t.Error("unsponsored user has a sponsor")
	}
	if len(store.referrals) != 0 {
		t.Errorf("referrals = %d, want 0", len(store.referrals))
	}
	if len(store.entries) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(store.entries))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")

	svc := newRegistrationService(store, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Luis Again",
		Email: "luis@example.org",
	})
	if !errors.Is(err, repository.ErrEmailExists) {
		t.Errorf("err = %v, want ErrEmailExists", err)
	}
	if len(store.users) != 1 {
		t.Errorf("users = %d, want 1", len(store.users))
	}
}

func TestRegisterUnknownSponsor(t *testing.T) {
	store := newFakeStore()
	svc := newRegistrationService(store, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:      "Luis",
		Email:     "luis@example.org",
		SponsorID: "nope",
	})
	if !errors.Is(err, repository.ErrSponsorNotFound) {
		t.Errorf("err = %v, want ErrSponsorNotFound", err)
	}
	if len(store.users) != 0 || len(store.entries) != 0 {
		t.Error("failed registration left rows behind")
	}
}

func TestRegisterSelfSponsor(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")

	svc := newRegistrationService(store, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:      "Luis",
		Email:     "Luis@Example.org",
		SponsorID: "u1",
	})
	if !errors.Is(err, ErrSelfSponsor) {
		t.Errorf("err = %v, want ErrSelfSponsor", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	store := newFakeStore()
	svc := newRegistrationService(store, nil)

	cases := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"empty name", RegisterInput{Name: "  ", Email: "a@b.example"}, ErrNameRequired},
		{"empty email", RegisterInput{Name: "Luis", Email: ""}, ErrInvalidEmail},
		{"malformed email", RegisterInput{Name: "Luis", Email: "not-an-email"}, ErrInvalidEmail},
		{"email with display name", RegisterInput{Name: "Luis", Email: "Luis <luis@example.org>"}, ErrInvalidEmail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.input); !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRegisterEnqueuesMailingSubscriber(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := newRegistrationService(store, queue)

	if _, err := svc.Register(context.Background(), RegisterInput{Name: "Luis", Email: "luis@example.org"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if len(queue.emails) != 1 || queue.emails[0] != "luis@example.org" {
		t.Errorf("enqueued emails = %v", queue.emails)
	}
}

func TestRegisterFailureSkipsMailing(t *testing.T) {
	store := newFakeStore()
	store.registerErr = errors.New("db down")
	queue := &fakeQueue{}
	svc := newRegistrationService(store, queue)

	if _, err := svc.Register(context.Background(), RegisterInput{Name: "Luis", Email: "luis@example.org"}); err == nil {
		t.Fatal("expected error")
	}

	if len(queue.emails) != 0 {
		t.Errorf("mailing enqueued despite failed registration: %v", queue.emails)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	store := newFakeStore()
	svc := newRegistrationService(store, nil)

	user, err := svc.Register(context.Background(), RegisterInput{Name: "Luis", Email: "  LUIS@Example.ORG "})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "luis@example.org" {
		t.Errorf("email = %q, want lowercased trimmed form", user.Email)
	}
}

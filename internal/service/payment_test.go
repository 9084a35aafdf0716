package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solidario/solidario/internal/chain"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

func testPaymentPolicy() PaymentPolicy {
	return PaymentPolicy{Denominations: []model.Amount{500, 1000}}
}

func newPaymentService(store *fakeStore, verifier chain.Verifier) *PaymentService {
	return NewPaymentService(store, verifier, testPaymentPolicy(), testLogger(), nil)
}

func TestClaimConfirmed(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	verifier := &fakeVerifier{state: model.ConfirmationConfirmed}

	svc := newPaymentService(store, verifier)

	entry, err := svc.Claim(context.Background(), ClaimInput{
		UserID: "u1",
		Amount: 1000,
		TxHash: "0xabc123",
	})
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if !entry.IsConfirmed() {
		t.Error("entry not confirmed")
	}
	if entry.Category != model.CategoryBlockchainPayment {
		t.Errorf("category = %s", entry.Category)
	}
	if len(store.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(store.entries))
	}
}

func TestClaimRejectedStillRecorded(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	verifier := &fakeVerifier{state: model.ConfirmationRejected}

	svc := newPaymentService(store, verifier)

	entry, err := svc.Claim(context.Background(), ClaimInput{
		UserID: "u1",
		Amount: 500,
		TxHash: "0xdef456",
	})
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if entry.IsConfirmed() {
		t.Error("rejected entry reported confirmed")
	}
	if len(store.entries) != 1 {
		t.Errorf("entries = %d, want 1 (rejections are recorded too)", len(store.entries))
	}
}

func TestClaimInvalidAmountSkipsOracle(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	verifier := &fakeVerifier{state: model.ConfirmationConfirmed}

	svc := newPaymentService(store, verifier)

	_, err := svc.Claim(context.Background(), ClaimInput{
		UserID: "u1",
		Amount: 700,
		TxHash: "0xabc",
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
	if verifier.calls != 0 {
		t.Errorf("oracle called %d times for invalid amount, want 0", verifier.calls)
	}
	if len(store.entries) != 0 {
		t.Errorf("entries = %d, want 0", len(store.entries))
	}
}

func TestClaimVerificationUnavailable(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	verifier := &fakeVerifier{err: chain.ErrUnavailable}

	svc := newPaymentService(store, verifier)

	_, err := svc.Claim(context.Background(), ClaimInput{
		UserID: "u1",
		Amount: 1000,
		TxHash: "0xabc",
	})
	if !errors.Is(err, chain.ErrUnavailable) {
		t.Errorf("err = %v, want chain.ErrUnavailable", err)
	}
	if len(store.entries) != 0 {
		t.Errorf("entries = %d, want 0 (outage leaves no trace)", len(store.entries))
	}

	// The same claim succeeds once the oracle is back.
	verifier.err = nil
	verifier.state = model.ConfirmationConfirmed
	if _, err := svc.Claim(context.Background(), ClaimInput{UserID: "u1", Amount: 1000, TxHash: "0xabc"}); err != nil {
		t.Errorf("retry after outage failed: %v", err)
	}
}

func TestClaimUnknownUser(t *testing.T) {
	store := newFakeStore()
	verifier := &fakeVerifier{state: model.ConfirmationConfirmed}
	svc := newPaymentService(store, verifier)

	_, err := svc.Claim(context.Background(), ClaimInput{UserID: "ghost", Amount: 1000, TxHash: "0xabc"})
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
	if verifier.calls != 0 {
		t.Error("oracle called for unknown user")
	}
}

func TestClaimDuplicateTxHash(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	verifier := &fakeVerifier{state: model.ConfirmationConfirmed}
	svc := newPaymentService(store, verifier)

	if _, err := svc.Claim(context.Background(), ClaimInput{UserID: "u1", Amount: 1000, TxHash: "0xsame"}); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	_, err := svc.Claim(context.Background(), ClaimInput{UserID: "u1", Amount: 1000, TxHash: "0xsame"})
	if !errors.Is(err, repository.ErrTxAlreadyClaimed) {
		t.Errorf("err = %v, want ErrTxAlreadyClaimed", err)
	}
	if len(store.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(store.entries))
	}
}

func TestClaimMissingTxHash(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")
	svc := newPaymentService(store, &fakeVerifier{})

	_, err := svc.Claim(context.Background(), ClaimInput{UserID: "u1", Amount: 1000, TxHash: "   "})
	if !errors.Is(err, ErrInvalidTxHash) {
		t.Errorf("err = %v, want ErrInvalidTxHash", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Luis", "luis@example.org")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		store.entries = append(store.entries, &model.LedgerEntry{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Amount:    1000,
			Category:  model.CategoryBlockchainPayment,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	svc := newPaymentService(store, &fakeVerifier{})

	entries, err := svc.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Errorf("history not in newest-first order at index %d", i)
		}
	}
}

func TestHistoryUnknownUser(t *testing.T) {
	svc := newPaymentService(newFakeStore(), &fakeVerifier{})

	if _, err := svc.History(context.Background(), "ghost"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/solidario/solidario/internal/chain"
	"github.com/solidario/solidario/internal/metrics"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

// Payment service errors.
var (
	ErrInvalidAmount = errors.New("amount is not an accepted denomination")
	ErrInvalidTxHash = errors.New("transaction hash is required")
)

const maxTxHashLength = 128

// paymentStore is the subset of the repository the payment service
// depends on.
type paymentStore interface {
	CreateLedgerEntry(ctx context.Context, entry *model.LedgerEntry) error
	ListLedgerEntriesByUser(ctx context.Context, userID string) ([]*model.LedgerEntry, error)
	UserExists(ctx context.Context, id string) (bool, error)
}

// PaymentService verifies blockchain payment claims against the block
// explorer and records the outcome in the ledger.
type PaymentService struct {
	store    paymentStore
	verifier chain.Verifier
	policy   PaymentPolicy
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store paymentStore, verifier chain.Verifier, policy PaymentPolicy, logger *slog.Logger, recorder metrics.Recorder) *PaymentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PaymentService{
		store:    store,
		verifier: verifier,
		policy:   policy,
		logger:   logger.With("component", "payment"),
		metrics:  recorder,
	}
}

// ClaimInput defines input for claiming a payment.
type ClaimInput struct {
	UserID string
	Amount model.Amount
	TxHash string
}

// Claim records a payment claim. The amount is checked against the
// accepted denominations before the explorer is consulted: a rejected
// denomination never reaches the oracle and never writes a ledger row.
// Both confirmed and rejected verdicts are recorded permanently; only
// a verification outage (chain.ErrUnavailable) leaves no trace, so the
// caller can retry the same claim later.
func (s *PaymentService) Claim(ctx context.Context, input ClaimInput) (*model.LedgerEntry, error) {
	txHash := strings.TrimSpace(input.TxHash)
	if txHash == "" || len(txHash) > maxTxHashLength {
		return nil, ErrInvalidTxHash
	}

	if !s.policy.Allows(input.Amount) {
		return nil, ErrInvalidAmount
	}

	exists, err := s.store.UserExists(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, repository.ErrUserNotFound
	}

	start := time.Now()
	state, err := s.verifier.Verify(ctx, txHash)
	s.metrics.ObserveVerifyDuration(time.Since(start))
	if err != nil {
		if errors.Is(err, chain.ErrUnavailable) {
			s.metrics.IncPaymentClaim("unavailable")
			s.logger.Warn("payment verification unavailable",
				slog.String("user_id", input.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	entry := &model.LedgerEntry{
		ID:           ulid.Make().String(),
		UserID:       input.UserID,
		Amount:       input.Amount,
		Category:     model.CategoryBlockchainPayment,
		TxHash:       txHash,
		Confirmation: &state,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateLedgerEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.metrics.IncPaymentClaim(string(state))
	s.logger.Info("payment claim recorded",
		slog.String("user_id", input.UserID),
		slog.String("entry_id", entry.ID),
		slog.String("confirmation", string(state)),
	)

	return entry, nil
}

// History returns the user's ledger entries, newest first.
func (s *PaymentService) History(ctx context.Context, userID string) ([]*model.LedgerEntry, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return s.store.ListLedgerEntriesByUser(ctx, userID)
}

package chain

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/solidario/solidario/internal/model"
)

// ErrUnavailable indicates the oracle could not be reached or gave no
// usable answer. Distinct from a rejected determination: callers may
// retry the whole claim later.
var ErrUnavailable = errors.New("verification unavailable")

// Oracle status values. Anything other than a definitive success maps
// to rejected; there is no intermediate pending state on our side.
const (
	StatusSuccess  = "success"
	StatusPending  = "pending"
	StatusFailed   = "failed"
	StatusNotFound = "not_found"
)

// Verifier resolves a claimed transaction hash to a confirmation state.
type Verifier interface {
	Verify(ctx context.Context, txHash string) (model.ConfirmationState, error)
}

// HTTPVerifier verifies transactions through the block-explorer oracle.
type HTTPVerifier struct {
	client *Client
	logger *slog.Logger
}

// NewHTTPVerifier creates a Verifier backed by the oracle client.
func NewHTTPVerifier(client *Client, logger *slog.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		client: client,
		logger: logger.With("component", "chain.verifier"),
	}
}

// Verify queries the oracle and maps its reported status.
// Definitive success confirms the payment; failed, pending and unknown
// hashes are all rejected. Transport failures surface as
// ErrUnavailable so the caller can retry instead of recording a
// misleading rejection.
func (v *HTTPVerifier) Verify(ctx context.Context, txHash string) (model.ConfirmationState, error) {
	status, err := v.client.GetTransaction(ctx, txHash)
	if err != nil {
		v.logger.Warn("oracle lookup failed",
			"tx_hash", txHash,
			"error", err,
		)
		return "", err
	}

	state := mapStatus(status.Status)
	v.logger.Info("transaction verified",
		"tx_hash", txHash,
		"oracle_status", status.Status,
		"confirmation", string(state),
	)
	return state, nil
}

// mapStatus translates an oracle status field to a confirmation state.
func mapStatus(status string) model.ConfirmationState {
	if strings.EqualFold(status, StatusSuccess) {
		return model.ConfirmationConfirmed
	}
	return model.ConfirmationRejected
}

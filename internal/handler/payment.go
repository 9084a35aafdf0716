package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solidario/solidario/internal/chain"
	"github.com/solidario/solidario/internal/handler/dto"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
	"github.com/solidario/solidario/internal/service"
)

// retryAfterUnavailable is the Retry-After hint returned when the
// block explorer cannot be reached.
const retryAfterUnavailable = "30"

// PaymentHandler handles HTTP requests for payment claims and history.
type PaymentHandler struct {
	svc    *service.PaymentService
	logger *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, logger: logger}
}

// Claim handles POST /api/v1/payments.
func (h *PaymentHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req dto.ClaimPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "user_id is required")
		return
	}

	entry, err := h.svc.Claim(r.Context(), service.ClaimInput{
		UserID: req.UserID,
		Amount: model.Amount(req.AmountCents),
		TxHash: req.TxHash,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToPaymentResponse(entry))
}

// History handles GET /api/v1/users/{id}/payments.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	entries, err := h.svc.History(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPaymentListResponse(entries))
}

func (h *PaymentHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_AMOUNT", "Amount is not an accepted denomination")
	case errors.Is(err, service.ErrInvalidTxHash):
		writeError(w, http.StatusBadRequest, "INVALID_TX_HASH", "Transaction hash is required")
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, repository.ErrTxAlreadyClaimed):
		writeError(w, http.StatusConflict, "TX_CLAIMED", "Transaction hash already claimed")
	case errors.Is(err, chain.ErrUnavailable):
		w.Header().Set("Retry-After", retryAfterUnavailable)
		writeError(w, http.StatusServiceUnavailable, "VERIFICATION_UNAVAILABLE", "Payment verification is temporarily unavailable, retry later")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solidario/solidario/internal/handler/dto"
	"github.com/solidario/solidario/internal/repository"
	"github.com/solidario/solidario/internal/service"
)

// SubscriptionHandler handles HTTP requests for subscription windows.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger}
}

// Activate handles POST /api/v1/users/{id}/subscription.
func (h *SubscriptionHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	sub, err := h.svc.Activate(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToSubscriptionResponse(sub, time.Now()))
}

// Renew handles POST /api/v1/users/{id}/subscription/renew.
func (h *SubscriptionHandler) Renew(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	sub, err := h.svc.Renew(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub, time.Now()))
}

// Status handles GET /api/v1/users/{id}/subscription.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	sub, err := h.svc.Status(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub, time.Now()))
}

// ExpireAll handles POST /api/v1/admin/subscriptions/expire.
func (h *SubscriptionHandler) ExpireAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ExpireAllDue(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpireSweepResponse{Expired: n})
}

func (h *SubscriptionHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, repository.ErrNoActiveSubscription):
		writeError(w, http.StatusNotFound, "NO_ACTIVE_SUBSCRIPTION", "User has no active subscription")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

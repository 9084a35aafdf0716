package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solidario/solidario/internal/handler/dto"
	"github.com/solidario/solidario/internal/repository"
	"github.com/solidario/solidario/internal/service"
)

// UserHandler handles HTTP requests for user enrollment.
type UserHandler struct {
	svc    *service.RegistrationService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.RegistrationService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Register handles POST /api/v1/users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		SponsorID: req.SponsorID,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "NAME_REQUIRED", "Name is required")
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrSelfSponsor):
		writeError(w, http.StatusUnprocessableEntity, "SELF_SPONSOR", "A user cannot sponsor themselves")
	case errors.Is(err, repository.ErrSponsorNotFound):
		writeError(w, http.StatusUnprocessableEntity, "UNKNOWN_SPONSOR", "Sponsor does not exist")
	case errors.Is(err, repository.ErrEmailExists):
		writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered")
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/solidario/solidario/internal/auth"
	"github.com/solidario/solidario/internal/handler/dto"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(repo *repository.Repository, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{repo: repo, logger: logger}
}

// Create handles POST /api/v1/api-keys. The plaintext key appears in
// the response exactly once and is never stored.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if len(req.Scopes) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_SCOPES", "At least one scope is required")
		return
	}
	for _, s := range req.Scopes {
		if !slices.Contains(model.ValidScopes, s) {
			writeError(w, http.StatusBadRequest, "INVALID_SCOPE", "Unknown scope: "+s)
			return
		}
	}

	key, prefix, err := auth.GenerateKey()
	if err != nil {
		h.internalError(w, err)
		return
	}
	hash, err := auth.HashKey(key)
	if err != nil {
		h.internalError(w, err)
		return
	}

	var ownerID string
	if ac, ok := auth.FromContext(r.Context()); ok {
		ownerID = ac.UserID
	}

	apiKey := &model.APIKey{
		ID:        ulid.Make().String(),
		UserID:    ownerID,
		KeyHash:   hash,
		KeyPrefix: prefix,
		Scopes:    req.Scopes,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.repo.CreateAPIKey(r.Context(), apiKey); err != nil {
		h.internalError(w, err)
		return
	}

	h.logger.Info("api key created",
		slog.String("key_id", apiKey.ID),
		slog.String("key_prefix", apiKey.KeyPrefix),
	)

	writeJSON(w, http.StatusCreated, dto.CreateAPIKeyResponse{
		ID:        apiKey.ID,
		Name:      apiKey.Name,
		Key:       key,
		KeyPrefix: apiKey.KeyPrefix,
		Scopes:    apiKey.Scopes,
		CreatedAt: apiKey.CreatedAt,
	})
}

// Revoke handles DELETE /api/v1/api-keys/{id}.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Key ID is required")
		return
	}

	if err := h.repo.RevokeAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.logger.Info("api key revoked", slog.String("key_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIKeyHandler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error("internal_error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/solidario/solidario/internal/auth"
	"github.com/solidario/solidario/internal/cache"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

// minAuthDuration is the minimum time to spend on auth to prevent
// timing attacks.
const minAuthDuration = 200 * time.Millisecond

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
}

// Auth returns a middleware that authenticates API requests. It
// extracts the API key from the Authorization or X-API-Key header,
// verifies it against the stored hash, and injects the auth context
// into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			// Consistent timing regardless of outcome.
			defer func() {
				elapsed := time.Since(startTime)
				if elapsed < minAuthDuration {
					time.Sleep(minAuthDuration - elapsed)
				}
			}()

			key := extractAPIKey(r)
			if key == "" {
				logAuthFailure(cfg.Logger, r, "missing_key")
				writeAuthError(w)
				return
			}

			if !auth.ValidKeyFormat(key) {
				logAuthFailure(cfg.Logger, r, "invalid_format")
				writeAuthError(w)
				return
			}

			// Check cache first.
			cacheKey := auth.QuickHash(key)
			authCtx, _ := cfg.Cache.GetAuthContext(r.Context(), cacheKey)

			if authCtx == nil {
				var err error
				authCtx, err = lookupKey(cfg, r, key)
				if err != nil {
					cfg.Logger.Error("database error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeAuthError(w)
					return
				}
				if authCtx == nil {
					logAuthFailure(cfg.Logger, r, "invalid_key")
					writeAuthError(w)
					return
				}

				_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("key_prefix", authCtx.KeyPrefix),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.WithAuthContext(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookupKey resolves an API key against the database, verifying the
// presented secret against each candidate hash sharing the prefix.
func lookupKey(cfg AuthConfig, r *http.Request, key string) (*model.AuthContext, error) {
	keys, err := cfg.Repository.GetAPIKeysByPrefix(r.Context(), auth.KeyPrefix(key))
	if err != nil {
		return nil, err
	}

	var matched *model.APIKey
	for _, k := range keys {
		ok, err := auth.VerifyKey(key, k.KeyHash)
		if err != nil {
			continue
		}
		if ok {
			matched = k
			break
		}
	}
	if matched == nil {
		return nil, nil
	}

	// Update last_used_at off the request path.
	keyID := matched.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = cfg.Repository.UpdateAPIKeyLastUsed(ctx, keyID)
	}()

	return &model.AuthContext{
		KeyID:     matched.ID,
		KeyPrefix: matched.KeyPrefix,
		UserID:    matched.UserID,
		Scopes:    matched.Scopes,
	}, nil
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractAPIKey supports both "Authorization: Bearer <key>" and
// "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// writeAuthError uses the same message for all auth failures to
// prevent key enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing API key"}}`))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solidario/solidario/internal/auth"
	"github.com/solidario/solidario/internal/model"
)

func TestRequireScope(t *testing.T) {
	cases := []struct {
		name       string
		scopes     []string
		required   string
		wantStatus int
	}{
		{"read allows read", []string{model.ScopeRead}, model.ScopeRead, http.StatusOK},
		{"write allows write", []string{model.ScopeWrite}, model.ScopeWrite, http.StatusOK},
		{"admin allows read", []string{model.ScopeAdmin}, model.ScopeRead, http.StatusOK},
		{"admin allows admin", []string{model.ScopeAdmin}, model.ScopeAdmin, http.StatusOK},
		{"multiple scopes", []string{model.ScopeRead, model.ScopeWrite}, model.ScopeWrite, http.StatusOK},
		{"read denied write", []string{model.ScopeRead}, model.ScopeWrite, http.StatusForbidden},
		{"write denied admin", []string{model.ScopeWrite}, model.ScopeAdmin, http.StatusForbidden},
		{"no scopes denied", nil, model.ScopeRead, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireScope(tc.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			authCtx := &model.AuthContext{KeyID: "key1", Scopes: tc.scopes}
			req = req.WithContext(auth.WithAuthContext(req.Context(), authCtx))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestRequireScopeUnauthenticated(t *testing.T) {
	handler := RequireRead()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

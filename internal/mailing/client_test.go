package mailing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubscribe(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ml-key")
	status, err := client.Subscribe(context.Background(), "ana@example.com", "Ana", "group-7")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("expected 201, got %d", status)
	}

	if gotPath != "/api/subscribers" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer ml-key" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotBody["email"] != "ana@example.com" {
		t.Errorf("unexpected email %v", gotBody["email"])
	}
	groups, _ := gotBody["groups"].([]any)
	if len(groups) != 1 || groups[0] != "group-7" {
		t.Errorf("unexpected groups %v", gotBody["groups"])
	}
}

func TestSubscribe_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ml-key")
	status, err := client.Subscribe(context.Background(), "bad@example.com", "", "")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", status)
	}
}

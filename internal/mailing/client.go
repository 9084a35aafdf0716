// Package mailing pushes new registrations to the mailing-list
// provider. Deliveries are queued in the database and drained by a
// background worker; a provider outage never fails a registration.
package mailing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

// Client talks to the mailing-list provider API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a provider client with bounded timeouts.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: ClientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: ResponseHeaderTimeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// subscribeRequest is the provider's subscriber payload.
type subscribeRequest struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
	Groups []string          `json:"groups,omitempty"`
}

// Subscribe adds one subscriber to the configured group.
// Returns the provider's HTTP status and an error for non-2xx replies.
func (c *Client) Subscribe(ctx context.Context, email, name, groupID string) (int, error) {
	payload := subscribeRequest{Email: email}
	if name != "" {
		payload.Fields = map[string]string{"name": name}
	}
	if groupID != "" {
		payload.Groups = []string{groupID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal subscriber: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/subscribers", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("subscribe request: %w", err)
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Package chain verifies claimed blockchain transactions against an
// external block-explorer oracle.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// ClientTimeout is the total oracle request timeout.
	ClientTimeout = 10 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 5 * time.Second
)

// TransactionStatus is the oracle's view of a transaction.
type TransactionStatus struct {
	Hash          string `json:"hash"`
	Status        string `json:"status"`
	Confirmations int64  `json:"confirmations"`
	BlockHeight   int64  `json:"block_height"`
}

// Client is an HTTP client for the block-explorer oracle.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new oracle client with bounded timeouts.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = ClientTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
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

// GetTransaction fetches the oracle's status record for a hash.
// A 404 from the oracle is reported as a record with status
// "not_found" rather than an error: an unknown hash is a legitimate
// determination, not an outage.
func (c *Client) GetTransaction(ctx context.Context, txHash string) (*TransactionStatus, error) {
	reqURL := c.baseURL + "/v1/transactions/" + url.PathEscape(txHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &TransactionStatus{Hash: txHash, Status: StatusNotFound}, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: oracle returned HTTP %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("oracle rejected request: HTTP %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var status TransactionStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if status.Hash == "" {
		status.Hash = txHash
	}

	return &status, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/solidario/solidario/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RegisterUserRequest represents the request body for registering a user.
type RegisterUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	SponsorID string `json:"sponsor_id,omitempty"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	SponsorID *string   `json:"sponsor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse converts a User model to UserResponse.
func ToUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		SponsorID: u.SponsorID,
		CreatedAt: u.CreatedAt,
	}
}

// ClaimPaymentRequest represents the request body for claiming a
// blockchain payment.
type ClaimPaymentRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	TxHash      string `json:"tx_hash"`
}

// PaymentResponse represents a ledger entry in API responses.
type PaymentResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AmountCents  int64     `json:"amount_cents"`
	Amount       string    `json:"amount"`
	Category     string    `json:"category"`
	TxHash       string    `json:"tx_hash,omitempty"`
	Confirmation string    `json:"confirmation,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentListResponse represents a user's payment history.
type PaymentListResponse struct {
	Data []PaymentResponse `json:"data"`
}

// ToPaymentResponse converts a LedgerEntry to PaymentResponse.
func ToPaymentResponse(e *model.LedgerEntry) PaymentResponse {
	resp := PaymentResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		AmountCents: int64(e.Amount),
		Amount:      e.Amount.String(),
		Category:    string(e.Category),
		TxHash:      e.TxHash,
		CreatedAt:   e.CreatedAt,
	}
	if e.Confirmation != nil {
		resp.Confirmation = string(*e.Confirmation)
	}
	return resp
}

// ToPaymentListResponse converts ledger entries to a list response.
func ToPaymentListResponse(entries []*model.LedgerEntry) PaymentListResponse {
	data := make([]PaymentResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, ToPaymentResponse(e))
	}
	return PaymentListResponse{Data: data}
}

// SubscriptionResponse represents a subscription in API responses.
type SubscriptionResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Status           string    `json:"status"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

// ToSubscriptionResponse converts a Subscription model to its response.
func ToSubscriptionResponse(s *model.Subscription, now time.Time) *SubscriptionResponse {
	remaining := int64(s.RemainingAt(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &SubscriptionResponse{
		ID:               s.ID,
		UserID:           s.UserID,
		Status:           string(s.Status),
		StartsAt:         s.StartsAt,
		EndsAt:           s.EndsAt,
		RemainingSeconds: remaining,
	}
}

// ExpireSweepResponse reports the outcome of an expiry sweep.
type ExpireSweepResponse struct {
	Expired int64 `json:"expired"`
}

// CreateAPIKeyRequest represents the request body for creating an API key.
type CreateAPIKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// CreateAPIKeyResponse returns the newly created key. The plaintext
// key is shown exactly once.
type CreateAPIKeyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	KeyPrefix string    `json:"key_prefix"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
}

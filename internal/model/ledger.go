// Package model defines domain entities for the application.
package model

import (
	"fmt"
	"slices"
	"time"
)

// Amount is a monetary value in minor units (cents).
// Bonuses and payment denominations are whole-unit policy constants,
// but the ledger stores cents to avoid float arithmetic.
type Amount int64

// String formats the amount as units with two decimal places.
func (a Amount) String() string {
	neg := ""
	v := int64(a)
	if v < 0 {
		neg = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", neg, v/100, v%100)
}

// EntryCategory tags a ledger entry with the rule that produced it.
type EntryCategory string

const (
	CategoryDirectReferralBonus EntryCategory = "direct-referral-bonus"
	CategoryHouseBonus          EntryCategory = "house-bonus"
	CategoryBlockchainPayment   EntryCategory = "blockchain-payment"
)

// ValidCategories contains all valid entry categories.
var ValidCategories = []EntryCategory{
	CategoryDirectReferralBonus,
	CategoryHouseBonus,
	CategoryBlockchainPayment,
}

// IsValid checks if the category is one of the known values.
func (c EntryCategory) IsValid() bool {
	return slices.Contains(ValidCategories, c)
}

// ConfirmationState is the outcome of checking a claimed transaction
// against the block-explorer oracle. It is fixed at write time.
type ConfirmationState string

const (
	ConfirmationConfirmed ConfirmationState = "confirmed"
	ConfirmationRejected  ConfirmationState = "rejected"
)

// LedgerEntry is an immutable record of a monetary credit.
// TxHash and Confirmation are set only for blockchain payments.
type LedgerEntry struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Amount       Amount             `json:"amount_cents"`
	Category     EntryCategory      `json:"category"`
	TxHash       string             `json:"tx_hash,omitempty"`
	Confirmation *ConfirmationState `json:"confirmation,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// IsConfirmed returns true for a blockchain payment the oracle
// reported as successful.
func (e *LedgerEntry) IsConfirmed() bool {
	return e.Confirmation != nil && *e.Confirmation == ConfirmationConfirmed
}

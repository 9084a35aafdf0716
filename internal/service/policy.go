// Package service provides business logic for the application.
package service

import (
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/solidario/solidario/internal/model"
)

// BonusPolicy describes the fixed bonuses credited when a sponsored
// registration commits.
type BonusPolicy struct {
	// DirectBonus is credited to the sponsor.
	DirectBonus model.Amount
	// HouseBonus is credited to the house account.
	HouseBonus model.Amount
	// HouseAccountID is the user ID of the house account.
	HouseAccountID string
}

// EntriesForReferral builds the ledger entries a sponsored
// registration produces: one direct bonus to the sponsor and one house
// bonus to the house account. Both carry the same timestamp so the
// crediting reads as a single event.
func (p BonusPolicy) EntriesForReferral(sponsorID string, now time.Time) []*model.LedgerEntry {
	return []*model.LedgerEntry{
		{
			ID:        ulid.Make().String(),
			UserID:    sponsorID,
			Amount:    p.DirectBonus,
			Category:  model.CategoryDirectReferralBonus,
			CreatedAt: now,
		},
		{
			ID:        ulid.Make().String(),
			UserID:    p.HouseAccountID,
			Amount:    p.HouseBonus,
			Category:  model.CategoryHouseBonus,
			CreatedAt: now,
		},
	}
}

// PaymentPolicy describes which payment amounts the ledger accepts.
type PaymentPolicy struct {
	// Denominations is the closed set of accepted amounts.
	Denominations []model.Amount
}

// Allows reports whether amount is an accepted denomination.
func (p PaymentPolicy) Allows(amount model.Amount) bool {
	return slices.Contains(p.Denominations, amount)
}

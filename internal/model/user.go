// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered member. SponsorID points at the user
// who referred this one and is nil for unsponsored registrations.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	SponsorID *string   `json:"sponsor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasSponsor returns true if the user registered under a sponsor.
func (u *User) HasSponsor() bool {
	return u.SponsorID != nil && *u.SponsorID != ""
}

// ReferralLink records a sponsor/referred relationship.
// Written exactly once at registration time, immutable thereafter.
// Column order is fixed as (sponsor_id, referred_id) everywhere.
type ReferralLink struct {
	SponsorID  string    `json:"sponsor_id"`
	ReferredID string    `json:"referred_id"`
	CreatedAt  time.Time `json:"created_at"`
}

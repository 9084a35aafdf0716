package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/solidario/solidario/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrSponsorNotFound = errors.New("sponsor not found")
)

// RegisterUser inserts a user together with its referral link and the
// bonus ledger entries produced by the registration, in a single
// transaction. Either all rows are written or none are. referral and
// entries may be nil/empty for an unsponsored registration.
func (r *Repository) RegisterUser(ctx context.Context, user *model.User, referral *model.ReferralLink, entries []*model.LedgerEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, email, sponsor_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Name, user.Email, user.SponsorID, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		if isForeignKeyViolation(err) {
			return ErrSponsorNotFound
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if referral != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO referrals (sponsor_id, referred_id, created_at)
			VALUES ($1, $2, $3)
		`, referral.SponsorID, referral.ReferredID, referral.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrSponsorNotFound
			}
			return fmt.Errorf("insert referral: %w", err)
		}
	}

	for _, entry := range entries {
		if err := insertLedgerEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, name, email, sponsor_id, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.SponsorID,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, name, email, sponsor_id, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.SponsorID,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// UserExists reports whether a user with the given ID exists.
func (r *Repository) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// ListReferralsBySponsor retrieves the referral links created by a sponsor,
// newest first.
func (r *Repository) ListReferralsBySponsor(ctx context.Context, sponsorID string) ([]*model.ReferralLink, error) {
	query := `
		SELECT sponsor_id, referred_id, created_at
		FROM referrals
		WHERE sponsor_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, sponsorID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	var links []*model.ReferralLink
	for rows.Next() {
		var link model.ReferralLink
		if err := rows.Scan(&link.SponsorID, &link.ReferredID, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		links = append(links, &link)
	}

	return links, rows.Err()
}

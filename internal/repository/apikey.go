package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solidario/solidario/internal/model"
)

// Common errors for API key repository operations.
var (
	ErrAPIKeyNotFound = errors.New("api key not found")
)

// CreateAPIKey inserts a new API key record.
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, user_id, key_hash, key_prefix, scopes, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		key.ID,
		key.UserID,
		key.KeyHash,
		key.KeyPrefix,
		key.Scopes,
		key.Name,
		key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetAPIKeysByPrefix retrieves non-revoked keys matching a prefix.
// Several keys can share a prefix; the caller verifies the full secret.
func (r *Repository) GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error) {
	query := `
		SELECT id, user_id, key_hash, key_prefix, scopes, name, revoked_at, last_used_at, created_at
		FROM api_keys
		WHERE key_prefix = $1 AND revoked_at IS NULL
	`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("query api keys by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*model.APIKey
	for rows.Next() {
		var key model.APIKey
		if err := rows.Scan(
			&key.ID,
			&key.UserID,
			&key.KeyHash,
			&key.KeyPrefix,
			&key.Scopes,
			&key.Name,
			&key.RevokedAt,
			&key.LastUsedAt,
			&key.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &key)
	}

	return keys, rows.Err()
}

// RevokeAPIKey marks a key as revoked. Revocation is permanent.
func (r *Repository) RevokeAPIKey(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE api_keys SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// UpdateAPIKeyLastUsed stamps the key's last use. Best effort.
func (r *Repository) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE api_keys SET last_used_at = $2 WHERE id = $1
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

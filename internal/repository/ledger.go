package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/solidario/solidario/internal/model"
)

// Common errors for ledger repository operations.
var (
	// ErrTxAlreadyClaimed is returned when a ledger entry for the same
	// transaction hash already exists.
	ErrTxAlreadyClaimed = errors.New("transaction hash already claimed")
)

// execer is the subset of pgx executors shared by pool and tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CreateLedgerEntry appends a single ledger entry outside of any
// surrounding transaction. Used for payment claims.
func (r *Repository) CreateLedgerEntry(ctx context.Context, entry *model.LedgerEntry) error {
	return insertLedgerEntry(ctx, r.pool, entry)
}

// insertLedgerEntry writes one append-only ledger row through the
// given executor (pool or open transaction).
func insertLedgerEntry(ctx context.Context, db execer, entry *model.LedgerEntry) error {
	var txHash *string
	if entry.TxHash != "" {
		txHash = &entry.TxHash
	}

	_, err := db.Exec(ctx, `
		INSERT INTO ledger_entries (id, user_id, amount_cents, category, tx_hash, confirmation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.ID,
		entry.UserID,
		int64(entry.Amount),
		string(entry.Category),
		txHash,
		entry.Confirmation,
		entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTxAlreadyClaimed
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListLedgerEntriesByUser retrieves a user's ledger entries ordered by
// timestamp descending (most recent first).
func (r *Repository) ListLedgerEntriesByUser(ctx context.Context, userID string) ([]*model.LedgerEntry, error) {
	query := `
		SELECT id, user_id, amount_cents, category, tx_hash, confirmation, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.LedgerEntry
	for rows.Next() {
		var entry model.LedgerEntry
		var amount int64
		var category string
		var txHash *string

		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&amount,
			&category,
			&txHash,
			&entry.Confirmation,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}

		entry.Amount = model.Amount(amount)
		entry.Category = model.EntryCategory(category)
		if txHash != nil {
			entry.TxHash = *txHash
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// SumLedgerByUser returns the total credited amount for a user.
func (r *Repository) SumLedgerByUser(ctx context.Context, userID string) (model.Amount, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM ledger_entries WHERE user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return model.Amount(total), nil
}

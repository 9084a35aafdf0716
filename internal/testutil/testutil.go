// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/solidario/solidario/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 771204

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates every schema touched by the
// integration tests by replaying the migrations in order.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	migrations := []string{
		"000001_users",
		"000002_ledger",
		"000003_subscriptions",
		"000004_api_keys",
		"000005_mailing",
	}

	// Down in reverse order so foreign keys unwind cleanly.
	for i := len(migrations) - 1; i >= 0; i-- {
		if err := applyMigration(ctx, pool, root, migrations[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, m := range migrations {
		if err := applyMigration(ctx, pool, root, m+".up.sql"); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, root, name string) error {
	sql, err := os.ReadFile(filepath.Join(root, "migrations", name))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	return nil
}

// ProjectRoot resolves the repository root from the testutil location.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	id := ulid.Make().String()
	return &model.User{
		ID:        id,
		Name:      name,
		Email:     fmt.Sprintf("%s-%s@test.example", name, id[:8]),
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestEntry creates a ledger entry with sensible defaults.
func NewTestEntry(t testing.TB, userID string, amount model.Amount, category model.EntryCategory) *model.LedgerEntry {
	t.Helper()
	return &model.LedgerEntry{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Amount:    amount,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
}

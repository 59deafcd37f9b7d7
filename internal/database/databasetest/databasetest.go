// Package databasetest opens throwaway bbolt files for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/partyhost/partyhost/internal/database"
)

// New opens a bbolt file in a temporary directory that is closed when the
// test finishes.
func New(tb testing.TB) *database.DB {
	tb.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FilePath:    filepath.Join(tb.TempDir(), "partyhost-test.db"),
		OpenTimeout: time.Second,
	})
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}

	tb.Cleanup(func() {
		_ = db.Close(ctx)
	})

	return db
}

// Package test provides store test helpers backed by a throwaway SQLite
// database.
package test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/store"
	"github.com/misciohq/miscio/store/db"
)

// NewTestingStore creates a migrated store on a fresh database. It uses
// SQLite in a per-test temp directory unless POSTGRES_TEST_DSN points at a
// PostgreSQL instance to run against instead.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	testProfile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(testProfile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(dbDriver, testProfile)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return ts
}

func getTestingProfile(t *testing.T) *profile.Profile {
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		return &profile.Profile{
			Mode:   "dev",
			Driver: "postgres",
			DSN:    dsn,
		}
	}
	dir := t.TempDir()
	return &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
		DSN:    fmt.Sprintf("%s/miscio_test.db", dir),
	}
}

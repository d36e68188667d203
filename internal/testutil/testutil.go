// Package testutil provides shared test helpers for setting up databases and users.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/telenote/internal/models"
	"github.com/starford/telenote/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T, opts ...store.Option) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "telenote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := store.Open(dbFile.Name(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestUser registers a user with the given external id.
func TestUser(t *testing.T, db *store.DB, externalID int64) *models.User {
	t.Helper()
	u, err := db.GetOrCreateUser(context.Background(), models.Identity{ExternalID: externalID})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

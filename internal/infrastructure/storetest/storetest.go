// Package storetest runs ledger tests against every store implementation.
package storetest

import (
	"testing"

	"estate-ledger/internal/infrastructure/database"
	"estate-ledger/internal/infrastructure/memory"
	"estate-ledger/internal/ledger"

	"github.com/stretchr/testify/require"
)

// SQLite returns a migrated store over a private in-memory SQLite database.
func SQLite(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database.NewStore(db)
}

// Each runs fn once per store implementation, each in its own subtest with a fresh store.
func Each(t *testing.T, fn func(t *testing.T, store ledger.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, memory.New())
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, SQLite(t))
	})
}

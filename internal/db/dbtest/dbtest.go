// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db"
)

// Open returns a fresh sqlite database with every table migrated. The pool
// is pinned to one connection because each sqlite memory connection is its
// own database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := db.GormConfig()
	cfg.PrepareStmt = false
	gdb, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

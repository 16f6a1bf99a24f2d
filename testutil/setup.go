package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxelforge/chronicle/cache"
	"github.com/voxelforge/chronicle/config"
	dbadapter "github.com/voxelforge/chronicle/db"
	"github.com/voxelforge/chronicle/model"
)

// SetupTestDB creates an in-memory SQLite database and runs the schema
// migration. It requires no external services and is safe to use in
// parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeSQLiteMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a local in-process cache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Config{}) // empty RedisAddr selects the local cache
	require.NoError(t, err, "SetupTestCache: New")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

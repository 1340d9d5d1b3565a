package testutil

import (
	"testing"

	"github.com/arenaforge/gameapi/cache"
	"github.com/arenaforge/gameapi/config"
	dbsqlite "github.com/arenaforge/gameapi/db/sqlite"
	"github.com/arenaforge/gameapi/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates an isolated in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := dbsqlite.Open(name)
	require.NoError(t, err, "SetupTestDB: Open")

	// One connection keeps the shared in-memory DB alive and serialises writers.
	sqlDB, err := db.DB()
	require.NoError(t, err, "SetupTestDB: DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(config.CacheConfig{}) // empty RedisAddr → LocalCache
	require.NoError(t, err, "SetupTestCache: NewCache")
	if cl, ok := c.(interface{ Close() }); ok {
		t.Cleanup(cl.Close)
	}
	return c
}

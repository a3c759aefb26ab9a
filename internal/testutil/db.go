package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propstack/listings/pkg/property"
)

// MustOpenTestDB opens an in-memory SQLite database with the property
// schema applied. The connection is closed via t.Cleanup. The pool is
// capped at one connection because each in-memory SQLite connection is
// its own database.
func MustOpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&property.Property{}))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

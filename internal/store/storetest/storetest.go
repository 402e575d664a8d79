// Package storetest opens throwaway sqlite backed stores for tests
package storetest

import (
	"fmt"
	"testing"

	"bitwise74/blog-api/db"
	"bitwise74/blog-api/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns an empty in-memory store that is closed with the test
func New(t testing.TB) *store.GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	s := store.NewGorm(gdb)
	t.Cleanup(func() { s.Close() })

	return s
}

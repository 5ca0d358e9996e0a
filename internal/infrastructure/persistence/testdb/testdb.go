// Package testdb opens in-memory SQLite databases with the person and
// invoice tables for repository and handler tests.
package testdb

import (
	"database/sql"
	"sync"
	"testing"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DriverName is the SQLite driver whose lower() folds Unicode the way
// PostgreSQL does. The built-in lower() only folds ASCII.
const DriverName = "sqlite3_unicode_fold"

var registerOnce sync.Once

func register() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", invoice.FoldPattern, true)
			},
		})
	})
}

// NewSQLite opens a migrated in-memory database closed at test cleanup
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	register()

	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: DriverName,
		DSN:        ":memory:",
	}), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.PersonModel{}, &models.InvoiceModel{}))
	return db
}

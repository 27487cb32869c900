package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence/models"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/secret"
)

// setupSQLiteDB opens an in-memory database with every sync table created.
// One connection keeps the in-memory schema alive for the whole test.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tables := append([]any{&models.TenantERPConfigModel{}, &models.ERPDocumentLinkModel{}}, models.RecordModels()...)
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

// newMockDB returns a postgres-dialect GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return db, mock, mockDB
}

func testCipher(t *testing.T) *secret.Cipher {
	t.Helper()
	key, err := secret.GenerateKey()
	require.NoError(t, err)
	c, err := secret.NewCipher(key)
	require.NoError(t, err)
	return c
}

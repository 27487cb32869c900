package tenant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type scopedRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&scopedRow{}))
	return db
}

func TestScope(t *testing.T) {
	db := setupDB(t)
	a, b := uuid.New(), uuid.New()
	require.NoError(t, db.Create([]scopedRow{
		{ID: uuid.New(), TenantID: a, Name: "a1"},
		{ID: uuid.New(), TenantID: a, Name: "a2"},
		{ID: uuid.New(), TenantID: b, Name: "b1"},
	}).Error)

	t.Run("returns only the tenant's rows", func(t *testing.T) {
		var rows []scopedRow
		require.NoError(t, db.Scopes(Scope(a)).Order("name").Find(&rows).Error)
		require.Len(t, rows, 2)
		assert.Equal(t, "a1", rows[0].Name)
		assert.Equal(t, "a2", rows[1].Name)
	})

	t.Run("unknown tenant matches nothing", func(t *testing.T) {
		var rows []scopedRow
		require.NoError(t, db.Scopes(Scope(uuid.New())).Find(&rows).Error)
		assert.Empty(t, rows)
	})

	t.Run("nil tenant fails the query", func(t *testing.T) {
		var rows []scopedRow
		err := db.Scopes(Scope(uuid.Nil)).Find(&rows).Error
		assert.ErrorIs(t, err, ErrTenantIDRequired)
		assert.Empty(t, rows)
	})
}

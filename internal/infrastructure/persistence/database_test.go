package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/config"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence/tenant"
)

func TestGormConfig_Logger(t *testing.T) {
	t.Run("silent without a logger", func(t *testing.T) {
		cfg := gormConfig(Options{LogLevel: gormlogger.Info})
		assert.Equal(t, gormlogger.Discard, cfg.Logger)
		assert.True(t, cfg.SkipDefaultTransaction)
		assert.True(t, cfg.PrepareStmt)
	})

	t.Run("silent level", func(t *testing.T) {
		cfg := gormConfig(Options{Logger: zap.NewNop(), LogLevel: gormlogger.Silent})
		assert.Equal(t, gormlogger.Discard, cfg.Logger)
	})

	t.Run("zap adapter", func(t *testing.T) {
		cfg := gormConfig(Options{Logger: zap.NewNop(), LogLevel: gormlogger.Warn, SlowQuery: time.Second})
		assert.IsType(t, &logger.GormLogger{}, cfg.Logger)
	})
}

func TestNewDatabase_Unreachable(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:         "127.0.0.1",
		Port:         1,
		User:         "sync",
		Password:     "x",
		DBName:       "erpsync",
		SSLMode:      "disable",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	_, err := NewDatabase(cfg)
	require.Error(t, err)
}

func TestDatabase_PingStatsClose(t *testing.T) {
	db, mock, _ := newMockDB(t)
	database := &Database{DB: db}

	mock.ExpectPing()
	require.NoError(t, database.Ping(context.Background()))

	stats, err := database.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)

	mock.ExpectClose()
	require.NoError(t, database.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_PingFailure(t *testing.T) {
	db, mock, _ := newMockDB(t)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err := (&Database{DB: db}).Ping(context.Background())
	assert.EqualError(t, err, "connection refused")
}

func TestTenantScope(t *testing.T) {
	db, mock, _ := newMockDB(t)
	tenantID := uuid.New()

	type linkRow struct {
		ID       uuid.UUID
		TenantID uuid.UUID
	}

	mock.ExpectQuery(`SELECT \* FROM "link_rows" WHERE tenant_id = \$1`).
		WithArgs(tenantID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}))

	var rows []linkRow
	require.NoError(t, db.Scopes(tenant.Scope(tenantID)).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

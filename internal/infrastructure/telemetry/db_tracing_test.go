package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

type linkRow struct {
	ID         uint `gorm:"primaryKey"`
	ExternalID string
	NativeName string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&linkRow{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := telemetry.DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgres", cfg.DBSystem)
}

func TestDBTracingPlugin_Register_Disabled(t *testing.T) {
	recorder := setupTestTracer(t)
	db := setupTestDB(t)

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, plugin.Register(db))

	ctx, span := telemetry.StartSpan(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&linkRow{ExternalID: "c1", NativeName: "CUST-0001"}).Error)
	span.End()

	assert.Len(t, recorder.Ended(), 1)
}

func TestDBTracingPlugin_Register_RecordsQuerySpans(t *testing.T) {
	recorder := setupTestTracer(t)
	db := setupTestDB(t)

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:  true,
		DBSystem: "sqlite",
	}, zaptest.NewLogger(t))
	require.NoError(t, plugin.Register(db))

	ctx, parent := telemetry.StartSpan(context.Background(), "erpsync.save_link")
	require.NoError(t, db.WithContext(ctx).Create(&linkRow{ExternalID: "c1", NativeName: "CUST-0001"}).Error)

	var row linkRow
	require.NoError(t, db.WithContext(ctx).Where("external_id = ?", "c1").First(&row).Error)
	parent.End()

	assert.Equal(t, "CUST-0001", row.NativeName)

	var dbSpans int
	var rowsAffected []int64
	for _, s := range recorder.Ended() {
		if s.Name() == "erpsync.save_link" {
			continue
		}
		dbSpans++
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key("db.rows_affected") {
				rowsAffected = append(rowsAffected, kv.Value.AsInt64())
			}
		}
	}
	assert.GreaterOrEqual(t, dbSpans, 2)
	assert.Contains(t, rowsAffected, int64(1))
}

func TestDBTracingPlugin_Register_SlowQueryEvent(t *testing.T) {
	recorder := setupTestTracer(t)
	db := setupTestDB(t)

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond,
		DBSystem:        "sqlite",
	}, zaptest.NewLogger(t))
	require.NoError(t, plugin.Register(db))

	ctx, parent := telemetry.StartSpan(context.Background(), "erpsync.load_page")
	var rows []linkRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	var slow bool
	for _, s := range recorder.Ended() {
		for _, e := range s.Events() {
			if e.Name == "slow_query_warning" {
				slow = true
			}
		}
	}
	assert.True(t, slow)
}

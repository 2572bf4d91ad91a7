package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTracedDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())

	require.NoError(t, p.Register(db))
	assert.Nil(t, db.Callback().Create().Get("fab_timing:after_create"))
}

func TestDBTracingPlugin_RecordsSpans(t *testing.T) {
	sr := setupTestTracer(t)
	db := setupTracedDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
	assert.NotNil(t, db.Callback().Create().Get("fab_timing:after_create"))

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "sheet"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)

	assert.NotEmpty(t, sr.Ended())
}

func annotateWith(t *testing.T, p *DBTracingPlugin, started time.Time, dbErr error) sdktrace.ReadOnlySpan {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	ctx, span := tp.Tracer("test").Start(context.Background(), "gorm.Query")
	ctx = context.WithValue(ctx, queryStartKey{}, started)

	tx := setupTracedDB(t).WithContext(ctx)
	tx.Statement.Table = "orders"
	tx.Statement.RowsAffected = 3
	tx.Error = dbErr

	p.annotate(tx)
	span.End()

	require.Len(t, sr.Ended(), 1)
	return sr.Ended()[0]
}

func TestDBTracingPlugin_Annotate(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 50 * time.Millisecond}, zap.NewNop())

	t.Run("slow query is flagged", func(t *testing.T) {
		span := annotateWith(t, p, time.Now().Add(-time.Second), nil)

		v, ok := spanAttr(span, "db.slow_query")
		require.True(t, ok)
		assert.True(t, v.AsBool())
		v, ok = spanAttr(span, "db.sql.table")
		require.True(t, ok)
		assert.Equal(t, "orders", v.AsString())
		v, ok = spanAttr(span, "db.rows_affected")
		require.True(t, ok)
		assert.Equal(t, int64(3), v.AsInt64())
		require.Len(t, span.Events(), 1)
		assert.Equal(t, "slow_query_warning", span.Events()[0].Name)
	})

	t.Run("fast query is not flagged", func(t *testing.T) {
		span := annotateWith(t, p, time.Now(), nil)
		_, ok := spanAttr(span, "db.slow_query")
		assert.False(t, ok)
		assert.Equal(t, codes.Unset, span.Status().Code)
	})

	t.Run("errors mark the span except record not found", func(t *testing.T) {
		span := annotateWith(t, p, time.Now(), errors.New("unique violation"))
		assert.Equal(t, codes.Error, span.Status().Code)

		span = annotateWith(t, p, time.Now(), gorm.ErrRecordNotFound)
		assert.Equal(t, codes.Unset, span.Status().Code)
	})
}

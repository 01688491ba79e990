package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-5")

	t.Run("error is logged with request id", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)

		gl.Trace(ctx, time.Now(), statement("UPDATE stock_lines", 0), errors.New("deadlock"))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "req-5", entry.ContextMap()["request_id"])
		assert.Equal(t, "gorm", entry.LoggerName)
	})

	t.Run("record not found skipped by default", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		NewGormLogger(zap.New(core), gormlogger.Warn).
			Trace(ctx, time.Now(), statement("SELECT", 0), gorm.ErrRecordNotFound)
		assert.Zero(t, logs.Len())

		NewGormLogger(zap.New(core), gormlogger.Warn, WithRecordNotFound()).
			Trace(ctx, time.Now(), statement("SELECT", 0), gorm.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow query warns", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))

		gl.Trace(ctx, time.Now().Add(-time.Second), statement("SELECT", 3), nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})

	t.Run("fast query only at info mode", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		gl.Trace(ctx, time.Now(), statement("SELECT 1", 1), nil)
		assert.Zero(t, logs.Len())

		gl.LogMode(gormlogger.Info).Trace(ctx, time.Now(), statement("SELECT 1", 1), nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "SELECT 1", logs.All()[0].ContextMap()["sql"])
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		NewGormLogger(zap.New(core), gormlogger.Silent).
			Trace(ctx, time.Now(), statement("SELECT", 0), errors.New("x"))
		assert.Zero(t, logs.Len())
	})
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
}

package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clinicstock/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(sqlite.Open("file::memory:"), PoolConfig{MaxOpen: 1},
		WithLogger(logger.NewGormLogger(zap.NewNop(), gormlogger.Warn)))
	require.NoError(t, err)

	assert.NoError(t, db.Ping(context.Background()))
	assert.True(t, db.DB.Config.TranslateError)
	assert.True(t, db.DB.Config.SkipDefaultTransaction)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestOpen_PingFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)

	_, err = Open(postgres.New(postgres.Config{Conn: sqlDB}), PoolConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

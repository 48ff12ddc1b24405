package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"guesthouse-occupancy-backend/config"
	"guesthouse-occupancy-backend/internal/model"
)

func TestInit_SQLiteMigrates(t *testing.T) {
	gormDB, err := Init(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	assert.True(t, gormDB.Migrator().HasTable(&model.Guest{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.FacilitySettings{}))
	assert.True(t, gormDB.Migrator().HasIndex(&model.Guest{}, "UID"), "uid must carry a unique index")
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Info, logLevel("INFO"))
	assert.Equal(t, logger.Warn, logLevel(""))
}

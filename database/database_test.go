package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_Validation(t *testing.T) {
	_, err := Connect(Config{Driver: DriverSQLite})
	assert.ErrorContains(t, err, "dsn is required")

	_, err = Connect(Config{Driver: "postgres", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrations_UpAndDown(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "pilot.db")
	db, err := Connect(Config{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	version, _, err := Version(sqlDB, DriverSQLite)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, RunMigrations(sqlDB, DriverSQLite))
	require.NoError(t, RunMigrations(sqlDB, DriverSQLite), "re-running is a no-op")

	assert.True(t, db.Migrator().HasTable("runs"))
	assert.True(t, db.Migrator().HasTable("run_cases"))

	version, dirty, err := Version(sqlDB, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	require.NoError(t, RollbackMigration(sqlDB, DriverSQLite))
	assert.False(t, db.Migrator().HasTable("run_cases"))
	assert.True(t, db.Migrator().HasTable("runs"))
}

func TestMigrations_UnsupportedDriver(t *testing.T) {
	assert.ErrorContains(t, RunMigrations(nil, "oracle"), "unsupported database driver")
}

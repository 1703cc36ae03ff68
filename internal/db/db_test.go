package db

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"ibis-route-manager/config"
)

func TestOpen_SQLite(t *testing.T) {
	log, hook := test.NewNullLogger()
	cfg := config.Default().Database
	cfg.DSN = filepath.Join(t.TempDir(), "nested", "routes.db")

	gormDB, err := Open(&cfg, log)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.False(t, gormDB.Config.TranslateError)
	for _, entry := range hook.AllEntries() {
		assert.True(t, entry.Level > logrus.WarnLevel, entry.Message)
		assert.NotContains(t, entry.Message, "TranslateError")
	}

	var mode string
	require.NoError(t, gormDB.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)
}

func TestGormConfig_TranslatesOnlyWhereSupported(t *testing.T) {
	log, _ := test.NewNullLogger()

	assert.False(t, gormConfig(sqlite.Open("routes.db"), log).TranslateError)
	assert.True(t, gormConfig(postgres.Open("host=localhost"), log).TranslateError)
}

func TestOpen_Errors(t *testing.T) {
	log, _ := test.NewNullLogger()

	testCases := []struct {
		name string
		cfg  config.DatabaseConfig
	}{
		{"unknown driver", config.DatabaseConfig{Driver: "oracle", DSN: "x"}},
		{"sqlite without dsn", config.DatabaseConfig{Driver: "sqlite"}},
		{"postgres without dsn", config.DatabaseConfig{Driver: "postgres"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Open(&tc.cfg, log)
			assert.Error(t, err)
		})
	}
}

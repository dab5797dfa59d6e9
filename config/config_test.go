package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/pkg/database"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "kodi", cfg.AppName)
	assert.Equal(t, database.DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Minute, cfg.LockTTL)
	assert.Equal(t, "either", cfg.CatalogMatchStrategy)
	assert.Equal(t, "nl", cfg.EstimateDefaultLanguage)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/kodi.db")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("DB_MIGRATION_VERSION", "2")
	t.Setenv("REDIS_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	conn := cfg.Connection()
	assert.Equal(t, database.DriverSQLite, conn.Driver)
	assert.Equal(t, "/tmp/kodi.db", conn.DSN)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, uint(2), cfg.Migration().Version)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestConnection_Postgres(t *testing.T) {
	cfg := &Config{
		DatabaseDriver:   database.DriverPostgres,
		DatabaseHost:     "db",
		DatabasePort:     "5432",
		DatabaseUserName: "kodi",
		DatabasePassword: "secret",
		DatabaseName:     "catalog",
		DatabaseSSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=kodi password=secret dbname=catalog sslmode=disable", cfg.Connection().DSN)
}

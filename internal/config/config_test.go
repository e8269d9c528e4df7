package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "*", cfg.Server.CORSAllowOrigin)
	assert.False(t, cfg.Server.StrictNotFound)
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, "tareas", cfg.Store.Mongo.Collection)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Redis.Enabled())

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, cfg.Primary.Env, cfg.Observability.Environment)

	want := DefaultObservabilityConfig()
	assert.Equal(t, want.Logging.SlowQueryThreshold, cfg.Observability.Logging.SlowQueryThreshold)
	assert.Equal(t, want.NewRelic, cfg.Observability.NewRelic)
	assert.Equal(t, want.HealthChecks, cfg.Observability.HealthChecks)
	assert.Empty(t, cfg.Observability.Logging.Level)
	assert.Equal(t, "debug", cfg.Observability.GetLogLevel())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TAREAS_PRIMARY__ENV", "production")
	t.Setenv("TAREAS_SERVER__PORT", "9090")
	t.Setenv("TAREAS_SERVER__STRICT_NOT_FOUND", "true")
	t.Setenv("TAREAS_STORE__DRIVER", "postgres")
	t.Setenv("TAREAS_STORE__POSTGRES__HOST", "db")
	t.Setenv("TAREAS_STORE__POSTGRES__USER", "tareas")
	t.Setenv("TAREAS_STORE__POSTGRES__NAME", "tareas")
	t.Setenv("TAREAS_REDIS__ADDRESS", "localhost:6379")
	t.Setenv("TAREAS_CACHE__TTL", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.StrictNotFound)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "db", cfg.Store.Postgres.Host)
	assert.Equal(t, 5432, cfg.Store.Postgres.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Observability.IsProduction())
	assert.Equal(t, "info", cfg.Observability.GetLogLevel())
}

func TestLoadConfig_PartialObservabilityKeepsDefaults(t *testing.T) {
	t.Setenv("TAREAS_OBSERVABILITY__LOGGING__LEVEL", "warn")
	t.Setenv("TAREAS_OBSERVABILITY__HEALTH_CHECKS__CHECKS", "store")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Observability.GetLogLevel())
	assert.Equal(t, 5*time.Second, cfg.Observability.HealthChecks.Timeout)
	assert.True(t, cfg.Observability.HealthCheckEnabled("store"))
	assert.False(t, cfg.Observability.HealthCheckEnabled("redis"))
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("TAREAS_STORE__DRIVER", "sqlite")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_PostgresRequiresHost(t *testing.T) {
	t.Setenv("TAREAS_STORE__DRIVER", "postgres")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.postgres")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "store.mongo.uri", envKey("TAREAS_STORE__MONGO__URI"))
	assert.Equal(t, "server.read_timeout", envKey("TAREAS_SERVER__READ_TIMEOUT"))
}

func TestObservabilityConfig_Validate(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = DefaultObservabilityConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestObservabilityConfig_HealthCheckEnabled(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	assert.True(t, cfg.HealthCheckEnabled("store"))
	assert.False(t, cfg.HealthCheckEnabled("smtp"))

	cfg.HealthChecks.Enabled = false
	assert.False(t, cfg.HealthCheckEnabled("store"))
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCoordinatorConfig_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := LoadCoordinatorConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, "scheduler.db", cfg.Storage.Path)
	assert.Equal(t, 30*time.Second, cfg.LivenessInterval)
	assert.Equal(t, 60*time.Second, cfg.ScheduleInterval)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoadCoordinatorConfig_EnvOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("SCHEDULER_HTTP_ADDR", "0.0.0.0:9999")
	os.Setenv("SCHEDULER_DB_PATH", "/tmp/test.db")
	os.Setenv("SCHEDULER_LIVENESS_INTERVAL", "15s")
	os.Setenv("SCHEDULER_OTEL_ENABLED", "true")

	cfg, err := LoadCoordinatorConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.HTTP.Addr)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, 15*time.Second, cfg.LivenessInterval)
	assert.True(t, cfg.Observability.OTelEnabled)
}

func TestLoadWorkerConfig_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := LoadWorkerConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.CoordinatorAddr)
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
}

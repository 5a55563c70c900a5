package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")

	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestLoadClient(t *testing.T) {
	t.Setenv("DOCUMIND_DATA_DIR", "/tmp/documind-test")
	t.Setenv("DOCUMIND_REMOTE_URL", "http://bridge:8080")
	t.Setenv("DOCUMIND_PROBE_TIMEOUT_MS", "750")
	t.Setenv("DOCUMIND_LOG_LEVEL", "debug")

	cfg := LoadClient()

	assert.Equal(t, "/tmp/documind-test", cfg.DataDir)
	assert.Equal(t, "/tmp/documind-test/documind.db", cfg.DatabasePath())
	assert.Equal(t, "http://bridge:8080", cfg.RemoteURL)
	assert.Equal(t, 750*time.Millisecond, cfg.ProbeTimeout)
	assert.Equal(t, 5*time.Second, cfg.ProbeInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLogConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, LogConfig{}.Location())
	assert.Equal(t, time.UTC, LogConfig{TimeZone: "Not/AZone"}.Location())
	assert.Equal(t, "UTC", LogConfig{TimeZone: "UTC"}.Location().String())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/illarion/dehook/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfig, EnvAddr, EnvLogLevel, EnvStoragePath, EnvDSN} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dehook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, storage.DriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "settings.db", filepath.Base(cfg.Storage.Path))
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
listen: 127.0.0.1:9000
log_level: debug
storage:
  path: /var/lib/dehook/settings.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, storage.DriverBolt, cfg.Storage.Driver, "unset fields keep defaults")
	assert.Equal(t, "/var/lib/dehook/settings.db", cfg.Storage.Path)
}

func TestConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfig, writeConfig(t, "log_level: warn\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "listen: 127.0.0.1:9000\n")
	t.Setenv(EnvAddr, "127.0.0.1:9100")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvDSN, "postgres://localhost/dehook")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Listen)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, storage.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/dehook", cfg.Storage.DSN)
}

func TestHomeExpansion(t *testing.T) {
	clearEnv(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv(EnvStoragePath, "~/custom/settings.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "custom", "settings.db"), cfg.Storage.Path)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "storage:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "storage.dsn")

	_, err = Load(writeConfig(t, "storage:\n  driver: etcd\n"))
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = Load(writeConfig(t, "listen: [not, a, string\n"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestValidateAcceptsEveryStorageDriver(t *testing.T) {
	for _, driver := range []string{storage.DriverBolt, storage.DriverPostgres, storage.DriverMemory} {
		cfg := Default()
		cfg.Storage.Driver = driver
		cfg.Storage.DSN = "postgres://localhost/dehook"
		assert.NoError(t, cfg.Validate(), driver)
	}
}

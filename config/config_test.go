package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("ANIMEVAULT_JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.ListenAddress)
	assert.Equal(t, "8080", cfg.ListenPort)
	assert.Equal(t, 3*time.Second, cfg.SaveInterval)
	assert.True(t, cfg.EnableBackup)
	assert.Equal(t, int64(0), cfg.MaxStoreBytes)
	assert.Equal(t, 24*time.Hour, cfg.SessionTimeout)
	assert.Equal(t, 6, cfg.MinPasswordLength)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 10*time.Second, cfg.SyncGraceDelay)
	assert.Equal(t, "test-secret", cfg.JwtSecret)
	assert.True(t, filepath.IsAbs(cfg.StoreFilePath))
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ANIMEVAULT_JWT_SECRET", "test-secret")
	t.Setenv("ANIMEVAULT_LISTEN_PORT", "9000")

	cfg, err := LoadConfig([]string{"-port", "9999", "-session-timeout", "1h"})
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.ListenPort)
	assert.Equal(t, time.Hour, cfg.SessionTimeout)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ANIMEVAULT_JWT_SECRET", "test-secret")
	t.Setenv("ANIMEVAULT_LISTEN_PORT", "9000")
	t.Setenv("ANIMEVAULT_SYNC_INTERVAL", "5s")
	t.Setenv("ANIMEVAULT_ENABLE_BACKUP", "no")
	t.Setenv("ANIMEVAULT_MAX_STORE_BYTES", "1048576")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ListenPort)
	assert.Equal(t, 5*time.Second, cfg.SyncInterval)
	assert.False(t, cfg.EnableBackup)
	assert.Equal(t, int64(1048576), cfg.MaxStoreBytes)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("ANIMEVAULT_JWT_SECRET", "test-secret")
	t.Setenv("ANIMEVAULT_SAVE_INTERVAL", "definitely-not-a-duration")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.SaveInterval)
}

func TestJwtSecretFromFile(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "secret.key")
	require.NoError(t, os.WriteFile(secretFile, []byte("  file-secret\n"), 0600))
	t.Setenv("ANIMEVAULT_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig([]string{"-jwt-secret-file", secretFile})
	require.NoError(t, err)

	// The file wins over the environment variable.
	assert.Equal(t, "file-secret", cfg.JwtSecret)
}

func TestStorePathMustNotBeDirectory(t *testing.T) {
	t.Setenv("ANIMEVAULT_JWT_SECRET", "test-secret")

	_, err := LoadConfig([]string{"-store-file", t.TempDir()})
	assert.Error(t, err)
}

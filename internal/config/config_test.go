package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/territorybattle/internal/testutil"
)

func lookup(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultReconcileSchedule, cfg.ReconcileSchedule)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Zero(t, cfg.RateLimit)
	assert.False(t, cfg.S3.Enabled())
	assert.Empty(t, cfg.SnapshotSchedule)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromLookup(lookup(map[string]string{
		"HOST":               "127.0.0.1",
		"PORT":               "9090",
		"LOG_LEVEL":          "debug",
		"STORAGE_TYPE":       "postgres",
		"DATABASE_URL":       "postgres://localhost/tb",
		"DB_MAX_CONNS":       "4",
		"REDIS_URL":          "redis://localhost:6379",
		"CACHE_TTL":          "2m",
		"RATE_LIMIT":         "30",
		"RECONCILE_SCHEDULE": "off",
		"S3_BUCKET":          "snapshots",
		"S3_ENDPOINT":        "https://example.r2.cloudflarestorage.com",
		"API_VERSION":        "2.1.0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.StorageType)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Empty(t, cfg.ReconcileSchedule)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, DefaultSnapshotSchedule, cfg.SnapshotSchedule)
	assert.Equal(t, DefaultSnapshotPrefix, cfg.S3.Prefix)
	assert.Equal(t, "auto", cfg.S3.Region)
	assert.Equal(t, "2.1.0", cfg.Version)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"port not a number", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"unknown storage", map[string]string{"STORAGE_TYPE": "redis"}},
		{"postgres without url", map[string]string{"STORAGE_TYPE": "postgres"}},
		{"bad ttl", map[string]string{"CACHE_TTL": "soon"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
		{"negative rate limit", map[string]string{"RATE_LIMIT": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookup(tt.vars))
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TB_CONFIG_TEST_PORT=7070\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TB_CONFIG_TEST_PORT") })

	LoadDotEnv(testutil.NopLogger(), path)
	assert.Equal(t, "7070", os.Getenv("TB_CONFIG_TEST_PORT"))

	// A missing file is not an error
	LoadDotEnv(testutil.NopLogger(), filepath.Join(t.TempDir(), "missing.env"))
}

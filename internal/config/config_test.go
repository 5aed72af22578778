package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inEmptyDir keeps a developer's .env out of the test.
func inEmptyDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	inEmptyDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.SQCBAPITimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "*", cfg.CORSAllowed)
	assert.Equal(t, 6, cfg.WindowDays)
	assert.Empty(t, cfg.SyncSchedule)
	assert.False(t, cfg.HasStore())
}

func TestLoad_Environment(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/sqcb")
	t.Setenv("SQCB_API_URL", "http://sqcb.internal/api")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("SYNC_SCHEDULE", "*/15 * * * *")
	t.Setenv("WINDOW_DAYS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.HasStore())
	assert.Equal(t, "http://sqcb.internal/api", cfg.SQCBAPIURL)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "*/15 * * * *", cfg.SyncSchedule)
	assert.Equal(t, 10, cfg.WindowDays)
}

func TestLoad_RejectsNegativeWindow(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("WINDOW_DAYS", "-1")

	_, err := Load()
	assert.Error(t, err)
}

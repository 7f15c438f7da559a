package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "transit-rewards", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, "5 0 * * *", cfg.Jobs.SweepCron)
	assert.Equal(t, "notify:user:", cfg.Notification.ChannelPrefix)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9191")
	t.Setenv("JOBS_VERIFIER_ENABLED", "false")
	t.Setenv("JOBS_VERIFIER_INTERVAL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.App.Port)
	assert.False(t, cfg.Jobs.VerifierEnabled)
	// unparseable values fall back to the default
	assert.Equal(t, 30, cfg.Jobs.VerifierIntervalSeconds)
}

func TestInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "oops")
	_, err := Load()
	require.Error(t, err)
}

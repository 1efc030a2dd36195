package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "mentions.db", cfg.DatabasePath)
	assert.Equal(t, "0 */15 * * * *", cfg.PollSchedule)
	assert.Equal(t, "BrandPulseBot/1.0", cfg.RedditUserAgent)
	assert.Equal(t, 25, cfg.PostLimit)
	assert.Equal(t, 3, cfg.CommentLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.PostDelay)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, 25, cfg.MaxJobsPerRun)
	assert.Equal(t, 2000, cfg.ContentMaxLength)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("POST_LIMIT", "10")
	t.Setenv("POST_DELAY", "1s")
	t.Setenv("MAX_JOBS_PER_RUN", "0")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.PostLimit)
	assert.Equal(t, time.Second, cfg.PostDelay)
	assert.Equal(t, 0, cfg.MaxJobsPerRun, "zero disables the per-run job budget")
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingRedditCredentials(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EmailAlertRequiresSMTP(t *testing.T) {
	setRequired(t)
	t.Setenv("ALERT_EMAIL", "ops@example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHANNEL_ID", "-1001234567890")
	t.Setenv("TWITTER_BEARER_TOKEN", "bearer")
	t.Setenv("TWITTER_USERNAME_TO_MONITOR", "@jack")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, "jack", cfg.TwitterUsername)
	assert.Equal(t, "-1001234567890", cfg.TelegramChannelID)
	assert.Equal(t, 20*time.Minute, cfg.PollIntervalDuration())
	assert.Equal(t, 5, cfg.RecentPostsLimit)
	assert.Equal(t, 5, cfg.QueueCapacity)
	assert.Equal(t, 5, cfg.DedupHistorySize)
	assert.Equal(t, 5, cfg.ResolveMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.ResolveBaseDelayDuration())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeoutDuration())
	assert.Equal(t, int64(50<<20), cfg.MediaMaxBytes)
	assert.Equal(t, filepath.Join("./data", "user_id.json"), cfg.AccountCachePath)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
	assert.Empty(t, cfg.AllowedUsers)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL", "60")
	t.Setenv("ALLOWED_USERS", "1, 2,x,3")
	t.Setenv("APP_ENV", "Development")
	t.Setenv("STORAGE_PATH", "/var/lib/relay")

	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.PollIntervalDuration())
	assert.Equal(t, []int64{1, 2, 3}, cfg.AllowedUsers)
	assert.Equal(t, AppEnvDevelopment, cfg.AppEnv)
	assert.Equal(t, filepath.Join("/var/lib/relay", "user_id.json"), cfg.AccountCachePath)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `telegram_bot_token: from-file
telegram_channel_id: "@relay_channel"
twitter_bearer_token: bearer
twitter_username_to_monitor: jack
queue_capacity: 10
allowed_users:
  - 42
  - 43
app_env: nonsense
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := load([]string{filepath.Join(t.TempDir(), "missing.json"), path})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.TelegramBotToken)
	assert.Equal(t, "@relay_channel", cfg.TelegramChannelID)
	assert.Equal(t, 10, cfg.QueueCapacity)
	assert.Equal(t, []int64{42, 43}, cfg.AllowedUsers)
	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr error
	}{
		{"bot token", "TELEGRAM_BOT_TOKEN", errors.ErrMissingBotToken},
		{"channel", "TELEGRAM_CHANNEL_ID", errors.ErrMissingChannelID},
		{"bearer", "TWITTER_BEARER_TOKEN", errors.ErrMissingBearerToken},
		{"handle", "TWITTER_USERNAME_TO_MONITOR", errors.ErrMissingAccountHandle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := load(nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadRejectsInvalidLimits(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"limit below page minimum", "RECENT_POSTS_LIMIT", "3"},
		{"zero request timeout", "REQUEST_TIMEOUT", "0"},
		{"negative request timeout", "REQUEST_TIMEOUT", "-5"},
		{"zero poll interval", "POLL_INTERVAL", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := load(nil)
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())

	cfg.LogLevel = "loud"
	assert.Equal(t, "INFO", cfg.SlogLevel().String())
}

func TestParseAllowedUsers(t *testing.T) {
	assert.Equal(t, []int64{}, ParseAllowedUsers(""))
	assert.Equal(t, []int64{7, 8}, ParseAllowedUsers("7,,8"))
}

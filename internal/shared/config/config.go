package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	TelegramBotToken  string `koanf:"telegram_bot_token"`
	TelegramAPIURL    string `koanf:"telegram_api_url"`
	TelegramChannelID string `koanf:"telegram_channel_id"`

	TwitterBearerToken string `koanf:"twitter_bearer_token"`
	TwitterAPIURL      string `koanf:"twitter_api_url"`
	TwitterUsername    string `koanf:"twitter_username_to_monitor"`

	// Intervals and timeouts are in seconds.
	PollInterval       int   `koanf:"poll_interval"`
	RecentPostsLimit   int   `koanf:"recent_posts_limit"`
	QueueCapacity      int   `koanf:"queue_capacity"`
	DedupHistorySize   int   `koanf:"dedup_history_size"`
	ResolveMaxAttempts int   `koanf:"resolve_max_attempts"`
	ResolveBaseDelay   int   `koanf:"resolve_base_delay"`
	RequestTimeout     int   `koanf:"request_timeout"`
	MediaMaxBytes      int64 `koanf:"media_max_bytes"`
	PostCacheSize      int   `koanf:"post_cache_size"`
	PostCacheTTL       int   `koanf:"post_cache_ttl"`

	StoragePath      string  `koanf:"storage_path"`
	AccountCachePath string  `koanf:"account_cache_path"`
	HTTPPort         string  `koanf:"http_port"`
	AllowedUsers     []int64 `koanf:"-"`
	LogLevel         string  `koanf:"log_level"`
	AppEnv           AppEnv  `koanf:"app_env"`
}

var defaultConfigFiles = []string{
	"config.yaml",
	"config.yml",
	"config.json",
	"config.toml",
}

var defaults = map[string]any{
	"telegram_api_url":     "https://api.telegram.org",
	"twitter_api_url":      "https://api.twitter.com",
	"poll_interval":        1200,
	"recent_posts_limit":   5,
	"queue_capacity":       5,
	"dedup_history_size":   5,
	"resolve_max_attempts": 5,
	"resolve_base_delay":   2,
	"request_timeout":      30,
	"media_max_bytes":      50 << 20,
	"post_cache_size":      64,
	"post_cache_ttl":       300,
	"storage_path":         "./data",
	"http_port":            "8080",
	"log_level":            "info",
	"app_env":              "production",
}

// Load reads the first config file found in the working directory and
// overlays environment variables on top of it.
func Load() (*Config, error) {
	return load(defaultConfigFiles)
}

func load(configFiles []string) (*Config, error) {
	k := koanf.New(".")

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values:
	// TELEGRAM_BOT_TOKEN -> telegram_bot_token
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
	if !k.Exists("account_cache_path") {
		k.Set("account_cache_path", filepath.Join(k.String("storage_path"), "user_id.json"))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// allowed_users is a comma-separated string in env and a list in config files
	if allowedUsers := k.Get("allowed_users"); allowedUsers != nil {
		switch v := allowedUsers.(type) {
		case string:
			cfg.AllowedUsers = ParseAllowedUsers(v)
		case []interface{}:
			cfg.AllowedUsers = lo.FilterMap(v, func(item interface{}, _ int) (int64, bool) {
				switch val := item.(type) {
				case int64:
					return val, true
				case int:
					return int64(val), true
				case float64:
					return int64(val), true
				default:
					return 0, false
				}
			})
		}
	}

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.TelegramBotToken == "":
		return errors.ErrMissingBotToken
	case c.TelegramChannelID == "":
		return errors.ErrMissingChannelID
	case c.TwitterBearerToken == "":
		return errors.ErrMissingBearerToken
	case strings.TrimPrefix(c.TwitterUsername, "@") == "":
		return errors.ErrMissingAccountHandle
	}
	c.TwitterUsername = strings.TrimPrefix(c.TwitterUsername, "@")

	if c.PollInterval <= 0 {
		return oops.With("poll_interval", c.PollInterval).Errorf("poll_interval must be positive")
	}
	if c.QueueCapacity <= 0 {
		return oops.With("queue_capacity", c.QueueCapacity).Errorf("queue_capacity must be positive")
	}
	if c.DedupHistorySize <= 0 {
		return oops.With("dedup_history_size", c.DedupHistorySize).Errorf("dedup_history_size must be positive")
	}
	// X API v2 accepts 5..100 results per page
	if c.RecentPostsLimit < 5 || c.RecentPostsLimit > 100 {
		return oops.With("recent_posts_limit", c.RecentPostsLimit).Errorf("recent_posts_limit must be within 5..100")
	}
	if c.RequestTimeout <= 0 {
		return oops.With("request_timeout", c.RequestTimeout).Errorf("request_timeout must be positive")
	}
	if c.ResolveMaxAttempts <= 0 {
		return oops.With("resolve_max_attempts", c.ResolveMaxAttempts).Errorf("resolve_max_attempts must be positive")
	}
	return nil
}

func (c *Config) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

func (c *Config) ResolveBaseDelayDuration() time.Duration {
	return time.Duration(c.ResolveBaseDelay) * time.Second
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) PostCacheTTLDuration() time.Duration {
	return time.Duration(c.PostCacheTTL) * time.Second
}

// SlogLevel maps log_level onto a slog level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseAllowedUsers parses comma-separated user IDs string into []int64
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}

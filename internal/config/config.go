package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	DBPath       string  `env:"DB_PATH"                 envDefault:"db.sqlite"`
	OpenAIAPIKey string  `env:"OPENAI_API_KEY"`
	LogLevel     string  `env:"LOG_LEVEL"               envDefault:"info"`

	RemoteURL       string        `env:"REMOTE_URL"        envDefault:"http://127.0.0.1:8000/api/graphql"`
	RemoteTimeout   time.Duration `env:"REMOTE_TIMEOUT"    envDefault:"20s"`
	ListingCacheTTL time.Duration `env:"LISTING_CACHE_TTL" envDefault:"30s"`
	NavigateDelay   time.Duration `env:"NAVIGATE_DELAY"    envDefault:"1500ms"`
	SyncSpec        string        `env:"SYNC_SPEC"         envDefault:"*/5 * * * *"`

	DefaultAuthorID string            `env:"DEFAULT_AUTHOR_ID" envDefault:"1"`
	Authors         map[string]string `env:"AUTHORS"           envDefault:"1=Keisuke,2=Taro,3=Hanako,4=Yuki,5=Sora" envKeyValSeparator:"="` //nolint:lll // Struct tags.
	AuthorAvatars   map[string]string `env:"AUTHOR_AVATARS"    envDefault:"1=https://example.com/avatar.png"          envKeyValSeparator:"="` //nolint:lll // Struct tags.
}

func LoadConfig() Config {
	return env.Must(Parse())
}

// Parse reads the configuration from the process environment.
func Parse() (Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, err
	}

	if _, ok := cfg.Authors[cfg.DefaultAuthorID]; !ok {
		return Config{}, fmt.Errorf("default author %q is not in AUTHORS", cfg.DefaultAuthorID)
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return level, nil
}

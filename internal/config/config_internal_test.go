package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{"TOKEN": "t"}})
	require.NoError(t, err)

	assert.Equal(t, "db.sqlite", cfg.DBPath)
	assert.Equal(t, "http://127.0.0.1:8000/api/graphql", cfg.RemoteURL)
	assert.Equal(t, 20*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 30*time.Second, cfg.ListingCacheTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.NavigateDelay)
	assert.Equal(t, "*/5 * * * *", cfg.SyncSpec)
	assert.Equal(t, "1", cfg.DefaultAuthorID)
	assert.Len(t, cfg.Authors, 5)
	assert.Equal(t, "https://example.com/avatar.png", cfg.AuthorAvatars["1"])
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"TOKEN":             "t",
		"ALLOWED_USERS":     "1,2",
		"AUTHORS":           "7=Ann,8=Bob",
		"DEFAULT_AUTHOR_ID": "8",
		"NAVIGATE_DELAY":    "0s",
		"LOG_LEVEL":         "debug",
	}})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, cfg.AllowedUsers)
	assert.Equal(t, map[string]string{"7": "Ann", "8": "Bob"}, cfg.Authors)
	assert.Zero(t, cfg.NavigateDelay)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{}},
		{"unknown default author", map[string]string{"TOKEN": "t", "DEFAULT_AUTHOR_ID": "99"}},
		{"bad duration", map[string]string{"TOKEN": "t", "REMOTE_TIMEOUT": "soon"}},
		{"bad level", map[string]string{"TOKEN": "t", "LOG_LEVEL": "loud"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parse(env.Options{Environment: test.env})
			assert.Error(t, err)
		})
	}
}

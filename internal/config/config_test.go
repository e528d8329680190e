package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "PUBLIC_URL", "FEED_ORDER", "FEED_LIMIT", "CHANGE_FEED", "TOKEN_TTL", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "local", cfg.Env)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.Equal(t, "created_at", cfg.FeedOrder)
	assert.Equal(t, 60, cfg.FeedLimit)
	assert.Equal(t, ChangeFeedPostgres, cfg.ChangeFeed)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PUBLIC_URL", "https://murmur.example/")
	t.Setenv("FEED_ORDER", "like_count")
	t.Setenv("FEED_LIMIT", "20")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("RATE_LIMIT_WINDOW", "not-a-duration")

	cfg := Load()
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "https://murmur.example", cfg.PublicURL)
	assert.Equal(t, "like_count", cfg.FeedOrder)
	assert.Equal(t, 20, cfg.FeedLimit)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseURL:       "postgres://localhost/murmur",
		SessionSecret:     strings.Repeat("s", 32),
		JWTSecret:         strings.Repeat("j", 32),
		FeedOrder:         "created_at",
		FeedLimit:         60,
		ChangeFeed:        ChangeFeedNATS,
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.SessionSecret = "short"
	bad.FeedOrder = "random"
	bad.ChangeFeed = "kafka"
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
	assert.Contains(t, err.Error(), "FEED_ORDER")
	assert.Contains(t, err.Error(), "CHANGE_FEED")
}

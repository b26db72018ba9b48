package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transithours/internal/servicehours"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FEED_BASE_URL", "https://intake.example.com/feeds")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://intake.example.com/feeds", cfg.FeedBaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, servicehours.UnblockedTripsExcluded, cfg.UnblockedTripPolicy)
	assert.Equal(t, 2, cfg.JobConcurrency)
	assert.Equal(t, 6*time.Hour, cfg.FeedTTL)
	assert.False(t, cfg.RedisEnabled)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 60, cfg.RateLimitPerWindow)
	assert.Nil(t, cfg.RateLimitWhitelist)
}

func TestLoadRequiresFeedBaseURL(t *testing.T) {
	t.Setenv("FEED_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_BASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FEED_BASE_URL", "https://intake.example.com/feeds")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("UNBLOCKED_TRIP_POLICY", "per_trip")
	t.Setenv("JOB_CONCURRENCY", "8")
	t.Setenv("FEED_TTL", "30m")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, servicehours.UnblockedTripsPerTrip, cfg.UnblockedTripPolicy)
	assert.Equal(t, 8, cfg.JobConcurrency)
	assert.Equal(t, 30*time.Minute, cfg.FeedTTL)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.RateLimitWhitelist)
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	t.Setenv("FEED_BASE_URL", "https://intake.example.com/feeds")
	t.Setenv("UNBLOCKED_TRIP_POLICY", "sideways")

	_, err := Load()
	require.Error(t, err)
}

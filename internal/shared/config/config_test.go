package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "tracker-service")

	cfg := Load()

	assert.Equal(t, "tracker-service", cfg.ServiceName)
	assert.Equal(t, "8083", cfg.HTTPPort)
	assert.Equal(t, "9099", cfg.MetricsPort)
	assert.Equal(t, "bet_activity", cfg.TopicBetActivity)
	assert.Equal(t, "bet_activity_dlq", cfg.TopicBetActivityDLQ)
	assert.Equal(t, 5, cfg.ProvisionalThreshold)
	assert.Equal(t, 5*time.Minute, cfg.LeaderboardCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "leaderboard-service")
	t.Setenv("HTTP_PORT_LEADERBOARD", "9000")
	t.Setenv("LEADERBOARD_PROVISIONAL_THRESHOLD", "3")
	t.Setenv("LEADERBOARD_CACHE_TTL", "30s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("STATS_TIMEZONE", "Not/AZone")

	cfg := Load()

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.ProvisionalThreshold)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardCacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadIgnoresBadNumbers(t *testing.T) {
	t.Setenv("LEADERBOARD_PROVISIONAL_THRESHOLD", "five")
	t.Setenv("LEADERBOARD_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.ProvisionalThreshold)
	assert.Equal(t, 5*time.Minute, cfg.LeaderboardCacheTTL)
}

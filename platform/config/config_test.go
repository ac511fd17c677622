package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ALLOW_ALL", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.GetMinimumEnrollmentPercent())
	assert.Equal(t, "FR", cfg.GetPhoneRegion())
	assert.Equal(t, 5*time.Minute, cfg.GetLeadCacheTTL())
	assert.Equal(t, "leads", cfg.GetAsynqQueueName())
	assert.False(t, cfg.IsSMTPEnabled())
	assert.Equal(t, int32(25), cfg.GetDBMaxConns())
	assert.Equal(t, int32(5), cfg.GetDBMinConns())
	assert.Equal(t, 20.0, cfg.GetRateLimitRPS())
	assert.Equal(t, 40, cfg.GetRateLimitBurst())
}

func TestLoadRejectsInvertedPoolBounds(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_MIN_CONNS", "8")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MIN_CONNS")
}

func TestLoadRejectsOutOfRangeEnrollmentPercent(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("MIN_ENROLLMENT_PERCENT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_ENROLLMENT_PERCENT")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
}

func TestCacheEnabledNeedsRedisAndTTL(t *testing.T) {
	cfg := &Config{RedisURL: "redis://localhost:6379/0", LeadCacheTTL: time.Minute}
	assert.True(t, cfg.IsLeadCacheEnabled())

	cfg.LeadCacheTTL = 0
	assert.False(t, cfg.IsLeadCacheEnabled())
}

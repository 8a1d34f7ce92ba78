package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 60*time.Second, cfg.Redis.StatsTTL)
	assert.Equal(t, "bookings.events", cfg.Kafka.BookingTopic)
	assert.Equal(t, 4, cfg.Worker.MaxWorkers)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("STATS_CACHE_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RATELIMITER_REQUESTS_COUNT", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.StatsTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.RateLimiter.RequestsPerTimeFrame)
}

func TestLoad_ProductionNeedsSecrets(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_TOKEN_SECRET", "")
	t.Setenv("AUTH_TOKEN_REFRESH_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("STATS_CACHE_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

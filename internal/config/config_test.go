package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analytics "github.com/dmehra2102/ecobazaar/internal/analytics/domain"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "order.events", cfg.OutboxTopic)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Equal(t, "admin@ecobazaar.com", cfg.Admin.Email)
	assert.Equal(t, "System Administrator", cfg.Admin.FullName)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, "ecobazaar-analytics", cfg.ConsumerGroup)
	assert.Equal(t, analytics.DefaultScoringConfig(), cfg.Scoring)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(lookup(map[string]string{
		"KAFKA_ADDR":          "k1:9092,k2:9092",
		"CART_CACHE_TTL":      "90s",
		"ECO_GREEN_THRESHOLD": "3.5",
		"OUTBOX_MAX_RETRIES":  "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.CartCacheTTL)
	assert.Equal(t, 3.5, cfg.Scoring.GreenThreshold)
	assert.Equal(t, analytics.DefaultBaselinePerOrder, cfg.Scoring.BaselinePerOrder)
	assert.Equal(t, 3, cfg.OutboxRetries)
}

func TestLoad_ReportsEveryBadValue(t *testing.T) {
	_, err := load(lookup(map[string]string{
		"IDEMPOTENCY_TTL":      "soon",
		"ECO_SCORE_MULTIPLIER": "-1",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDEMPOTENCY_TTL")
	assert.Contains(t, err.Error(), "ECO_SCORE_MULTIPLIER")
}

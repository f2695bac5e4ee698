package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/trender/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigLayersFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  id: trender-test
  http_port: 8181
  treasury_admin: file-admin
dependencies:
  redis_url: redis://localhost:6379/0
  kafka_brokers: [" broker-1:9092 ", ""]
  kafka_topics:
    hype_sold: custom.sold
ledger:
  candle_interval: 1m
workers:
  outbox_poll_interval: 500ms
`)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TREASURY_ADMIN", "env-admin")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("POOL_CACHE_TTL", "45s")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "trender-test", cfg.ServiceID)
	assert.Equal(t, 8181, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "env-admin", cfg.TreasuryAdmin)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.CandleInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 45*time.Second, cfg.PoolCacheTTL)
	assert.Equal(t, "custom.sold", cfg.topicByEvent()[domain.EventHypeSold])
	assert.Equal(t, "trender.hype.purchased", cfg.topicByEvent()[domain.EventHypePurchased])
	assert.True(t, cfg.InProcessWorkers)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TREASURY_ADMIN", "admin")
	t.Setenv("DB_URL", "postgres://localhost/trender")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "trender-hype-ledger", cfg.ServiceID)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 10*time.Second, cfg.PoolLockExpiry)
	assert.False(t, cfg.InProcessWorkers)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TREASURY_ADMIN", "admin")
	_, err := LoadConfig(writeConfig(t, "service: {}\n"))
	require.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	_, err = LoadConfig(writeConfig(t, "ledger:\n  candle_window: soon\n"))
	require.ErrorContains(t, err, "ledger.candle_window")

	_, err = LoadConfig(writeConfig(t, "dependencies:\n  kafka_topics:\n    pool_deleted: x\n"))
	require.ErrorContains(t, err, "pool_deleted")
}

package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/viralforge/trender/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config is built from code defaults, then configs/*.yaml, then the
// environment. An empty DatabaseURL runs the ledger on the in-memory store.
type Config struct {
	ServiceID string `env:"SERVICE_ID"`

	HTTPPort int `env:"HTTP_PORT"`
	GRPCPort int `env:"GRPC_PORT"`

	DatabaseURL  string   `env:"DB_URL"`
	MaxDBConns   int32    `env:"DB_MAX_CONNS"`
	RedisURL     string   `env:"REDIS_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	KafkaConsumerGroup          string `env:"KAFKA_CONSUMER_GROUP"`
	KafkaTopicPoolCreated       string `env:"KAFKA_TOPIC_POOL_CREATED"`
	KafkaTopicHypePurchased     string `env:"KAFKA_TOPIC_HYPE_PURCHASED"`
	KafkaTopicHypeSold          string `env:"KAFKA_TOPIC_HYPE_SOLD"`
	KafkaTopicHypeReleased      string `env:"KAFKA_TOPIC_HYPE_RELEASED"`
	KafkaTopicTreasuryWithdrawn string `env:"KAFKA_TOPIC_TREASURY_WITHDRAWN"`

	JWTSecret     string `env:"JWT_SECRET"`
	JWTIssuer     string `env:"JWT_ISSUER"`
	TreasuryAdmin string `env:"TREASURY_ADMIN"`

	OutboxPollInterval   time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize      int           `env:"OUTBOX_BATCH_SIZE"`
	ConsumerPollInterval time.Duration `env:"CONSUMER_POLL_INTERVAL"`
	InProcessWorkers     bool          `env:"IN_PROCESS_WORKERS"`

	BreakerFailures uint32        `env:"PUBLISHER_BREAKER_FAILURES"`
	BreakerTimeout  time.Duration `env:"PUBLISHER_BREAKER_TIMEOUT"`

	PoolCacheTTL   time.Duration `env:"POOL_CACHE_TTL"`
	PoolLockExpiry time.Duration `env:"POOL_LOCK_EXPIRY"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL"`
	EventDedupTTL  time.Duration `env:"EVENT_DEDUP_TTL"`
	CandleInterval time.Duration `env:"CANDLE_INTERVAL"`
	CandleWindow   time.Duration `env:"CANDLE_WINDOW"`
}

type configFile struct {
	Service struct {
		ID            string `yaml:"id"`
		HTTPPort      int    `yaml:"http_port"`
		GRPCPort      int    `yaml:"grpc_port"`
		TreasuryAdmin string `yaml:"treasury_admin"`
		JWTIssuer     string `yaml:"jwt_issuer"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL        string            `yaml:"postgres_url"`
		RedisURL           string            `yaml:"redis_url"`
		KafkaBrokers       []string          `yaml:"kafka_brokers"`
		KafkaConsumerGroup string            `yaml:"kafka_consumer_group"`
		KafkaTopics        map[string]string `yaml:"kafka_topics"`
	} `yaml:"dependencies"`
	Ledger struct {
		PoolCacheTTL   string `yaml:"pool_cache_ttl"`
		PoolLockExpiry string `yaml:"pool_lock_expiry"`
		CandleInterval string `yaml:"candle_interval"`
		CandleWindow   string `yaml:"candle_window"`
	} `yaml:"ledger"`
	Workers struct {
		OutboxPollInterval   string `yaml:"outbox_poll_interval"`
		OutboxBatchSize      int    `yaml:"outbox_batch_size"`
		ConsumerPollInterval string `yaml:"consumer_poll_interval"`
		InProcess            *bool  `yaml:"in_process"`
	} `yaml:"workers"`
}

func defaultConfig() Config {
	return Config{
		ServiceID:                   "trender-hype-ledger",
		HTTPPort:                    8080,
		GRPCPort:                    9090,
		MaxDBConns:                  20,
		KafkaConsumerGroup:          "trender-hype-ledger",
		KafkaTopicPoolCreated:       "trender.pool.created",
		KafkaTopicHypePurchased:     "trender.hype.purchased",
		KafkaTopicHypeSold:          "trender.hype.sold",
		KafkaTopicHypeReleased:      "trender.hype.released",
		KafkaTopicTreasuryWithdrawn: "trender.treasury.withdrawn",
		JWTIssuer:                   "trender",
		OutboxPollInterval:          2 * time.Second,
		OutboxBatchSize:             100,
		ConsumerPollInterval:        2 * time.Second,
		BreakerFailures:             5,
		BreakerTimeout:              30 * time.Second,
		PoolCacheTTL:                30 * time.Second,
		PoolLockExpiry:              10 * time.Second,
		IdempotencyTTL:              7 * 24 * time.Hour,
		EventDedupTTL:               7 * 24 * time.Hour,
		CandleInterval:              5 * time.Minute,
		CandleWindow:                24 * time.Hour,
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyConfigFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = trimNonEmpty(cfg.KafkaBrokers)
	if cfg.DatabaseURL == "" {
		cfg.InProcessWorkers = true
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	if strings.TrimSpace(cfg.TreasuryAdmin) == "" {
		return Config{}, fmt.Errorf("missing TREASURY_ADMIN")
	}
	return cfg, nil
}

func applyConfigFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Service.TreasuryAdmin != "" {
		cfg.TreasuryAdmin = f.Service.TreasuryAdmin
	}
	if f.Service.JWTIssuer != "" {
		cfg.JWTIssuer = f.Service.JWTIssuer
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	if f.Dependencies.KafkaConsumerGroup != "" {
		cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
	}
	topics := map[string]*string{
		"pool_created":       &cfg.KafkaTopicPoolCreated,
		"hype_purchased":     &cfg.KafkaTopicHypePurchased,
		"hype_sold":          &cfg.KafkaTopicHypeSold,
		"hype_released":      &cfg.KafkaTopicHypeReleased,
		"treasury_withdrawn": &cfg.KafkaTopicTreasuryWithdrawn,
	}
	for name, topic := range f.Dependencies.KafkaTopics {
		dst, ok := topics[name]
		if !ok {
			return fmt.Errorf("parse config file: unknown kafka topic %q", name)
		}
		if topic != "" {
			*dst = topic
		}
	}

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"ledger.pool_cache_ttl", f.Ledger.PoolCacheTTL, &cfg.PoolCacheTTL},
		{"ledger.pool_lock_expiry", f.Ledger.PoolLockExpiry, &cfg.PoolLockExpiry},
		{"ledger.candle_interval", f.Ledger.CandleInterval, &cfg.CandleInterval},
		{"ledger.candle_window", f.Ledger.CandleWindow, &cfg.CandleWindow},
		{"workers.outbox_poll_interval", f.Workers.OutboxPollInterval, &cfg.OutboxPollInterval},
		{"workers.consumer_poll_interval", f.Workers.ConsumerPollInterval, &cfg.ConsumerPollInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse config file: %s: %w", d.field, err)
		}
		*d.dst = v
	}
	if f.Workers.OutboxBatchSize > 0 {
		cfg.OutboxBatchSize = f.Workers.OutboxBatchSize
	}
	if f.Workers.InProcess != nil {
		cfg.InProcessWorkers = *f.Workers.InProcess
	}
	return nil
}

func (c Config) topicByEvent() map[string]string {
	return map[string]string{
		domain.EventPoolCreated:       c.KafkaTopicPoolCreated,
		domain.EventHypePurchased:     c.KafkaTopicHypePurchased,
		domain.EventHypeSold:          c.KafkaTopicHypeSold,
		domain.EventHypeReleased:      c.KafkaTopicHypeReleased,
		domain.EventTreasuryWithdrawn: c.KafkaTopicTreasuryWithdrawn,
	}
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean.
type Config struct {
	Addr        string
	MetricsAddr string

	// PostgresURL enables the durable snapshot store; empty means in-memory.
	PostgresURL string

	Redis RedisConfig

	// KafkaBrokers enables the audit trail publisher; empty means disabled.
	KafkaBrokers []string
	AuditTopic   string

	ResumeTokenKey string
	ResumeTokenTTL time.Duration

	// DraftTTL bounds how long an unfinished registration draft survives in
	// the Redis draft cache.
	DraftTTL time.Duration

	// CatalogRefreshTTL marks how long an ingested catalog is considered
	// fresh before the caller should re-fetch availability.
	CatalogRefreshTTL time.Duration

	// CatalogBaseURL is the upstream event catalog API.
	CatalogBaseURL string

	// PaymentsBaseURL enables the payment gateway client; empty disables
	// payment intents.
	PaymentsBaseURL string
	PaymentsAPIKey  string

	// DirectoryBaseURL enables member prefill from the fraternal directory.
	DirectoryBaseURL string
}

// RedisConfig mirrors the go-redis client knobs we care about.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("CORNERSTONE_ADDR", ":8080"),
		MetricsAddr: envOr("CORNERSTONE_METRICS_ADDR", ":9090"),
		PostgresURL: os.Getenv("CORNERSTONE_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CORNERSTONE_REDIS_URL"),
			PoolSize:     envIntOr("CORNERSTONE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("CORNERSTONE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDurationOr("CORNERSTONE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("CORNERSTONE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("CORNERSTONE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		AuditTopic:        envOr("CORNERSTONE_AUDIT_TOPIC", "cornerstone.registration.audit"),
		ResumeTokenKey:    envOr("CORNERSTONE_RESUME_TOKEN_KEY", "dev-secret-key-change-in-production"),
		ResumeTokenTTL:    envDurationOr("CORNERSTONE_RESUME_TOKEN_TTL", 24*time.Hour),
		DraftTTL:          envDurationOr("CORNERSTONE_DRAFT_TTL", 72*time.Hour),
		CatalogRefreshTTL: envDurationOr("CORNERSTONE_CATALOG_REFRESH_TTL", 5*time.Minute),
		CatalogBaseURL:    envOr("CORNERSTONE_CATALOG_BASE_URL", "http://localhost:8090"),
		PaymentsBaseURL:   os.Getenv("CORNERSTONE_PAYMENTS_BASE_URL"),
		PaymentsAPIKey:    os.Getenv("CORNERSTONE_PAYMENTS_API_KEY"),
		DirectoryBaseURL:  os.Getenv("CORNERSTONE_DIRECTORY_BASE_URL"),
	}
	if brokers := os.Getenv("CORNERSTONE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

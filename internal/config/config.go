// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the REST API server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// CollabAddr is the address the collaboration WebSocket server listens on (e.g. :3001).
	CollabAddr string `mapstructure:"COLLAB_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis host:port used for presence, rate limiting, and the redis fan-out driver.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the Redis AUTH password; empty for no auth.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB is the Redis logical database number.
	RedisDB int `mapstructure:"REDIS_DB"`
	// FanoutDriver selects the cross-instance edit bus: "redis" (pub/sub) or "nats".
	FanoutDriver string `mapstructure:"FANOUT_DRIVER"`
	// NATSURL is the NATS server URL; required when FANOUT_DRIVER=nats.
	NATSURL string `mapstructure:"NATS_URL"`
	// JWTSecret is the HS256 signing secret shared with the API service.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "codesync-api").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "codesync").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTTTL is the access token lifetime (e.g. "24h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// PresenceTTLSeconds is the expiry of presence set keys; refreshed on join and edit.
	PresenceTTLSeconds int `mapstructure:"PRESENCE_TTL_SECONDS"`
	// EditHistoryLimit caps the per-session recent-edit ring kept for debugging.
	EditHistoryLimit int `mapstructure:"EDIT_HISTORY_LIMIT"`
	// IdleTimeout is how long a session may sit without activity before the
	// sweeper flushes it (e.g. "30m"). Empty disables the sweep.
	IdleTimeout string `mapstructure:"IDLE_TIMEOUT"`
	// RateLimitPerMinute caps API requests per client IP per minute.
	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses.
	// When set, services emit activity events to Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// ActivityKafkaTopic is the Kafka topic for activity events (default codesync-activity).
	ActivityKafkaTopic string `mapstructure:"ACTIVITY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group used by the activity worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is the Grafana Loki base URL (e.g. http://localhost:3100).
	// The worker pushes activity events there; when Kafka is not configured
	// the services push directly instead.
	LokiURL string `mapstructure:"LOKI_URL"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("COLLAB_ADDR", ":3001")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("FANOUT_DRIVER", "redis")
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "codesync-api")
	v.SetDefault("JWT_AUDIENCE", "codesync")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("PRESENCE_TTL_SECONDS", 3600)
	v.SetDefault("EDIT_HISTORY_LIMIT", 100)
	v.SetDefault("IDLE_TIMEOUT", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 100)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ACTIVITY_KAFKA_TOPIC", "codesync-activity")
	v.SetDefault("KAFKA_GROUP_ID", "codesync-activity-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.CollabAddr == "" {
		return nil, errors.New("config: COLLAB_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	switch cfg.FanoutDriver {
	case "redis", "nats":
	default:
		return nil, errors.New("config: FANOUT_DRIVER must be redis or nats")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.PresenceTTLSeconds <= 0 {
		return nil, errors.New("config: PRESENCE_TTL_SECONDS must be positive")
	}
	if cfg.EditHistoryLimit <= 0 {
		return nil, errors.New("config: EDIT_HISTORY_LIMIT must be positive")
	}

	return &cfg, nil
}

// TokenTTL parses JWTTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// PresenceTTL returns the presence key expiry as a duration.
func (c *Config) PresenceTTL() time.Duration {
	return time.Duration(c.PresenceTTLSeconds) * time.Second
}

// IdleTimeoutDuration parses IdleTimeout. Returns 0 (sweep disabled) if unset or invalid.
func (c *Config) IdleTimeoutDuration() time.Duration {
	if strings.TrimSpace(c.IdleTimeout) == "" {
		return 0
	}
	d, err := time.ParseDuration(c.IdleTimeout)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// KafkaBrokerList splits KafkaBrokers on commas, trimming blanks. Nil when unset.
func (c *Config) KafkaBrokerList() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

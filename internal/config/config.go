package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Embedding    EmbeddingConfig
	Scoring      ScoringConfig
	SLA          SLAConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// embedding cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines how caller tokens are verified. Tokens are issued by the
// identity service; this service only checks them.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Disabled  bool
}

// NotificationConfig holds notification targets. Email is logged, not sent.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// EmbeddingConfig points at an OpenAI-compatible embeddings endpoint.
type EmbeddingConfig struct {
	APIKey                 string
	BaseURL                string
	Model                  string
	TimeoutSeconds         int
	CacheTTLMinutes        int
	BreakerFailures        int
	BreakerOpenSeconds     int
	BreakerIntervalSeconds int
}

// ScoringConfig tunes the analysis pipeline.
type ScoringConfig struct {
	HistoryLimit     int
	FallbackToQuick  bool
	CreationStrategy string
}

// SLAConfig controls deadline policies and the breach sweep.
type SLAConfig struct {
	SweepSchedule string
	PolicyFile    string
	SweepBatch    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "resolveiq"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
			Issuer:    os.Getenv("AUTH_JWT_ISSUER"),
			Disabled:  getEnvAsBool("AUTH_DISABLED", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Embedding: EmbeddingConfig{
			APIKey:                 os.Getenv("EMBEDDING_API_KEY"),
			BaseURL:                os.Getenv("EMBEDDING_BASE_URL"),
			Model:                  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			TimeoutSeconds:         getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 10),
			CacheTTLMinutes:        getEnvAsInt("EMBEDDING_CACHE_TTL_MINUTES", 1440),
			BreakerFailures:        getEnvAsInt("EMBEDDING_BREAKER_FAILURES", 5),
			BreakerOpenSeconds:     getEnvAsInt("EMBEDDING_BREAKER_OPEN_SECONDS", 30),
			BreakerIntervalSeconds: getEnvAsInt("EMBEDDING_BREAKER_INTERVAL_SECONDS", 60),
		},
		Scoring: ScoringConfig{
			HistoryLimit:     getEnvAsInt("SCORING_HISTORY_LIMIT", 200),
			FallbackToQuick:  getEnvAsBool("SCORING_FALLBACK_TO_QUICK", false),
			CreationStrategy: strings.ToLower(getEnv("SCORING_CREATION_STRATEGY", "quick")),
		},
		SLA: SLAConfig{
			SweepSchedule: getEnv("SLA_SWEEP_SCHEDULE", "@every 5m"),
			PolicyFile:    os.Getenv("SLA_POLICY_FILE"),
			SweepBatch:    getEnvAsInt("SLA_SWEEP_BATCH", 100),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Scoring.CreationStrategy {
	case "quick", "full":
	default:
		return fmt.Errorf("invalid SCORING_CREATION_STRATEGY %q: want quick or full", c.Scoring.CreationStrategy)
	}
	if c.Scoring.HistoryLimit <= 0 {
		return fmt.Errorf("invalid SCORING_HISTORY_LIMIT: must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout bounds one embedding request.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// CacheTTL is how long cached vectors live in Redis.
func (e EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLMinutes) * time.Minute
}

// Enabled reports whether an embedding endpoint is configured.
func (e EmbeddingConfig) Enabled() bool {
	return e.APIKey != "" || e.BaseURL != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

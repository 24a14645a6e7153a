package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewExportConfigHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	Database DatabaseConfig
	Log      LogConfig
	Otel     OtelConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UploadDir      string
	MaxUploadBytes int64

	AI        AIConfig
	Ingest    IngestConfig
	Janitor   JanitorConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// OtelConfig points traces and metrics at an OTLP collector.
type OtelConfig struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

// AIConfig configures the document extraction service used for unstructured files.
type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func (c AIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type IngestConfig struct {
	SerializeCarrier bool
	LockTTL          time.Duration
}

// RateLimitConfig bounds uploads and AI mapping suggestions per caller.
type RateLimitConfig struct {
	Enabled bool
	Rate    float64
	Burst   int
}

type JanitorConfig struct {
	Enabled    bool
	Schedule   string
	StaleAfter time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "revbox"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		NodeID:      int64(getenvInt("SNOWFLAKE_NODE", 1)),
		Database: DatabaseConfig{
			Type:            getenv("DATABASE_TYPE", "postgres"),
			Host:            getenv("DATABASE_HOST", "localhost"),
			Port:            getenv("DATABASE_PORT", "5432"),
			Name:            getenv("DATABASE_NAME", "revbox"),
			User:            getenv("DATABASE_USER", "postgres"),
			Password:        getenv("DATABASE_PASSWORD", ""),
			SSLMode:         getenv("DATABASE_SSLMODE", "disable"),
			MaxIdleConns:    getenvInt("DATABASE_MAX_IDLE_CONN", 5),
			MaxOpenConns:    getenvInt("DATABASE_MAX_OPEN_CONN", 20),
			ConnMaxLifetime: getenvDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getenvDuration("DATABASE_CONN_MAX_IDLE_TIME", time.Minute),
		},
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			Format: strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		},
		Otel: OtelConfig{
			Enabled:       getenvBool("OTEL_ENABLED", true),
			Endpoint:      strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			Protocol:      strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvRatio("OTEL_SAMPLING_RATIO", 0.1),
		},
		RedisAddr:      strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		RedisDB:        getenvInt("REDIS_DB", 0),
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: getenvInt64("MAX_UPLOAD_BYTES", 32<<20),
		AI: AIConfig{
			BaseURL: strings.TrimSpace(getenv("AI_BASE_URL", "https://api.openai.com/v1")),
			APIKey:  strings.TrimSpace(getenv("AI_API_KEY", "")),
			Model:   getenv("AI_MODEL", "gpt-4o-mini"),
			Timeout: getenvDuration("AI_EXTRACTION_TIMEOUT", 2*time.Minute),
		},
		Ingest: IngestConfig{
			SerializeCarrier: getenvBool("INGEST_SERIALIZE_CARRIER", true),
			LockTTL:          getenvDuration("INGEST_LOCK_TTL", 30*time.Second),
		},
		Janitor: JanitorConfig{
			Enabled:    getenvBool("JANITOR_ENABLED", true),
			Schedule:   getenv("JANITOR_SCHEDULE", "@every 5m"),
			StaleAfter: getenvDuration("JANITOR_STALE_AFTER", 30*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled: getenvBool("RATE_LIMIT_ENABLED", false),
			Rate:    getenvFloat("RATE_LIMIT_INGEST_RATE", 0.5),
			Burst:   getenvInt("RATE_LIMIT_INGEST_BURST", 10),
		},
	}

	return cfg
}

// IsProduction selects gin release mode and the sampled logger preset.
func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvRatio(key string, def float64) float64 {
	ratio := getenvFloat(key, def)
	if ratio < 0 || ratio > 1 {
		return def
	}
	return ratio
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"video-summary-be/pkg/chunker"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	LLM        LLMConfig
	Summary    SummaryConfig
	Cache      CacheConfig
	Events     EventsConfig
	Transcript TranscriptConfig
	Tracing    TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
}

type LLMConfig struct {
	Provider            string // "cloudflare", "ollama", "openai", "huggingface", "anthropic", "google"
	Model               string // e.g. "@cf/meta/llama-3-8b-instruct", "llama3"
	BaseURL             string
	APIKey              string
	CloudflareAccountID string
	CloudflareAPIKey    string
	Timeout             time.Duration // per invocation
	RetryAttempts       int
	RetryBackoff        time.Duration
	RetryBackoffMax     time.Duration
}

type SummaryConfig struct {
	Strategy       string // "map_reduce" or "refine"
	ChunkSize      int
	ChunkOverlap   int
	MaxConcurrency int
}

type CacheConfig struct {
	Driver   string // "memory", "redis", "none"
	TTL      time.Duration
	RedisURL string
}

type EventsConfig struct {
	Bus     string // "gochannel", "nats", "none"
	NatsURL string
	Topic   string
}

type TranscriptConfig struct {
	BaseURL  string
	Language string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "summary_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		LLM: LLMConfig{
			Provider:            getEnv("LLM_PROVIDER", "cloudflare"),
			Model:               getEnv("LLM_MODEL", "@cf/meta/llama-3-8b-instruct"),
			BaseURL:             getEnv("LLM_BASE_URL", ""),
			APIKey:              getEnv("LLM_API_KEY", ""),
			CloudflareAccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			CloudflareAPIKey:    getEnv("CLOUDFLARE_API_KEY", ""),
			Timeout:             getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			RetryAttempts:       getEnvAsInt("LLM_RETRY_ATTEMPTS", 3),
			RetryBackoff:        getEnvAsDuration("LLM_RETRY_BACKOFF", 500*time.Millisecond),
			RetryBackoffMax:     getEnvAsDuration("LLM_RETRY_BACKOFF_MAX", 10*time.Second),
		},
		Summary: SummaryConfig{
			Strategy:       getEnv("SUMMARY_STRATEGY", "map_reduce"),
			ChunkSize:      getEnvAsInt("CHUNK_SIZE", 7000),
			ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 1000),
			MaxConcurrency: getEnvAsInt("MAX_CONCURRENT_MAP", 4),
		},
		Cache: CacheConfig{
			Driver:   getEnv("CACHE_DRIVER", "memory"),
			TTL:      getEnvAsDuration("CACHE_TTL", time.Hour),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Events: EventsConfig{
			Bus:     getEnv("EVENT_BUS", "gochannel"),
			NatsURL: getEnv("NATS_URL", "nats://localhost:4222"),
			Topic:   getEnv("SUMMARY_EVENT_TOPIC", "SUMMARY_COMPLETED"),
		},
		Transcript: TranscriptConfig{
			BaseURL:  getEnv("YOUTUBE_BASE_URL", "https://www.youtube.com"),
			Language: getEnv("TRANSCRIPT_LANGUAGE", "en"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if _, err := chunker.New(c.Summary.ChunkSize, c.Summary.ChunkOverlap); err != nil {
		return err
	}
	if c.Summary.MaxConcurrency <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_MAP must be positive, got %d", c.Summary.MaxConcurrency)
	}
	switch c.Summary.Strategy {
	case "map_reduce", "refine":
	default:
		return fmt.Errorf("unknown SUMMARY_STRATEGY %q", c.Summary.Strategy)
	}
	if strings.EqualFold(c.LLM.Provider, "cloudflare") && (c.LLM.CloudflareAccountID == "" || c.LLM.CloudflareAPIKey == "") {
		return fmt.Errorf("CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_API_KEY are required for the cloudflare provider")
	}
	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.Cache.Driver)
	}
	switch c.Events.Bus {
	case "gochannel", "nats", "none":
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.Events.Bus)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
		// Disabled skips postgres entirely and runs on the in-memory
		// store. Development convenience only.
		Disabled bool
	}

	// LLM backend configuration
	LLM struct {
		OpenAIKey     string
		OpenAIBaseURL string
		OpenAIModel   string
		LocalURL      string
		LocalModel    string
		MaxTokens     int
		Timeout       time.Duration
		MockDelay     time.Duration
	}

	// Sentiment model configuration (optional external classifier)
	Sentiment struct {
		APIKey string
		URL    string
	}

	// RateLimit is the per-client chat quota (fixed window)
	RateLimit struct {
		Window      time.Duration
		MaxRequests int
	}

	// Security configuration
	Security struct {
		ThrottleRPS    float64
		ThrottleBurst  int
		AllowedOrigins []string
		TrustedProxies []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level     string
		Format    string
		RingSize  int
		DebugLogs bool
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	// Redis settings (optional persona cache backend)
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
		instance.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+instance.Server.Port)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "persona-chat")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)
		instance.Database.Disabled = getEnvBool("DB_DISABLED", false)

		// LLM config
		instance.LLM.OpenAIKey = getEnvString("OPENAI_API_KEY", "")
		instance.LLM.OpenAIBaseURL = getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1")
		instance.LLM.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-3.5-turbo")
		instance.LLM.LocalURL = getEnvString("LOCAL_LLM_URL", "")
		instance.LLM.LocalModel = getEnvString("LOCAL_LLM_MODEL", "local-model")
		instance.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", 500)
		instance.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", 30*time.Second)
		instance.LLM.MockDelay = getEnvDuration("LLM_MOCK_DELAY", time.Second)

		// Sentiment model config
		instance.Sentiment.APIKey = getEnvString("SENTIMENT_API_KEY", "")
		instance.Sentiment.URL = getEnvString("SENTIMENT_API_URL", "")

		// Rate limit config (fixed window per client IP)
		instance.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
		instance.RateLimit.MaxRequests = getEnvInt("RATE_LIMIT_MAX", 100)

		// Security config
		instance.Security.ThrottleRPS = float64(getEnvInt("THROTTLE_RPS", 5))
		instance.Security.ThrottleBurst = getEnvInt("THROTTLE_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
		instance.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})
		instance.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")
		instance.Logging.RingSize = getEnvInt("LOG_RING_SIZE", 1000)
		instance.Logging.DebugLogs = getEnvBool("ENABLE_DEBUG_LOGS", true)

		// Cache settings
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

		// Redis settings
		instance.Redis.Addr = getEnvString("REDIS_URL", "")
		instance.Redis.Password = getEnvString("REDIS_PASSWORD", "")
		instance.Redis.DB = getEnvInt("REDIS_DB", 0)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Plain integers are treated as milliseconds, matching the
		// RATE_LIMIT_WINDOW=900000 convention.
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Chat
	ChatHistoryLimit int
	ChatTimeout      time.Duration
	ChatRateLimit    int

	// Database (optional, enables lead capture)
	DatabaseURL string

	// Redis (optional, enables shared rate limiting and lead notifications)
	RedisURL string

	// SMTP
	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPass         string
	SMTPFrom         string
	LeadsNotifyEmail string

	// Frontend
	FrontendURL string
	StaticDir   string

	// AWS SSM prefix for secrets
	ParamPrefix string
}

// ParamGetter reads a single secret parameter by name.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		ChatHistoryLimit:     getEnvAsIntOrDefault("CHAT_HISTORY_LIMIT", 20),
		ChatTimeout:          getEnvAsDurationOrDefault("CHAT_TIMEOUT", 60*time.Second),
		ChatRateLimit:        getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 20),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		SMTPHost:             getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:             getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:             getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:             getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:             getEnvOrDefault("SMTP_FROM", "noreply@mensor.by"),
		LeadsNotifyEmail:     getEnvOrDefault("LEADS_NOTIFY_EMAIL", "info@mensor.by"),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		StaticDir:            os.Getenv("STATIC_DIR"),
		ParamPrefix:          strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
	}

	return cfg
}

// IsDevelopment reports whether the process runs with ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadSecrets fills secrets missing from the environment from the parameter
// store under ParamPrefix. It is a no-op without a prefix.
func (c *Config) LoadSecrets(ctx context.Context, params ParamGetter) error {
	if c.ParamPrefix == "" || c.GeminiAPIKey != "" {
		return nil
	}
	if params == nil {
		return errors.New("config: parameter store is required when PARAM_PREFIX is set")
	}
	key, err := params.GetParameter(ctx, c.ParamPrefix+"/gemini-api-key")
	if err != nil {
		return errors.Wrap(err, "config: load gemini api key")
	}
	c.GeminiAPIKey = strings.TrimSpace(key)
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	DBMaxConns       int
	DBConnectTimeout time.Duration

	RenderBaseURL         string
	RenderAPIKey          string
	RenderRequestTimeout  time.Duration
	RenderPollInterval    time.Duration
	RenderPollMaxAttempts int
	RenderMaxConcurrent   int

	CORSAllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		DBMaxConns:       getEnvInt("DB_MAX_CONNS", 10),
		DBConnectTimeout: time.Second * time.Duration(getEnvInt("DB_CONNECT_TIMEOUT_SECONDS", 10)),

		RenderBaseURL:         getEnv("RENDER_BASE_URL", "https://api.renderfarm.example.com/v1"),
		RenderAPIKey:          os.Getenv("RENDER_API_KEY"),
		RenderRequestTimeout:  time.Second * time.Duration(getEnvInt("RENDER_REQUEST_TIMEOUT_SECONDS", 60)),
		RenderPollInterval:    time.Second * time.Duration(getEnvInt("RENDER_POLL_INTERVAL_SECONDS", 30)),
		RenderPollMaxAttempts: getEnvInt("RENDER_POLL_MAX_ATTEMPTS", 60),
		RenderMaxConcurrent:   getEnvInt("RENDER_MAX_CONCURRENT", 8),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RenderAPIKey == "" {
		return nil, fmt.Errorf("RENDER_API_KEY is required")
	}

	if cfg.RenderPollMaxAttempts <= 0 {
		return nil, fmt.Errorf("RENDER_POLL_MAX_ATTEMPTS must be positive")
	}

	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

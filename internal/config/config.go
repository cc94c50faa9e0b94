package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	ScoringBaseURL      string  `env:"SCORING_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	RequestTimeout      int     `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds, 0 disables
	RequestsPerSec      int     `env:"REQUESTS_PER_SEC" envDefault:"5"`
	WaitForBackend      int     `env:"WAIT_FOR_BACKEND" envDefault:"0"` // seconds, 0 disables
	ListenAddr          string  `env:"LISTEN_ADDR" envDefault:":8080"`
	SessionIdleTimeout  int     `env:"SESSION_IDLE_TIMEOUT" envDefault:"1800"` // seconds
	LogLevel            string  `env:"LOG_LEVEL" envDefault:"info"`
	TelegramBotToken    string  `env:"TELEGRAM_BOT_TOKEN"`
	AlertChatID         int64   `env:"ALERT_CHAT_ID" envDefault:"0"`
	HighRiskProbability float64 `env:"HIGH_RISK_PROBABILITY" envDefault:"0.75"`
	VIPMonetary         float64 `env:"VIP_MONETARY" envDefault:"1000"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.ScoringBaseURL = getEnvWithDefault("SCORING_BASE_URL", "http://127.0.0.1:8000")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.WaitForBackend = getEnvIntWithDefault("WAIT_FOR_BACKEND", 0)
	cfg.ListenAddr = getEnvWithDefault("LISTEN_ADDR", ":8080")
	cfg.SessionIdleTimeout = getEnvIntWithDefault("SESSION_IDLE_TIMEOUT", 1800)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.AlertChatID = int64(getEnvIntWithDefault("ALERT_CHAT_ID", 0))
	cfg.HighRiskProbability = getEnvFloatWithDefault("HIGH_RISK_PROBABILITY", 0.75)
	cfg.VIPMonetary = getEnvFloatWithDefault("VIP_MONETARY", 1000)

	return &cfg, nil
}

// Timeout returns the per-request timeout, zero meaning none
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// BackendWait returns how long binaries wait for the scoring service at startup
func (c *Config) BackendWait() time.Duration {
	return time.Duration(c.WaitForBackend) * time.Second
}

// IdleTimeout returns how long an unused web session survives
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeout) * time.Second
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	LogLevel       string
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Analysis settings
	RefreshInterval    time.Duration
	FollowUpAlDiaDays  int
	FollowUpPendDays   int
	MaxUploadSizeBytes int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Analysis settings
	refreshSeconds, err := strconv.Atoi(getEnv("REFRESH_INTERVAL", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	config.RefreshInterval = time.Duration(refreshSeconds) * time.Second

	config.FollowUpAlDiaDays, err = strconv.Atoi(getEnv("FOLLOWUP_ALDIA_DAYS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid FOLLOWUP_ALDIA_DAYS: %w", err)
	}
	config.FollowUpPendDays, err = strconv.Atoi(getEnv("FOLLOWUP_PENDIENTE_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid FOLLOWUP_PENDIENTE_DAYS: %w", err)
	}
	if config.FollowUpAlDiaDays <= 0 || config.FollowUpPendDays <= config.FollowUpAlDiaDays {
		return nil, fmt.Errorf("follow-up thresholds must satisfy 0 < FOLLOWUP_ALDIA_DAYS < FOLLOWUP_PENDIENTE_DAYS")
	}

	maxUploadMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "32"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}
	config.MaxUploadSizeBytes = int64(maxUploadMB) << 20

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

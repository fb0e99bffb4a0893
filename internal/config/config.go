package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Engine   EngineConfig
	Outbox   OutboxConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// EngineConfig holds transaction-orchestrator settings
type EngineConfig struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	LockTimeout    time.Duration
}

// OutboxConfig holds outbox relay settings
type OutboxConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
	WebhookURL      string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "txprocessor"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Engine: EngineConfig{
			MaxAttempts:    getEnvAsInt("ENGINE_MAX_ATTEMPTS", 3),
			RetryBaseDelay: getEnvAsDuration("ENGINE_RETRY_BASE_DELAY", "200ms"),
			RetryMaxDelay:  getEnvAsDuration("ENGINE_RETRY_MAX_DELAY", "2s"),
			LockTimeout:    getEnvAsDuration("ENGINE_LOCK_TIMEOUT", "10s"),
		},
		Outbox: OutboxConfig{
			PollInterval:    getEnvAsDuration("OUTBOX_POLL_INTERVAL", "2s"),
			BatchSize:       getEnvAsInt("OUTBOX_BATCH_SIZE", 20),
			BreakerFailures: uint32(getEnvAsInt("OUTBOX_BREAKER_FAILURES", 5)), //nolint:gosec // validated below
			BreakerOpenFor:  getEnvAsDuration("OUTBOX_BREAKER_OPEN_FOR", "30s"),
			WebhookURL:      getEnv("OUTBOX_WEBHOOK_URL", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("engine max attempts must be at least 1, got %d", c.Engine.MaxAttempts)
	}
	if c.Engine.LockTimeout <= 0 {
		return fmt.Errorf("engine lock timeout must be positive")
	}

	if c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox poll interval must be positive")
	}
	if c.Outbox.BatchSize < 1 {
		return fmt.Errorf("outbox batch size must be at least 1, got %d", c.Outbox.BatchSize)
	}
	if c.Outbox.BreakerFailures < 1 {
		return fmt.Errorf("outbox breaker failure threshold must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}

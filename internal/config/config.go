package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	JWT       JWTConfig
	OTP       OTPConfig
	RateLimit RateLimitConfig
	AMQP      AMQPConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// IsProduction reports whether the server runs with production settings.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// JWTConfig holds bearer token signing configuration.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// OTPConfig holds one-time password configuration.
type OTPConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxAttempts   int
	Store         string // memory or redis
}

// RateLimitConfig holds per-surface request limits.
type RateLimitConfig struct {
	APIRequests  int
	APIWindow    time.Duration
	OTPRequests  int
	OTPWindow    time.Duration
	RideRequests int
	RideWindow   time.Duration
}

// AMQPConfig holds RabbitMQ configuration. An empty URL disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			CORSOrigins:  getListEnv("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "chovha"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "chovha-backend"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Expiry: getDurationEnv("JWT_EXPIRY", 30*24*time.Hour),
		},
		OTP: OTPConfig{
			TTL:           getDurationEnv("OTP_TTL", 10*time.Minute),
			SweepInterval: getDurationEnv("OTP_SWEEP_INTERVAL", time.Minute),
			MaxAttempts:   getIntEnv("OTP_MAX_ATTEMPTS", 3),
			Store:         getEnv("OTP_STORE", "memory"),
		},
		RateLimit: RateLimitConfig{
			APIRequests:  getIntEnv("RATE_LIMIT_API_REQUESTS", 100),
			APIWindow:    getDurationEnv("RATE_LIMIT_API_WINDOW", 15*time.Minute),
			OTPRequests:  getIntEnv("RATE_LIMIT_OTP_REQUESTS", 3),
			OTPWindow:    getDurationEnv("RATE_LIMIT_OTP_WINDOW", 5*time.Minute),
			RideRequests: getIntEnv("RATE_LIMIT_RIDE_REQUESTS", 10),
			RideWindow:   getDurationEnv("RATE_LIMIT_RIDE_WINDOW", 5*time.Minute),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "chovha.events"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if c.Server.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWT.Secret = "development-secret"
	}
	if c.OTP.Store != "memory" && c.OTP.Store != "redis" {
		return errors.New("OTP_STORE must be memory or redis")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

package configs

import (
	"os"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Logging   LoggingConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret      string
	ExpiryHours string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string
}

// SchedulerConfig holds cron schedules, in UTC
type SchedulerConfig struct {
	ROISchedule   string
	AuditSchedule string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpiryHours: getEnv("JWT_EXPIRY_HOURS", "72"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", ""),
		},
		Scheduler: SchedulerConfig{
			ROISchedule:   getEnv("ROI_SCHEDULE", ""),
			AuditSchedule: getEnv("AUDIT_SCHEDULE", ""),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

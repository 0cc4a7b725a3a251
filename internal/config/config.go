package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv             string
	LogLevel           slog.Level
	HTTPPort           string
	PostgreSQLHost     string
	PostgreSQLPort     int64
	PostgreSQLUser     string
	PostgreSQLPassword string
	PostgreSQLDatabase string
	JWTSecret          string
	BcryptCost         int64
	SendGridAPIKey     string
	MailFromAddress    string
	MailFromName       string
	RedisHost          string
	RedisPort          int64
	RedisPassword      string
	RedisDatabase      int64
	AuthRateLimit      int64 // Requests per window per client IP on public auth routes
	AuthRateWindow     int64 // Window size in seconds
	ShutdownTimeout    int64 // Graceful shutdown timeout in seconds
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:             getEnv("APP_ENV", "development"),                  // Default development
		LogLevel:           getLogLevel(),                                     // Default INFO
		HTTPPort:           getEnv("HTTP_PORT", "3000"),                       // Default 3000
		PostgreSQLHost:     getEnv("POSTGRESQL_HOST", "db"),                   // Default db
		PostgreSQLPort:     getEnvAsInt64("POSTGRESQL_PORT", 5432),            // Default 5432
		PostgreSQLUser:     getEnv("POSTGRESQL_USER", "taskapp_user"),         // Default user
		PostgreSQLPassword: getEnv("POSTGRESQL_PASSWORD", "taskapp_password"), // Default password
		PostgreSQLDatabase: getEnv("POSTGRESQL_DATABASE", "taskapp_db"),       // Default database name
		JWTSecret:          getEnv("JWT_SECRET", "taskapp_secret"),            // Default secret key
		BcryptCost:         getEnvAsInt64("BCRYPT_COST", 8),                   // Default cost 8
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),                    // Empty disables outbound mail
		MailFromAddress:    getEnv("MAIL_FROM_ADDRESS", "no-reply@taskapp.dev"),
		MailFromName:       getEnv("MAIL_FROM_NAME", "Tasks App"),
		RedisHost:          getEnv("REDIS_HOST", "redis"),          // Default redis
		RedisPort:          getEnvAsInt64("REDIS_PORT", 6379),      // Default 6379
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),           // Default empty
		RedisDatabase:      getEnvAsInt64("REDIS_DATABASE", 0),     // Default 0
		AuthRateLimit:      getEnvAsInt64("AUTH_RATE_LIMIT", 20),   // Default 20 requests
		AuthRateWindow:     getEnvAsInt64("AUTH_RATE_WINDOW", 60),  // Default 60 seconds
		ShutdownTimeout:    getEnvAsInt64("SHUTDOWN_TIMEOUT", 10),  // Default 10 seconds
	}
}

// PostgresDSN builds the gorm connection string from the individual parts.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.PostgreSQLHost,
		c.PostgreSQLUser,
		c.PostgreSQLPassword,
		c.PostgreSQLDatabase,
		c.PostgreSQLPort,
	)
}

// RedisAddr returns the host:port address for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

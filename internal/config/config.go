// internal/config/config.go
//
// Environment configuration for the lingo server.
// Values are read from the process environment after main has loaded .env
// (godotenv). Unset keys fall back to development defaults; Validate rejects
// combinations that cannot run.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevSecret is the JWT secret used when JWT_SECRET is unset outside
// production.
const DevSecret = "dev_secret_change_me"

// Config holds all configuration for the server.
type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	DB      DBConfig
	Redis   RedisConfig
	Lessons LessonsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int
	LogLevel       string
	Env            string // NODE_ENV
	ClientOrigin   string
	RequestTimeout time.Duration
}

// AuthConfig holds JWT and cookie settings.
type AuthConfig struct {
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	AnonCookieName string
}

// DBConfig holds the SQLite location.
type DBConfig struct {
	Path string
}

// RedisConfig holds the optional snapshot store. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LessonsConfig holds lesson engine settings.
type LessonsConfig struct {
	MaxHearts   int
	AttemptTTL  time.Duration
	CatalogFile string // empty: embedded catalog
	DailySalt   string
	DevMode     bool // locked lessons may be started
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("PORT", 5175),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			Env:            getEnv("NODE_ENV", "development"),
			ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			JWTExpiresDays: getEnvAsInt("JWT_EXPIRES_DAYS", 14),
			CookieName:     getEnv("COOKIE_NAME", "lingo_token"),
			AnonCookieName: getEnv("ANON_COOKIE_NAME", "lingo_anon"),
		},
		DB: DBConfig{
			Path: getEnv("DB_PATH", "./data/app.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Lessons: LessonsConfig{
			MaxHearts:   getEnvAsInt("MAX_HEARTS", 3),
			AttemptTTL:  getEnvAsDuration("ATTEMPT_TTL", 24*time.Hour),
			CatalogFile: getEnv("CATALOG_FILE", ""),
			DailySalt:   getEnv("DAILY_SALT", "local_dev_salt"),
			DevMode:     getEnvAsBool("DEV_MODE", false),
		},
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Production() {
		cfg.Auth.JWTSecret = DevSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Production reports whether NODE_ENV is "production".
func (c *Config) Production() bool { return strings.EqualFold(c.Server.Env, "production") }

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.Production() && c.Auth.JWTSecret == DevSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if c.Auth.JWTExpiresDays < 1 {
		return fmt.Errorf("invalid JWT_EXPIRES_DAYS: %d", c.Auth.JWTExpiresDays)
	}
	if c.Auth.CookieName == "" || c.Auth.AnonCookieName == "" || c.Auth.CookieName == c.Auth.AnonCookieName {
		return errors.New("cookie names must be set and distinct")
	}
	if c.DB.Path == "" {
		return errors.New("DB_PATH is required")
	}
	if c.Lessons.MaxHearts < 1 {
		return fmt.Errorf("invalid MAX_HEARTS: %d", c.Lessons.MaxHearts)
	}
	if c.Lessons.AttemptTTL <= 0 {
		return errors.New("ATTEMPT_TTL must be positive")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid REDIS_DB: %d", c.Redis.DB)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

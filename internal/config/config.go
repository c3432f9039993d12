package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSessionSecret = "change-me-session-secret"
	defaultMaxFileSize   = 10 * 1024 * 1024
	defaultBatchSize     = 50
)

// Config holds the whole application configuration, populated from environment variables.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Redis   RedisConfig
	Session SessionConfig
	Auth    AuthConfig
	Import  ImportConfig
	MinIO   MinIOConfig
	CORS    CORSConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type LogConfig struct {
	Level string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// Account credentials. Passwords are stored as bcrypt hashes only.
type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string
	UserUsername      string
	UserPasswordHash  string
}

type ImportConfig struct {
	MaxFileSize int64
	BatchSize   int
	TempDir     string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Doctor Management API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", defaultSessionSecret),
			TTL:          getEnvDuration("SESSION_TTL", 12*time.Hour),
			CookieName:   getEnv("SESSION_COOKIE", "dms_session"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
		},
		Auth: AuthConfig{
			AdminUsername:     getEnv("AUTH_ADMIN_USERNAME", "admin"),
			AdminPasswordHash: getEnv("AUTH_ADMIN_PASSWORD_HASH", ""),
			UserUsername:      getEnv("AUTH_USER_USERNAME", "user"),
			UserPasswordHash:  getEnv("AUTH_USER_PASSWORD_HASH", ""),
		},
		Import: ImportConfig{
			MaxFileSize: int64(getEnvInt("IMPORT_MAX_FILE_SIZE", defaultMaxFileSize)),
			BatchSize:   getEnvInt("IMPORT_BATCH_SIZE", defaultBatchSize),
			TempDir:     getEnv("IMPORT_TEMP_DIR", os.TempDir()),
		},
		MinIO: MinIOConfig{
			Enabled:   getEnvBool("MINIO_ENABLED", false),
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "doctor-imports"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings that would make the service unusable or unsafe.
func (c *Config) Validate() error {
	if c.Import.MaxFileSize <= 0 {
		return fmt.Errorf("IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.App.Environment == "production" {
		if c.Session.Secret == defaultSessionSecret {
			return fmt.Errorf("SESSION_SECRET must be set in production")
		}
		if c.Auth.AdminPasswordHash == "" || c.Auth.UserPasswordHash == "" {
			return fmt.Errorf("AUTH_ADMIN_PASSWORD_HASH and AUTH_USER_PASSWORD_HASH must be set in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

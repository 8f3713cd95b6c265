package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds SQLite connection configuration
type DatabaseConfig struct {
	// Path is the SQLite database file path, or ":memory:" for tests
	Path string
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	// CookieName is the name of the session cookie held by the browser
	CookieName string
	// TTL is the absolute session lifetime
	TTL time.Duration
	// Secure marks the cookie HTTPS-only
	Secure bool
	// SweepInterval is how often expired sessions are purged; expiry is
	// always re-checked at read time so the sweep is purely housekeeping
	SweepInterval time.Duration
}

// RateLimitConfig holds login rate limiting configuration
type RateLimitConfig struct {
	// LoginAttempts is the maximum login attempts per origin per window
	LoginAttempts int
	// LoginWindow is the rate limit window
	LoginWindow time.Duration
}

// StorageConfig holds S3/MinIO configuration for CV object storage
type StorageConfig struct {
	Endpoint           string
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	Bucket             string
	UseSSL             bool
	PresignedURLExpiry time.Duration
	// Enabled gates the object store; when false CV uploads are rejected
	Enabled bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "data/jobapp.db"),
		},
		Session: SessionConfig{
			CookieName:    getEnv("SESSION_COOKIE_NAME", "jobapp_session"),
			TTL:           getDurationEnv("SESSION_TTL", 24*time.Hour),
			Secure:        getBoolEnv("SESSION_SECURE", false),
			SweepInterval: getDurationEnv("SESSION_SWEEP_INTERVAL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: getIntEnv("LOGIN_RATE_LIMIT_ATTEMPTS", 5),
			LoginWindow:   getDurationEnv("LOGIN_RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Storage: StorageConfig{
			Endpoint:           getEnv("STORAGE_ENDPOINT", ""),
			Region:             getEnv("STORAGE_REGION", "us-east-1"),
			AccessKeyID:        getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey:    getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			Bucket:             getEnv("STORAGE_BUCKET", "job-app-cvs"),
			UseSSL:             getBoolEnv("STORAGE_USE_SSL", false),
			PresignedURLExpiry: getDurationEnv("STORAGE_PRESIGNED_URL_EXPIRY", 15*time.Minute),
			Enabled:            getEnv("STORAGE_ENDPOINT", "") != "",
		},
		CORS: CORSConfig{
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv returns duration from environment variable or default.
// Accepts Go duration strings ("15m", "24h").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

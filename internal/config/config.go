// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first (if present), so local
// development needs no exported variables. Real environment variables win
// over .env entries.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	// Application
	AppEnv string
	Port   int

	// Record store
	StoreDriver   string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Credentials
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration

	// Object storage (S3-compatible). Uploads and playback are disabled
	// when S3Bucket is empty.
	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3Endpoint       string
	S3PathStyle      bool
	S3UploadExpiry   time.Duration
	S3PlaybackExpiry time.Duration

	// GitHub login, optional
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Observability, optional
	SentryDSN string
}

// Load reads the configuration. It fails on a missing required value or a
// value that does not parse; optional values fall back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var errs []error
	cfg := &Config{
		AppEnv: envString("APP_ENV", "development"),
		Port:   envInt("PORT", 8080, &errs),

		StoreDriver:   strings.ToLower(envString("STORE_DRIVER", DriverSQLite)),
		DBPath:        envString("DB_PATH", "data/openlecture.db"),
		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envString("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0, &errs),
		RedisPrefix:   envString("REDIS_PREFIX", "openlecture"),

		JWTSecret:   envString("JWT_SECRET", ""),
		JWTIssuer:   envString("JWT_ISSUER", "openlecture"),
		JWTAudience: envString("JWT_AUDIENCE", "openlecture-clients"),
		JWTExpiry:   envDuration("JWT_EXPIRY", 6*time.Hour, &errs),

		S3Region:         envString("S3_REGION", "us-east-1"),
		S3Bucket:         envString("S3_BUCKET", ""),
		S3AccessKey:      envString("S3_ACCESS_KEY", ""),
		S3SecretKey:      envString("S3_SECRET_KEY", ""),
		S3Endpoint:       envString("S3_ENDPOINT", ""), // MinIO, R2, ...
		S3PathStyle:      envBool("S3_PATH_STYLE", os.Getenv("S3_ENDPOINT") != ""),
		S3UploadExpiry:   envDuration("S3_UPLOAD_EXPIRY", 15*time.Minute, &errs),
		S3PlaybackExpiry: envDuration("S3_PLAYBACK_EXPIRY", 10*time.Minute, &errs),

		GitHubClientID:     envString("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: envString("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  envString("GITHUB_CALLBACK_URL", ""),

		SentryDSN: envString("SENTRY_DSN", ""),
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET is required and must be at least 16 characters"))
	}
	switch c.StoreDriver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of sqlite, redis, memory", c.StoreDriver))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	return errs
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GitHubEnabled reports whether GitHub login is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// StorageEnabled reports whether presigned uploads and playback are possible.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int, errs *[]error) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a positive duration", key, v))
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

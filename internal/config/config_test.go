package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test. Blank values read as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "STORE_DRIVER", "DB_PATH",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX",
		"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE", "JWT_EXPIRY",
		"S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_ENDPOINT",
		"S3_PATH_STYLE", "S3_UPLOAD_EXPIRY", "S3_PLAYBACK_EXPIRY",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_CALLBACK_URL",
		"SENTRY_DSN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "data/openlecture.db", cfg.DBPath)
	assert.Equal(t, 6*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 15*time.Minute, cfg.S3UploadExpiry)
	assert.Equal(t, 10*time.Minute, cfg.S3PlaybackExpiry)
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHubCallbackURL)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.GitHubEnabled())
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.S3PathStyle)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("S3_BUCKET", "lectures")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, DriverRedis, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.GitHubEnabled())
	assert.True(t, cfg.StorageEnabled())
	assert.True(t, cfg.S3PathStyle, "custom endpoints default to path-style")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"bad port", map[string]string{"PORT": "eighty"}, "PORT"},
		{"bad driver", map[string]string{"STORE_DRIVER": "postgres"}, "STORE_DRIVER"},
		{"bad duration", map[string]string{"JWT_EXPIRY": "soon"}, "JWT_EXPIRY"},
		{"negative duration", map[string]string{"S3_UPLOAD_EXPIRY": "-1m"}, "S3_UPLOAD_EXPIRY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, ok := tt.env["JWT_SECRET"]; !ok && tt.name != "missing secret" {
				t.Setenv("JWT_SECRET", "0123456789abcdef")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

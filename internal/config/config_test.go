package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("DOCUMENT_RECORD_REQUIRED", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("APP_HOST", "docs.internal:9000")

	cfg := Load()

	assert.Equal(t, "docs.internal:9000", cfg.AppHost)
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Document.RecordRequired)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func validConfig() *AppConfig {
	return &AppConfig{
		Port:     "8080",
		Timezone: "UTC",
		LogLevel: "info",
		Database: DatabaseConfig{Host: "localhost", Port: "5432", User: "user", Name: "docs", SSLMode: "disable"},
		Auth:     AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing auth key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Auth.JWTSecret = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWTSecret")
	})

	t.Run("minio endpoint without bucket", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinIO = MinIOConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Bucket")
	})

	t.Run("minio disabled", func(t *testing.T) {
		cfg := validConfig()
		assert.False(t, cfg.MinIO.Enabled())
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown timezone", func(t *testing.T) {
		cfg := validConfig()
		cfg.Timezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})
}

func TestLocation(t *testing.T) {
	cfg := validConfig()
	cfg.Timezone = "Asia/Jakarta"
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())

	cfg.Timezone = "nope"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestSwaggerHost(t *testing.T) {
	cfg := &AppConfig{AppHost: "localhost:8080"}

	tests := []struct {
		name        string
		requestHost string
		want        string
	}{
		{"request host wins", "api.example.com", "api.example.com"},
		{"falls back to app host", "", "localhost:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.SwaggerHost(tt.requestHost))
		})
	}
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.False(t, getEnvBool(key, false))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

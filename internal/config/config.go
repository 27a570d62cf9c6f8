package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `validate:"required"`
	Port               string `validate:"required,numeric"`
	User               string `validate:"required"`
	Password           string
	Name               string `validate:"required"`
	SSLMode            string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns       int    `validate:"gte=0"`
	MaxIdleConns       int    `validate:"gte=0"`
	ConnMaxLifetimeSec int    `validate:"gte=0"`
}

// MinIOConfig holds object storage settings for archiving generated documents.
// Archiving is disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string `validate:"required_with=Endpoint"`
	SecretKey string `validate:"required_with=Endpoint"`
	Bucket    string `validate:"required_with=Endpoint"`
	UseSSL    bool
}

// Enabled reports whether an object store is configured.
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

// AuthConfig holds bearer token verification settings.
// Exactly one of JWTSecret (HMAC) or JWTPublicKey (PEM encoded RSA key) is expected.
type AuthConfig struct {
	JWTSecret    string `validate:"required_without=JWTPublicKey"`
	JWTPublicKey string `validate:"required_without=JWTSecret"`
	Audience     string
}

// DocumentConfig controls the generation workflow.
type DocumentConfig struct {
	// RecordRequired makes a failed metadata write fail the whole generation.
	RecordRequired bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string `validate:"required,numeric"`
	Timezone string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`
	Database DatabaseConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Document DocumentConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("AUTH_JWT_SECRET", ""),
			JWTPublicKey: getEnv("AUTH_JWT_PUBLIC_KEY", ""),
			Audience:     getEnv("AUTH_REQUIRED_AUDIENCE", ""),
		},
		Document: DocumentConfig{
			RecordRequired: getEnvBool("DOCUMENT_RECORD_REQUIRED", false),
		},
	}
}

// Validate checks required settings and returns a readable error listing every offending field.
func (c *AppConfig) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		if _, locErr := time.LoadLocation(c.Timezone); locErr != nil {
			return fmt.Errorf("invalid config: Timezone: %w", locErr)
		}
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}

// Location returns the configured time zone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SwaggerHost is the host advertised in the API docs. The request's Host
// header wins; AppHost covers clients that omit it.
func (c *AppConfig) SwaggerHost(requestHost string) string {
	if requestHost != "" {
		return requestHost
	}
	return c.AppHost
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

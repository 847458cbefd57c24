package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Storage     StorageConfig
	Auth        AuthConfig
	HTTP        HTTPConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// RabbitMQConfig holds the outbound billing-feed settings.
// The feed is optional: an empty URL disables publishing entirely.
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// StorageConfig holds file storage settings.
// DataDir is the root of the photo namespace (mediciones/<nro_cuenta>/...),
// ExportDir is the spool directory for generated export files,
// PublicBaseURL is the prefix used to build photo URLs for clients.
type StorageConfig struct {
	DataDir       string
	ExportDir     string
	PublicBaseURL string
}

// AuthConfig holds login and session settings
type AuthConfig struct {
	AdminEmail    string
	AdminPassword string
	SessionKey    string
	SessionTTL    time.Duration
}

// HTTPConfig holds HTTP server timeouts
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "water-metering-api"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8080),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        getEnv("RABBITMQ_URL", ""),
			Exchange:   getEnv("RABBITMQ_BILLING_EXCHANGE", "water-metering.billing.exchange"),
			RoutingKey: getEnv("RABBITMQ_BILLING_ROUTING_KEY", "medicion.aceptada"),
		},
		Storage: StorageConfig{
			DataDir:       getEnv("STORAGE_DATA_DIR", "storage"),
			ExportDir:     getEnv("STORAGE_EXPORT_DIR", "storage/exports"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "/storage"),
		},
		Auth: AuthConfig{
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			SessionKey:    getEnv("SESSION_KEY", ""),
			SessionTTL:    time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		},
		HTTP: HTTPConfig{
			ReadTimeout:     time.Duration(getEnvAsInt("HTTP_READ_TIMEOUT_SECONDS", 30)) * time.Second,
			WriteTimeout:    time.Duration(getEnvAsInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)) * time.Second,
			IdleTimeout:     time.Duration(getEnvAsInt("HTTP_IDLE_TIMEOUT_SECONDS", 120)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvAsInt("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
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

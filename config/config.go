package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the immutable process-wide configuration, loaded once at
// startup and passed by reference to the components that need it.
type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	Frontend   FrontendConfig
	Notify     NotifyConfig
	Storage    StorageConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AuthConfig holds token signing and lifetime settings.
type AuthConfig struct {
	// Secret signs both JWT flavors and the derived activation tokens.
	Secret string

	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime.
	RefreshTTL time.Duration

	// ActivationTTL bounds how long a derived activation token stays
	// verifiable after registration.
	ActivationTTL time.Duration

	// CookieSecure marks the auth cookies Secure. Disable only for
	// local development over plain HTTP.
	CookieSecure bool
}

// FrontendConfig describes the client application that activation links
// point at.
type FrontendConfig struct {
	Domain       string
	VerifyPath   string
	RedirectPath string
}

// NotifyConfig selects and configures the outbound mail dispatch backend.
type NotifyConfig struct {
	// Backend is one of "rabbitmq", "pubsub" or "log".
	Backend string

	// Channel is the queue/topic the mail envelopes are published on.
	Channel string

	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL          string
	QueueDurable bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

// StorageConfig selects and configures object storage for summary exports.
// An empty Backend disables the export endpoints.
type StorageConfig struct {
	// Backend is one of "minio", "gcs" or "" (disabled).
	Backend string

	Minio MinioConfig
	GCS   GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "orgpulse"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "orgpulse_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Auth: AuthConfig{
			Secret:        getEnv("AUTH_SECRET", ""),
			AccessTTL:     time.Duration(getEnvInt("ACCESS_TOKEN_LIFETIME_MINUTES", 15)) * time.Minute,
			RefreshTTL:    time.Duration(getEnvInt("REFRESH_TOKEN_LIFETIME_DAYS", 7)) * 24 * time.Hour,
			ActivationTTL: time.Duration(getEnvInt("ACTIVATION_TOKEN_LIFETIME_HOURS", 72)) * time.Hour,
			CookieSecure:  getEnvBool("AUTH_COOKIE_SECURE", true),
		},
		Frontend: FrontendConfig{
			Domain:       getEnv("FRONTEND_DOMAIN", "http://localhost:3000"),
			VerifyPath:   getEnv("FRONTEND_VERIFY_PATH", "/verify"),
			RedirectPath: getEnv("FRONTEND_REDIRECT_PATH", "/redirect"),
		},
		Notify: NotifyConfig{
			Backend: getEnv("NOTIFY_BACKEND", "log"),
			Channel: getEnv("NOTIFY_CHANNEL", "outbound-mail"),
			RabbitMQ: RabbitMQConfig{
				URL:          getEnv("RABBITMQ_URL", ""),
				QueueDurable: getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			},
			PubSub: PubSubConfig{
				ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			},
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", ""),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "orgpulse-exports"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				Bucket:          getEnv("GCS_BUCKET", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported backends.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	BlobDriverMinIO  = "minio"
	BlobDriverS3     = "s3"
	BlobDriverMemory = "memory"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST"`
	Port               string `env:"DB_PORT" env-default:"5432"`
	User               string `env:"DB_USER"`
	Password           string `env:"DB_PASSWORD"`
	Name               string `env:"DB_NAME"`
	SSLMode            string `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetimeSec int    `env:"DB_CONN_MAX_LIFETIME_SEC" env-default:"300"`
	AutoMigrate        bool   `env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`
}

// S3Config holds object storage settings for AWS S3 or S3-compatible services.
type S3Config struct {
	Region                 string `env:"S3_REGION" env-default:"us-east-2"`
	Bucket                 string `env:"S3_BUCKET"`
	AccessKeyID            string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey        string `env:"S3_SECRET_ACCESS_KEY"`
	Endpoint               string `env:"S3_ENDPOINT"`
	UsePathStyle           bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucketIfNotExist bool   `env:"S3_CREATE_BUCKET_IF_NOT_EXIST" env-default:"false"`
}

// BlobConfig selects the blob backend and how its locations are rendered.
type BlobConfig struct {
	Driver string `env:"BLOB_DRIVER" env-default:"minio"`
	// PublicBaseURL prefixes object keys to form content locations.
	// When empty the backend derives one from its endpoint and bucket.
	PublicBaseURL string `env:"BLOB_PUBLIC_BASE_URL"`
	KeyPrefix     string `env:"BLOB_KEY_PREFIX" env-default:"documents"`
	// PresignExpiry is how long signed download links stay valid. Zero disables them.
	PresignExpiry time.Duration `env:"BLOB_PRESIGN_EXPIRY" env-default:"15m"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	// JWKSURL switches verification to asymmetric keys fetched from the URL.
	JWKSURL string `env:"JWT_JWKS_URL"`
	// Algorithms restricts accepted signing algorithms, comma separated.
	// Empty accepts the defaults of the selected key source.
	Algorithms []string `env:"JWT_ALGORITHMS" env-separator:","`
}

// NotificationConfig tunes the live notification stream.
type NotificationConfig struct {
	KeepAliveSec int `env:"NOTIFY_KEEPALIVE_SEC" env-default:"15"`
	BufferSize   int `env:"NOTIFY_BUFFER_SIZE" env-default:"16"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost      string `env:"APP_HOST" env-default:"localhost:8080"`
	Port         string `env:"PORT" env-default:"8080"`
	Timezone     string `env:"APP_TIMEZONE" env-default:"UTC"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	StoreDriver  string `env:"STORE_DRIVER" env-default:"postgres"`
	Database     DatabaseConfig
	MinIO        MinIOConfig
	S3           S3Config
	Blob         BlobConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over the file.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks driver names and cross-field requirements.
func (c *AppConfig) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %q", c.StoreDriver)
	}
	switch c.Blob.Driver {
	case BlobDriverMinIO, BlobDriverS3, BlobDriverMemory:
	default:
		return fmt.Errorf("invalid BLOB_DRIVER: %q", c.Blob.Driver)
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		return fmt.Errorf("one of JWT_SECRET or JWT_JWKS_URL is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Blob.PresignExpiry < 0 {
		return fmt.Errorf("BLOB_PRESIGN_EXPIRY must not be negative")
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// KeepAlive returns the notification stream keep-alive interval.
func (c NotificationConfig) KeepAlive() time.Duration {
	if c.KeepAliveSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.KeepAliveSec) * time.Second
}

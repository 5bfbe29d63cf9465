package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the data review API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Blob     BlobConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details for the user store.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// BlobConfig selects and parameterizes the object-store backend.
type BlobConfig struct {
	// Backend is one of "gcs", "minio", "memory".
	Backend string
	Bucket  string
	// MaxUploadMiB caps a single upload payload; the deployment's front
	// door enforces the same ceiling.
	MaxUploadMiB int64
	// NormalizeEncoding re-encodes CSV payloads to BOM-prefixed UTF-8 for
	// spreadsheet-tool compatibility.
	NormalizeEncoding bool
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (b BlobConfig) MaxUploadBytes() int64 {
	return b.MaxUploadMiB * 1024 * 1024
}

// MinIOConfig carries MinIO connection information, used when the blob
// backend is "minio".
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenTTL    time.Duration
	BcryptCost        int
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying
// defaults suitable only for non-production use.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("DATAREVIEW_API_HOST", "0.0.0.0"),
			Port:         getInt("DATAREVIEW_API_PORT", 8080),
			ReadTimeout:  getDuration("DATAREVIEW_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("DATAREVIEW_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("DATAREVIEW_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "datareview_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "datareview"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		Blob: BlobConfig{
			Backend:           strings.ToLower(getString("BLOB_BACKEND", "gcs")),
			Bucket:            getString("GCS_BUCKET", "data_research"),
			MaxUploadMiB:      int64(getInt("MAX_UPLOAD_MIB", 30)),
			NormalizeEncoding: getBool("NORMALIZE_CSV_ENCODING", false),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "datareview"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Auth: loadAuthConfig(),
		Metrics: MetricsConfig{
			PrometheusPath: getString("DATAREVIEW_METRICS_PATH", "/metrics"),
		},
	}

	switch cfg.Blob.Backend {
	case "gcs", "minio", "memory":
	default:
		return Config{}, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
	if cfg.Blob.MaxUploadMiB <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_MIB must be positive, got %d", cfg.Blob.MaxUploadMiB)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("DATAREVIEW_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AccessTokenSecret: getString("DATAREVIEW_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		AccessTokenTTL:    getDuration("DATAREVIEW_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		BcryptCost:        cost,
	}
}

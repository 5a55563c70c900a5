package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LogConfig selects log verbosity, an optional rotating file and the time
// zone used for log timestamps.
type LogConfig struct {
	Level    string
	File     string
	TimeZone string
}

// Location resolves TimeZone, falling back to UTC when unset or unknown.
func (l LogConfig) Location() *time.Location {
	if l.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AppConfig configures the bridge API server.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Log      LogConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// Load reads the bridge API configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			File:     getEnv("LOG_FILE", ""),
			TimeZone: getEnv("TZ", "UTC"),
		},
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
	}
}

// ClientConfig configures the offline-first client.
type ClientConfig struct {
	// DataDir holds the local database and its session lock.
	DataDir string
	// RemoteURL is the bridge API base URL; empty runs fully offline.
	RemoteURL    string
	ProbeTimeout time.Duration
	// ProbeInterval paces connectivity checks while a command runs.
	ProbeInterval time.Duration
	Log           LogConfig
}

// DatabasePath is the local database file inside DataDir.
func (c ClientConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "documind.db")
}

// LoadClient reads the client configuration from DOCUMIND_* variables.
func LoadClient() *ClientConfig {
	return &ClientConfig{
		DataDir:       getEnv("DOCUMIND_DATA_DIR", defaultDataDir()),
		RemoteURL:     getEnv("DOCUMIND_REMOTE_URL", "http://localhost:8080"),
		ProbeTimeout:  time.Duration(getEnvInt("DOCUMIND_PROBE_TIMEOUT_MS", 2000)) * time.Millisecond,
		ProbeInterval: time.Duration(getEnvInt("DOCUMIND_PROBE_INTERVAL_MS", 5000)) * time.Millisecond,
		Log: LogConfig{
			Level:    getEnv("DOCUMIND_LOG_LEVEL", "warn"),
			File:     getEnv("DOCUMIND_LOG_FILE", ""),
			TimeZone: getEnv("TZ", ""),
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "documind")
	}
	return ".documind"
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

package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds HTTP listener tuning. Defaults mirror the production
// launch flags of the deployed container: port 8000, 4000 concurrent
// connections, 8192 listen backlog, day-long keep-alive, hour-long graceful
// shutdown window.
type ServerConfig struct {
	Port               string
	Concurrency        int
	Backlog            int
	KeepAliveSec       int
	ShutdownTimeoutSec int
	Prefork            bool
	LogLevel           string
	AccessLog          bool
}

// DatasetConfig selects where conjugation CSV data comes from and how it is
// cached once loaded.
type DatasetConfig struct {
	Backend            string // "csv", "minio" or "postgres"
	VerbCSVPath        string
	AdjectiveCSVPath   string
	VerbObjectKey      string
	AdjectiveObjectKey string
	CacheTTLSec        int
	SectionRows        int
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres
// dataset backend.
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

// MinIOConfig holds object storage settings for the minio dataset backend
// and the admin dataset endpoints.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	AdminToken string
	Server     ServerConfig
	Dataset    DatasetConfig
	Database   DatabaseConfig
	MinIO      MinIOConfig
}

// KeepAlive returns the idle keep-alive window as a duration.
func (c ServerConfig) KeepAlive() time.Duration {
	return time.Duration(c.KeepAliveSec) * time.Second
}

// ShutdownTimeout returns the graceful shutdown window as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// CacheTTL returns the dataset cache TTL as a duration.
func (c DatasetConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:    getEnv("APP_HOST", "localhost:8000"),
		AdminToken: getEnv("ADMIN_TOKEN", ""),
		Server: ServerConfig{
			Port:               getEnv("PORT", "8000"),
			Concurrency:        getEnvInt("CONCURRENCY", 4000),
			Backlog:            getEnvInt("BACKLOG", 8192),
			KeepAliveSec:       getEnvInt("KEEP_ALIVE_SEC", 86400),
			ShutdownTimeoutSec: getEnvInt("SHUTDOWN_TIMEOUT_SEC", 3600),
			Prefork:            getEnvBool("PREFORK", false),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			AccessLog:          getEnvBool("ACCESS_LOG", true),
		},
		Dataset: DatasetConfig{
			Backend:            getEnv("DATASET_BACKEND", "csv"),
			VerbCSVPath:        getEnv("VERB_CSV_PATH", "/app/verb.csv"),
			AdjectiveCSVPath:   getEnv("ADJECTIVE_CSV_PATH", "/app/adjective.csv"),
			VerbObjectKey:      getEnv("VERB_OBJECT_KEY", "datasets/verb.csv"),
			AdjectiveObjectKey: getEnv("ADJECTIVE_OBJECT_KEY", "datasets/adjective.csv"),
			CacheTTLSec:        getEnvInt("CACHE_TTL_SEC", 600),
			SectionRows:        getEnvInt("SECTION_ROWS", 4),
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

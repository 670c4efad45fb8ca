package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	EventStore EventStoreConfig
	Analyzer   AnalyzerConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// RedisConfig holds configuration for the patient-record cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL for cached patient records
	TTL time.Duration
	// Enabled controls whether the cache is used at all
	Enabled bool
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// EventStoreConfig holds configuration for EventStoreDB (audit trail).
type EventStoreConfig struct {
	// Host is the EventStoreDB server hostname
	Host string
	// Port is the gRPC port (default 2113)
	Port int
	// Insecure disables TLS (for development)
	Insecure bool
	Username string
	Password string
	Enabled  bool
}

func (e EventStoreConfig) ConnectionString() string {
	s := fmt.Sprintf("esdb://%s:%d", e.Host, e.Port)
	if e.Insecure {
		s += "?tls=false"
	}
	return s
}

// AnalyzerConfig holds configuration for the bio-impedance analyzer
// station import adapter (vendor SQL Server database).
type AnalyzerConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// SessionTable is the vendor table holding completed analysis sessions
	SessionTable string
	// PollInterval between checks for newly completed sessions
	PollInterval time.Duration
	// StationName identifies the station in imported records
	StationName string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "bioimpedance"),
			Password: getEnv("DB_PASSWORD", "bioimpedance"),
			Database: getEnv("DB_NAME", "bioimpedance"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 5*time.Minute),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			Issuer:    getEnv("JWT_ISSUER", "bioimpedance-platform"),
		},
		EventStore: EventStoreConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", true),
		},
		Analyzer: AnalyzerConfig{
			Enabled:      getEnvBool("ANALYZER_ENABLED", false),
			Host:         getEnv("ANALYZER_DB_HOST", "localhost"),
			Port:         getEnvInt("ANALYZER_DB_PORT", 1433),
			User:         getEnv("ANALYZER_DB_USER", "sa"),
			Password:     getEnv("ANALYZER_DB_PASSWORD", ""),
			Database:     getEnv("ANALYZER_DB_NAME", "BioScan"),
			SSLMode:      getEnv("ANALYZER_DB_SSLMODE", "disable"),
			SessionTable: getEnv("ANALYZER_SESSION_TABLE", "dbo.AnalysisSessions"),
			PollInterval: getEnvDuration("ANALYZER_POLL_INTERVAL", 30*time.Second),
			StationName:  getEnv("ANALYZER_STATION_NAME", "station-1"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

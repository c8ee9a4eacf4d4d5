package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Session stores
const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`

	// SeedDemoUser creates the demo account when no users exist yet.
	SeedDemoUser bool `yaml:"seed_demo_user"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	GinMode string `yaml:"gin_mode"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
}

type SessionConfig struct {
	Store     string `yaml:"store"`
	Secret    string `yaml:"secret"`
	RedisHost string `yaml:"redis_host"`
	RedisPort string `yaml:"redis_port"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			GinMode: "debug",
		},
		Storage: StorageConfig{
			Driver:   DriverSQLite,
			DSN:      "taskboard.db",
			LogLevel: "warn",
		},
		Session: SessionConfig{
			Store:     SessionStoreCookie,
			Secret:    "default-secret-key-change-me",
			RedisHost: "localhost",
			RedisPort: "6379",
		},
		Logging:      LoggingConfig{Development: true},
		SeedDemoUser: true,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then TASKBOARD_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Server.Addr = getEnv("TASKBOARD_ADDR", cfg.Server.Addr)
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)
	cfg.Storage.Driver = getEnv("TASKBOARD_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getEnv("TASKBOARD_STORAGE_DSN", cfg.Storage.DSN)
	cfg.Storage.LogLevel = getEnv("TASKBOARD_STORAGE_LOG_LEVEL", cfg.Storage.LogLevel)
	cfg.Session.Store = getEnv("TASKBOARD_SESSION_STORE", cfg.Session.Store)
	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.RedisHost = getEnv("REDIS_HOST", cfg.Session.RedisHost)
	cfg.Session.RedisPort = getEnv("REDIS_PORT", cfg.Session.RedisPort)
	cfg.Logging.Development = getEnvBool("TASKBOARD_LOG_DEVELOPMENT", cfg.Logging.Development)
	cfg.SeedDemoUser = getEnvBool("TASKBOARD_SEED_DEMO_USER", cfg.SeedDemoUser)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and session stores.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != DriverMemory && c.Storage.DSN == "" {
		return errors.New("storage dsn is required")
	}

	switch c.Session.Store {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	if c.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	return nil
}

// RedisAddr returns host:port of the session redis.
func (c *Config) RedisAddr() string {
	return c.Session.RedisHost + ":" + c.Session.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		StatePath   string `yaml:"state_path" env:"SERVER_STATE_PATH"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
		Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Admin struct {
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	} `yaml:"admin"`

	Sync struct {
		HealthTimeout  time.Duration `yaml:"health_timeout" env:"SYNC_HEALTH_TIMEOUT"`
		RequestTimeout time.Duration `yaml:"request_timeout" env:"SYNC_REQUEST_TIMEOUT"`
		HistoryLimit   int           `yaml:"history_limit" env:"SYNC_HISTORY_LIMIT"`
	} `yaml:"sync"`

	Backup struct {
		BatchSize         int `yaml:"batch_size" env:"BACKUP_BATCH_SIZE"`
		AutoRetention     int `yaml:"auto_retention" env:"BACKUP_AUTO_RETENTION"`
		OptimizeRetention int `yaml:"optimize_retention" env:"BACKUP_OPTIMIZE_RETENTION"`
		MaxAgeDays        int `yaml:"max_age_days" env:"BACKUP_MAX_AGE_DAYS"`
	} `yaml:"backup"`

	Seed struct {
		Dosen []string `yaml:"dosen" env:"SEED_DOSEN"`
	} `yaml:"seed"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file, a .env file next to the process and
// environment variables, in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StatePath = "data/state.json"
	config.Server.StoragePath = "data/backups"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "examprogress"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.Issuer = "examprogress"

	config.Admin.Password = "admin123"

	config.Sync.HealthTimeout = 10 * time.Second
	config.Sync.RequestTimeout = 30 * time.Second
	config.Sync.HistoryLimit = 20

	config.Backup.BatchSize = 100
	config.Backup.AutoRetention = 5
	config.Backup.OptimizeRetention = 10
	config.Backup.MaxAgeDays = 30

	config.Logging.Level = "info"
	config.Logging.Format = "pretty"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Admin.Password == "" {
		return fmt.Errorf("admin password is required")
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	if config.Sync.HealthTimeout <= 0 || config.Sync.RequestTimeout <= 0 {
		return fmt.Errorf("sync timeouts must be positive")
	}

	if config.Sync.HistoryLimit <= 0 {
		return fmt.Errorf("sync history limit must be positive")
	}

	if config.Backup.BatchSize <= 0 {
		return fmt.Errorf("backup batch size must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether gin should run in release mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production") || strings.EqualFold(c.Server.Mode, "release")
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

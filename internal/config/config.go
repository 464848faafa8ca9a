// Package config provides configuration management for the crawl job
// ledger. Values are loaded from a YAML config file and environment
// variables, with environment taking precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/crawlkit/crawljob/internal/database"
)

// Defaults applied when neither config file nor environment set a value.
const (
	defaultJobName        = "DAILY_NEWS_CRAWLING"
	defaultStaleThreshold = 6 * time.Hour
	defaultLogLevel       = "info"
	defaultDBHost         = "localhost"
	defaultDBPort         = "5432"
	defaultDBSSLMode      = "disable"
)

// LedgerConfig holds ledger and maintenance settings.
type LedgerConfig struct {
	// JobName is the logical batch name stamped on new runs.
	JobName string `mapstructure:"job_name"`
	// StaleThreshold is how long a record may sit PENDING before the
	// maintenance pass considers it stale.
	StaleThreshold time.Duration `mapstructure:"stale_threshold"`
}

// Config represents the application configuration.
type Config struct {
	Database database.Config `mapstructure:"database"`
	Ledger   LedgerConfig    `mapstructure:"ledger"`
	LogLevel string          `mapstructure:"log_level"`
}

// Validate checks the configuration for required values.
func (c *Config) Validate() error {
	if c.Database.DBName == "" {
		return errors.New("database name is required")
	}
	if c.Database.User == "" {
		return errors.New("database user is required")
	}
	if c.Ledger.JobName == "" {
		return errors.New("ledger job name is required")
	}
	if c.Ledger.StaleThreshold <= 0 {
		return errors.New("stale threshold must be positive")
	}
	return nil
}

// Load reads configuration from config.yaml and the environment. A .env
// file is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := bindEnvironmentVariables(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	// Config file is optional; environment alone is enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnvironmentVariables binds keys without defaults so AutomaticEnv
// sees them during Unmarshal.
func bindEnvironmentVariables(v *viper.Viper) error {
	keys := []string{
		"database.user",
		"database.password",
		"database.dbname",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults applies default values to the config.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", defaultDBHost)
	v.SetDefault("database.port", defaultDBPort)
	v.SetDefault("database.sslmode", defaultDBSSLMode)
	v.SetDefault("ledger.job_name", defaultJobName)
	v.SetDefault("ledger.stale_threshold", defaultStaleThreshold)
	v.SetDefault("log_level", defaultLogLevel)
}

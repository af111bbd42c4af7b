package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration. It is read once at startup;
// there is no hot reload.
type Config struct {
	Port           int           `mapstructure:"port"`
	AnalysisURL    string        `mapstructure:"analysis_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DatabaseDriver string        `mapstructure:"database_driver"`
	DatabasePath   string        `mapstructure:"database_path"`
	DatabaseURL    string        `mapstructure:"database_url"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	Debug          bool          `mapstructure:"debug"`
}

// Origins returns the allowed websocket origins as a list. Empty means all
// origins are allowed.
func (c *Config) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Load reads configuration from the environment (CHATRELAY_ prefix) and,
// when path is non-empty, a YAML config file. Environment wins over file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("analysis_url", "http://localhost:9000/analyze")
	v.SetDefault("request_timeout", "60s")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", "chatrelay.db")
	v.SetDefault("database_url", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("CHATRELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
		if cfg.DatabasePath == "" {
			return nil, fmt.Errorf("database_path is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database_url is required for the %s driver", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.DatabaseDriver)
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request_timeout must be positive")
	}

	return &cfg, nil
}

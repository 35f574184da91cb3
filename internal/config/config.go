package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		ServiceFeePercent     float64 `yaml:"service_fee_percent"`
		IdempotencyTTLSeconds int     `yaml:"idempotency_ttl_seconds"`
		RateLimitPerSecond    float64 `yaml:"rate_limit_per_second"`
		RateLimitBurst        int     `yaml:"rate_limit_burst"`
		HistoryRetentionDays  int     `yaml:"history_retention_days"`
	} `yaml:"booking"`

	Sheets struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsPath string `yaml:"credentials_path"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SheetName       string `yaml:"sheet_name"`
	} `yaml:"sheets"`

	VenuesConfigPath string `yaml:"venues_config_path"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/courtbook.db"
	}
	if cfg.VenuesConfigPath == "" {
		cfg.VenuesConfigPath = "configs/venues.yaml"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ServiceFeeRate converts the configured percentage to a fraction.
// The fallback matches the engine default of 10%.
func (c *Config) ServiceFeeRate() float64 {
	if c.Booking.ServiceFeePercent <= 0 {
		return 0.10
	}
	return c.Booking.ServiceFeePercent / 100
}

// IdempotencyTTL returns how long replayed reserve responses are kept.
func (c *Config) IdempotencyTTL() time.Duration {
	if c.Booking.IdempotencyTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Booking.IdempotencyTTLSeconds) * time.Second
}

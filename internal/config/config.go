// Package config loads tracker settings from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"coin-tracker/internal/domain"
)

type Config struct {
	Symbols  []string `yaml:"symbols"`
	Interval string   `yaml:"interval"`
	Poll     struct {
		CadenceSeconds int `yaml:"cadence_seconds"`
	} `yaml:"poll"`
	Backfill struct {
		WindowDays int `yaml:"window_days"`
	} `yaml:"backfill"`
	Forecast struct {
		HorizonMinutes int `yaml:"horizon_minutes"`
		WindowHours    int `yaml:"window_hours"`
	} `yaml:"forecast"`
	Binance struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"binance"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns a configuration with working values for every field.
func Default() *Config {
	c := &Config{
		Symbols:  []string{"BTCUSDT", "ETHUSDT", "BNBUSDT"},
		Interval: domain.DefaultInterval,
	}
	c.Poll.CadenceSeconds = 60
	c.Backfill.WindowDays = 30
	c.Forecast.HorizonMinutes = 10
	c.Forecast.WindowHours = 24
	c.Metrics.Addr = ":9090"
	return c
}

// Load reads and parses a YAML configuration file. Fields absent from
// the file keep their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.Binance.BaseURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	if c.Interval == "" {
		return fmt.Errorf("interval is required")
	}
	if c.Poll.CadenceSeconds <= 0 {
		return fmt.Errorf("poll.cadence_seconds must be positive, got %d", c.Poll.CadenceSeconds)
	}
	if c.Backfill.WindowDays <= 0 {
		return fmt.Errorf("backfill.window_days must be positive, got %d", c.Backfill.WindowDays)
	}
	if c.Forecast.HorizonMinutes <= 0 {
		return fmt.Errorf("forecast.horizon_minutes must be positive, got %d", c.Forecast.HorizonMinutes)
	}
	if c.Forecast.WindowHours <= 0 {
		return fmt.Errorf("forecast.window_hours must be positive, got %d", c.Forecast.WindowHours)
	}
	return nil
}

// PollCadence returns the polling cadence as a duration.
func (c *Config) PollCadence() time.Duration {
	return time.Duration(c.Poll.CadenceSeconds) * time.Second
}

// BackfillWindow returns the backfill lookback as a duration.
func (c *Config) BackfillWindow() time.Duration {
	return time.Duration(c.Backfill.WindowDays) * 24 * time.Hour
}

// ForecastHorizon returns the prediction horizon as a duration.
func (c *Config) ForecastHorizon() time.Duration {
	return time.Duration(c.Forecast.HorizonMinutes) * time.Minute
}

// ForecastWindow returns the forecast input window as a duration.
func (c *Config) ForecastWindow() time.Duration {
	return time.Duration(c.Forecast.WindowHours) * time.Hour
}

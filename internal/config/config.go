package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	MaxUploadSize     string        `mapstructure:"MAX_UPLOAD_SIZE"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	Timezone          string        `mapstructure:"TIMEZONE"`
	ChartWidth        int           `mapstructure:"CHART_WIDTH"`
	ChartPanelHeight  int           `mapstructure:"CHART_PANEL_HEIGHT"`
	ChartTickInterval int           `mapstructure:"CHART_TICK_INTERVAL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAX_UPLOAD_SIZE", "10M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CHART_WIDTH", 1600)
	v.SetDefault("CHART_PANEL_HEIGHT", 420)
	v.SetDefault("CHART_TICK_INTERVAL", 0)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("MAX_UPLOAD_SIZE")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TIMEZONE")
	v.BindEnv("CHART_WIDTH")
	v.BindEnv("CHART_PANEL_HEIGHT")
	v.BindEnv("CHART_TICK_INTERVAL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location returns the time zone uploads are interpreted in. "Today" for
// ongoing courses is taken from the wall clock in this zone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// Validate checks that the configuration is usable before the server starts.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.ChartWidth < 400 {
		return fmt.Errorf("CHART_WIDTH must be at least 400, got %d", c.ChartWidth)
	}
	if c.ChartPanelHeight < 200 {
		return fmt.Errorf("CHART_PANEL_HEIGHT must be at least 200, got %d", c.ChartPanelHeight)
	}
	if c.ChartTickInterval < 0 {
		return fmt.Errorf("CHART_TICK_INTERVAL must not be negative, got %d", c.ChartTickInterval)
	}
	return nil
}

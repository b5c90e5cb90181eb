package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "REQUEST_TIMEOUT", "TIMEZONE", "CHART_WIDTH", "CORS_ORIGINS"} {
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected default request timeout 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("expected default timezone UTC, got %s", cfg.Timezone)
	}
	if cfg.ChartWidth != 1600 {
		t.Errorf("expected default chart width 1600, got %d", cfg.ChartWidth)
	}
	if cfg.MaxUploadSize != "10M" {
		t.Errorf("expected default upload size 10M, got %s", cfg.MaxUploadSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("REQUEST_TIMEOUT", "5s")
	os.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("REQUEST_TIMEOUT")
	defer os.Unsetenv("CORS_ORIGINS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected request timeout 5s, got %s", cfg.RequestTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("expected two trimmed CORS origins, got %v", cfg.CORSOrigins)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func validConfig() *Config {
	return &Config{
		Port:             "8000",
		Timezone:         "UTC",
		RequestTimeout:   time.Second,
		RateLimitRPS:     5,
		RateLimitBurst:   10,
		ChartWidth:       1600,
		ChartPanelHeight: 420,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"negative rate", func(c *Config) { c.RateLimitRPS = -1 }, true},
		{"narrow chart", func(c *Config) { c.ChartWidth = 100 }, true},
		{"short panels", func(c *Config) { c.ChartPanelHeight = 50 }, true},
		{"negative tick interval", func(c *Config) { c.ChartTickInterval = -2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Location(t *testing.T) {
	c := &Config{Timezone: "Europe/London"}
	loc, err := c.Location()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.String() != "Europe/London" {
		t.Errorf("expected Europe/London, got %s", loc)
	}

	c.Timezone = ""
	loc, err = c.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("expected UTC for empty timezone, got %v, %v", loc, err)
	}
}

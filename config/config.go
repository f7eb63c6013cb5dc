// Package config loads the server configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/alerts"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/factory"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPort     = "8080"
	DefaultDBPath   = "./data/capacity.db"
	DefaultLogLevel = "info"
)

// DefaultCORSOrigins matches the local frontend dev servers.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Config is the server configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	// LogLevel is a zerolog level name: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// CORSOrigins lists the allowed browser origins.
	CORSOrigins []string `yaml:"cors_origins"`

	// CacheSize bounds the aggregation result cache. 0 disables caching.
	CacheSize int `yaml:"cache_size"`

	// Engine holds thresholds, quality weights and concurrency. Omitted keys
	// keep capacity.DefaultConfig values.
	Engine factory.ConfigJSON `yaml:"engine"`

	// Alerts overrides alert thresholds. Omitted keys follow the engine:
	// critical_overload = high_threshold, underload = low_threshold.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AlertsConfig holds alert threshold ratios.
type AlertsConfig struct {
	Overload         *float64 `yaml:"overload,omitempty"`
	CriticalOverload *float64 `yaml:"critical_overload,omitempty"`
	Underload        *float64 `yaml:"underload,omitempty"`
	LowQuality       *float64 `yaml:"low_quality,omitempty"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Port:        DefaultPort,
		DBPath:      DefaultDBPath,
		LogLevel:    DefaultLogLevel,
		CORSOrigins: append([]string(nil), DefaultCORSOrigins...),
		CacheSize:   256,
	}
}

// EngineConfig converts the engine section to a validated capacity.Config.
func (c *Config) EngineConfig() (capacity.Config, error) {
	return factory.NewConfigFactory().FromJSON(c.Engine)
}

// AlertThresholds applies the alerts section over the defaults derived from
// engine.
func (c *Config) AlertThresholds(engine capacity.Config) (alerts.Thresholds, error) {
	th := alerts.DefaultThresholds(engine)
	set := func(dst *decimal.Decimal, v *float64) {
		if v != nil {
			*dst = decimal.NewFromFloat(*v)
		}
	}
	set(&th.Overload, c.Alerts.Overload)
	set(&th.CriticalOverload, c.Alerts.CriticalOverload)
	set(&th.Underload, c.Alerts.Underload)
	set(&th.LowQuality, c.Alerts.LowQuality)
	return th, th.Validate()
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port is required")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	engine, err := cfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if _, err := cfg.AlertThresholds(engine); err != nil {
		return err
	}
	return nil
}

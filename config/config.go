package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Facility   FacilityConfig   `yaml:"facility"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                   int           `yaml:"port"`
	RateLimitPerSec        float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst         int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds        int           `yaml:"cache_ttl_seconds"`
	CacheTTL               time.Duration `yaml:"-"`
	ShutdownTimeoutSeconds int           `yaml:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// FacilityConfig holds the bootstrap values of the settings record and
// presentation options for durations and timestamps.
type FacilityConfig struct {
	Title                    string `yaml:"title"`
	Capacity                 int    `yaml:"capacity"`
	EachPersonTime           int    `yaml:"each_person_time"`
	SettlementThresholdHours int    `yaml:"settlement_threshold_hours"`
	Locale                   string `yaml:"locale"`
	Timezone                 string `yaml:"timezone"`
}

// ReconcilerConfig controls the background recount of the cached active-guest counter.
type ReconcilerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 5
	}
	cfg.Server.ShutdownTimeout = time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second

	if cfg.Database.Driver == "" {
		log.Printf("database.driver is not set; defaulting to sqlite")
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "guesthouse.db"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Facility.Title == "" {
		cfg.Facility.Title = "admin settings"
	}
	if cfg.Facility.Capacity <= 0 {
		cfg.Facility.Capacity = 50
	}
	if cfg.Facility.EachPersonTime <= 0 {
		cfg.Facility.EachPersonTime = 24
	}
	if cfg.Facility.SettlementThresholdHours <= 0 {
		cfg.Facility.SettlementThresholdHours = 24
	}
	if cfg.Facility.Locale == "" {
		cfg.Facility.Locale = "en"
	}
	if cfg.Facility.Timezone == "" {
		cfg.Facility.Timezone = "UTC"
	}

	if cfg.Reconciler.IntervalSeconds <= 0 {
		cfg.Reconciler.IntervalSeconds = 300
	}
	cfg.Reconciler.Interval = time.Duration(cfg.Reconciler.IntervalSeconds) * time.Second
}

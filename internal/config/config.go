// Package config provides env-driven configuration management.
// Every option can be set through the environment with the CLOUDCOST_
// prefix (CLOUDCOST_CACHE_TTL, CLOUDCOST_SIMULATION_MODE, ...) or through
// an optional JSON/YAML config file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"cloudcost/core/types"
	"cloudcost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// CacheTTL bounds catalog/pricing cache entries
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// ComparisonTimeout is the comparison engine deadline
	ComparisonTimeout time.Duration `mapstructure:"comparison_timeout"`

	// SelectionTimeout is the selection engine deadline
	SelectionTimeout time.Duration `mapstructure:"selection_timeout"`

	// AdapterTimeout bounds a single provider call; always <= ComparisonTimeout
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`

	// MaxConcurrentEvaluations caps in-flight selection evaluations
	MaxConcurrentEvaluations int `mapstructure:"max_concurrent_evaluations"`

	// MaxRetries bounds adapter retries on transient errors
	MaxRetries int `mapstructure:"max_retries"`

	// DefaultCurrency is the normalization target currency
	DefaultCurrency types.Currency `mapstructure:"default_currency"`

	// SimulationMode serves bundled fixture catalogs instead of live APIs
	SimulationMode bool `mapstructure:"simulation_mode"`

	// CacheHitRatioTarget is diagnostic only
	CacheHitRatioTarget float64 `mapstructure:"cache_hit_ratio_target"`

	// ForecastDataPoints is the minimum history required for a forecast
	ForecastDataPoints int `mapstructure:"forecast_data_points"`

	// MaxAlternatives caps selection alternatives
	MaxAlternatives int `mapstructure:"max_alternatives"`

	// RecommendationTTL stamps valid_until on recommendations
	RecommendationTTL time.Duration `mapstructure:"recommendation_ttl"`

	// PostgresDSN enables the Postgres-backed inventory/budget store
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// Logging contains logging configuration
	Logging logging.Config `mapstructure:"logging"`
}

const envPrefix = "CLOUDCOST"

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache_ttl", "300s")
	v.SetDefault("comparison_timeout", "30s")
	v.SetDefault("selection_timeout", "30s")
	v.SetDefault("adapter_timeout", "10s")
	v.SetDefault("max_concurrent_evaluations", 10)
	v.SetDefault("max_retries", 3)
	v.SetDefault("default_currency", "USD")
	v.SetDefault("simulation_mode", false)
	v.SetDefault("cache_hit_ratio_target", 0.8)
	v.SetDefault("forecast_data_points", 3)
	v.SetDefault("max_alternatives", 3)
	v.SetDefault("recommendation_ttl", "24h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// Load reads configuration from the environment and an optional file path.
// An empty path skips file loading; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			_, notFound := err.(viper.ConfigFileNotFoundError)
			if !notFound && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// The adapter timeout can never exceed the comparison deadline.
	if cfg.AdapterTimeout > cfg.ComparisonTimeout {
		cfg.AdapterTimeout = cfg.ComparisonTimeout
	}

	return cfg, nil
}

// Default returns the configuration with no environment or file overrides
func Default() *Config {
	cfg, _ := Load("")
	return cfg
}

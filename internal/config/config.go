package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Logging        LoggingConfig
	Catalog        CatalogConfig
	Fetch          FetchConfig
	Sources        []SourceConfig `mapstructure:"sources"`
	Filtering      FilteringConfig
	CircuitBreaker CircuitBreakerConfig
	Scheduler      SchedulerConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig names the curated input and the snapshot outputs.
type CatalogConfig struct {
	CuratedPath  string      `mapstructure:"curated_path"`
	SnapshotPath string      `mapstructure:"snapshot_path"`
	ICSPath      string      `mapstructure:"ics_path"`
	WriteRetry   RetryConfig `mapstructure:"write_retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type FetchConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Source kinds. An api source returns a JSON array; a listing source is an
// HTML aggregator page.
const (
	SourceTypeAPI     = "api"
	SourceTypeListing = "listing"
)

type SourceConfig struct {
	Name    string        `mapstructure:"name"`
	Type    string        `mapstructure:"type"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

type FilteringConfig struct {
	Rules    []RuleConfig `mapstructure:"rules"`
	Fallback string       `mapstructure:"fallback"`
}

type RuleConfig struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type SchedulerConfig struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}

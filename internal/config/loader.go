package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applySourceDefaults(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", 10*time.Second)
	viper.SetDefault("server.write_timeout_seconds", 10*time.Second)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("catalog.write_retry.max_attempts", 3)
	viper.SetDefault("catalog.write_retry.initial_interval", 500*time.Millisecond)
	viper.SetDefault("catalog.write_retry.max_interval", 10*time.Second)
	viper.SetDefault("catalog.write_retry.multiplier", 2.0)

	viper.SetDefault("fetch.rate_limit_rps", 4.0)
	viper.SetDefault("fetch.rate_limit_burst", 8)

	viper.SetDefault("filtering.fallback", FallbackAllow)

	// The original calendar updater ran daily at 03:00.
	viper.SetDefault("scheduler.cron", "0 3 * * *")
	viper.SetDefault("scheduler.run_on_start", true)
}

func bindEnvVariables() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("catalog.curated_path", "CATALOG_CURATED_PATH")
	viper.BindEnv("catalog.snapshot_path", "CATALOG_SNAPSHOT_PATH")
	viper.BindEnv("catalog.ics_path", "CATALOG_ICS_PATH")

	viper.BindEnv("scheduler.cron", "SCHEDULER_CRON")
	viper.BindEnv("scheduler.run_on_start", "SCHEDULER_RUN_ON_START")
}

func applySourceDefaults(cfg *Config) {
	for i := range cfg.Sources {
		if cfg.Sources[i].Timeout == 0 {
			cfg.Sources[i].Timeout = 10 * time.Second
		}
		if cfg.Sources[i].Type == "" {
			cfg.Sources[i].Type = SourceTypeAPI
		}
	}
}

package config

import (
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateCatalog(cfg.Catalog); err != nil {
		errors = append(errors, err)
	}

	if err := validateSources(cfg.Sources); err != nil {
		errors = append(errors, err)
	}

	if err := validateFiltering(cfg.Filtering); err != nil {
		errors = append(errors, err)
	}

	if err := validateScheduler(cfg.Scheduler); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateCatalog(cfg CatalogConfig) error {
	if cfg.SnapshotPath == "" {
		return &ValidationError{
			Field:   "catalog.snapshot_path",
			Message: "snapshot path is required",
		}
	}

	if cfg.CuratedPath == "" {
		return &ValidationError{
			Field:   "catalog.curated_path",
			Message: "curated path is required",
		}
	}

	if cfg.WriteRetry.MaxAttempts < 1 {
		return &ValidationError{
			Field:   "catalog.write_retry.max_attempts",
			Message: "at least one write attempt is required",
		}
	}

	return nil
}

func validateSources(sources []SourceConfig) error {
	seen := make(map[string]struct{}, len(sources))

	for i, src := range sources {
		field := fmt.Sprintf("sources[%d]", i)

		if src.Name == "" {
			return &ValidationError{
				Field:   field + ".name",
				Message: "source name is required",
			}
		}

		if _, dup := seen[src.Name]; dup {
			return &ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate source name %q", src.Name),
			}
		}
		seen[src.Name] = struct{}{}

		if src.Type != SourceTypeAPI && src.Type != SourceTypeListing {
			return &ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unknown source type %q (expected %q or %q)", src.Type, SourceTypeAPI, SourceTypeListing),
			}
		}

		u, err := url.Parse(src.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ValidationError{
				Field:   field + ".url",
				Message: fmt.Sprintf("invalid source URL %q", src.URL),
			}
		}

		if src.Timeout <= 0 {
			return &ValidationError{
				Field:   field + ".timeout",
				Message: "timeout must be positive",
			}
		}
	}

	return nil
}

func validateFiltering(cfg FilteringConfig) error {
	if cfg.Fallback != FallbackAllow && cfg.Fallback != FallbackDeny {
		return &ValidationError{
			Field:   "filtering.fallback",
			Message: fmt.Sprintf("fallback must be %q or %q, got %q", FallbackAllow, FallbackDeny, cfg.Fallback),
		}
	}

	for i, rule := range cfg.Rules {
		if rule.Expression == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("filtering.rules[%d].expression", i),
				Message: "rule expression is required",
			}
		}
	}

	return nil
}

func validateScheduler(cfg SchedulerConfig) error {
	if cfg.Cron == "" {
		return nil
	}

	if _, err := cron.ParseStandard(cfg.Cron); err != nil {
		return &ValidationError{
			Field:   "scheduler.cron",
			Message: fmt.Sprintf("invalid cron spec %q: %v", cfg.Cron, err),
		}
	}

	return nil
}

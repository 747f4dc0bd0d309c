package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
)

// ValidationError represents a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks cfg and returns every problem found at once as a
// *multierror.Error of *ValidationError values, or nil.
func ValidateConfig(cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	var result *multierror.Error
	add := func(field, format string, args ...any) {
		result = multierror.Append(result, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Discord.Enabled && strings.TrimSpace(cfg.Discord.Token) == "" {
		add("discord.token", "required when discord is enabled")
	}
	if strings.TrimSpace(cfg.Discord.Prefix) == "" {
		add("discord.prefix", "must not be empty")
	}
	if cfg.Discord.CommandTimeoutSeconds < 0 {
		add("discord.command_timeout_seconds", "must be >= 0, got %d", cfg.Discord.CommandTimeoutSeconds)
	}

	if cfg.Interactions.TTLSeconds <= 0 {
		add("interactions.ttl_seconds", "must be > 0, got %d", cfg.Interactions.TTLSeconds)
	}
	switch cfg.Interactions.BusyPolicy {
	case "block", "reject":
	default:
		add("interactions.busy_policy", "must be one of block, reject; got %q", cfg.Interactions.BusyPolicy)
	}
	if _, err := cron.ParseStandard(cfg.Interactions.SweepSchedule); err != nil {
		add("interactions.sweep_schedule", "invalid schedule: %v", err)
	}

	for field, raw := range map[string]string{
		"apis.coingecko_base_url": cfg.APIs.CoinGeckoBaseURL,
		"apis.mochi_base_url":     cfg.APIs.MochiBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			add(field, "must be an absolute URL, got %q", raw)
		}
	}
	if cfg.APIs.CacheTTLSeconds < 0 {
		add("apis.cache_ttl_seconds", "must be >= 0, got %d", cfg.APIs.CacheTTLSeconds)
	}

	if cfg.Chart.Width < 100 || cfg.Chart.Height < 100 {
		add("chart", "width and height must be at least 100px, got %dx%d", cfg.Chart.Width, cfg.Chart.Height)
	}

	switch cfg.Cache.Backend {
	case "file":
		if strings.TrimSpace(cfg.Cache.FilePath) == "" {
			add("cache.file_path", "required for file backend")
		}
	case "redis":
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			add("redis.addr", "required for redis cache backend")
		}
	default:
		add("cache.backend", "must be one of file, redis; got %q", cfg.Cache.Backend)
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "must be between 0 and 65535, got %d", cfg.Gateway.Port)
	}

	return result.ErrorOrNil()
}

// Package config provides configuration management for mochibot.
// It uses Viper for loading JSON/YAML/TOML files with MOCHIBOT_* environment
// overrides, and fsnotify (through Viper) for hot reload.
package config

import (
	"os"
	"sync"
	"time"
)

// Config represents the complete mochibot configuration.
type Config struct {
	Discord      DiscordConfig      `mapstructure:"discord" json:"discord"`
	Interactions InteractionsConfig `mapstructure:"interactions" json:"interactions"`
	APIs         APIsConfig         `mapstructure:"apis" json:"apis"`
	Chart        ChartConfig        `mapstructure:"chart" json:"chart"`
	Cache        CacheConfig        `mapstructure:"cache" json:"cache"`
	Redis        RedisConfig        `mapstructure:"redis" json:"redis"`
	Gateway      GatewayConfig      `mapstructure:"gateway" json:"gateway"`
	Logger       LoggerConfig       `mapstructure:"logger" json:"logger"`
	mu           sync.RWMutex
}

// DiscordConfig for the Discord channel.
type DiscordConfig struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled"`
	Token     string   `mapstructure:"token" json:"token"`
	Prefix    string   `mapstructure:"prefix" json:"prefix"`
	AllowFrom []string `mapstructure:"allow_from" json:"allow_from"`
	// CommandTimeoutSeconds bounds a single command or continuation run.
	CommandTimeoutSeconds int `mapstructure:"command_timeout_seconds" json:"command_timeout_seconds"`
}

// InteractionsConfig controls the interactive session registry.
type InteractionsConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds" json:"ttl_seconds"`
	// BusyPolicy is "block" or "reject".
	BusyPolicy string `mapstructure:"busy_policy" json:"busy_policy"`
	// SweepSchedule is a robfig/cron schedule, e.g. "@every 30s".
	SweepSchedule string `mapstructure:"sweep_schedule" json:"sweep_schedule"`
}

// APIsConfig holds upstream HTTP API settings.
type APIsConfig struct {
	CoinGeckoBaseURL string `mapstructure:"coingecko_base_url" json:"coingecko_base_url"`
	MochiBaseURL     string `mapstructure:"mochi_base_url" json:"mochi_base_url"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
	CacheTTLSeconds  int    `mapstructure:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

// ChartConfig sets the rendered chart size in pixels.
type ChartConfig struct {
	Width  int `mapstructure:"width" json:"width"`
	Height int `mapstructure:"height" json:"height"`
}

// CacheConfig selects the API response cache backend.
type CacheConfig struct {
	Backend  string `mapstructure:"backend" json:"backend"` // "file" or "redis"
	FilePath string `mapstructure:"file_path" json:"file_path"`
	Prefix   string `mapstructure:"prefix" json:"prefix"`
}

// RedisConfig is shared by every Redis-backed component.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
}

// GatewayConfig for the ops HTTP server. Port 0 disables it.
type GatewayConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// LoggerConfig mirrors logger.Config in file form.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	OutputPath  string `mapstructure:"output_path" json:"output_path"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress"`
	Development bool   `mapstructure:"development" json:"development"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Discord: DiscordConfig{
			Enabled:               false,
			Prefix:                "$",
			AllowFrom:             []string{},
			CommandTimeoutSeconds: 30,
		},
		Interactions: InteractionsConfig{
			TTLSeconds:    300,
			BusyPolicy:    "block",
			SweepSchedule: "@every 30s",
		},
		APIs: APIsConfig{
			CoinGeckoBaseURL: "https://api.coingecko.com/api/v3",
			MochiBaseURL:     "https://api.mochi.pod.town/api/v1",
			TimeoutSeconds:   15,
			CacheTTLSeconds:  60,
		},
		Chart: ChartConfig{
			Width:  970,
			Height: 650,
		},
		Cache: CacheConfig{
			Backend:  "file",
			FilePath: home + "/.mochibot/cache.json",
			Prefix:   "mochibot:cache:",
		},
		Redis: RedisConfig{},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 18791,
		},
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: home + "/.mochibot/logs/mochibot.log",
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		},
	}
}

// InteractionTTL returns the default session lifetime.
func (c *Config) InteractionTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Interactions.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Interactions.TTLSeconds) * time.Second
}

// CommandTimeout returns the per-command execution deadline.
func (c *Config) CommandTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Discord.CommandTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Discord.CommandTimeoutSeconds) * time.Second
}

// APITimeout returns the HTTP client timeout for upstream APIs.
func (c *Config) APITimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.APIs.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.APIs.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long upstream API responses stay cached.
func (c *Config) CacheTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.APIs.CacheTTLSeconds) * time.Second
}

// AllowList returns a copy of the Discord user allow list.
func (c *Config) AllowList() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.Discord.AllowFrom...)
}

// CachePath returns the expanded file cache path.
func (c *Config) CachePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandPath(c.Cache.FilePath)
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}

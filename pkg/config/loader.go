package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPathEnv overrides the config file location when no path is given.
const ConfigPathEnv = "MOCHIBOT_CONFIG_FILE"

// Loader handles configuration loading with Viper.
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".mochibot"))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// MOCHIBOT_DISCORD_TOKEN -> discord.token
	v.SetEnvPrefix("MOCHIBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindDefaults(v, DefaultConfig())

	return &Loader{viper: v}
}

// bindDefaults registers every key so AutomaticEnv can override values
// that are absent from the file.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("discord.enabled", cfg.Discord.Enabled)
	v.SetDefault("discord.token", cfg.Discord.Token)
	v.SetDefault("discord.prefix", cfg.Discord.Prefix)
	v.SetDefault("discord.command_timeout_seconds", cfg.Discord.CommandTimeoutSeconds)
	v.SetDefault("interactions.ttl_seconds", cfg.Interactions.TTLSeconds)
	v.SetDefault("interactions.busy_policy", cfg.Interactions.BusyPolicy)
	v.SetDefault("interactions.sweep_schedule", cfg.Interactions.SweepSchedule)
	v.SetDefault("apis.coingecko_base_url", cfg.APIs.CoinGeckoBaseURL)
	v.SetDefault("apis.mochi_base_url", cfg.APIs.MochiBaseURL)
	v.SetDefault("apis.timeout_seconds", cfg.APIs.TimeoutSeconds)
	v.SetDefault("apis.cache_ttl_seconds", cfg.APIs.CacheTTLSeconds)
	v.SetDefault("chart.width", cfg.Chart.Width)
	v.SetDefault("chart.height", cfg.Chart.Height)
	v.SetDefault("cache.backend", cfg.Cache.Backend)
	v.SetDefault("cache.file_path", cfg.Cache.FilePath)
	v.SetDefault("cache.prefix", cfg.Cache.Prefix)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("gateway.host", cfg.Gateway.Host)
	v.SetDefault("gateway.port", cfg.Gateway.Port)
	v.SetDefault("logger.level", cfg.Logger.Level)
	v.SetDefault("logger.output_path", cfg.Logger.OutputPath)
}

// Load loads the configuration from file and environment variables.
// An empty configPath falls back to MOCHIBOT_CONFIG_FILE, then to the
// default search paths. A missing file is created with defaults.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(configPath) == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	explicit := configPath != ""
	resolved, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	if explicit {
		l.viper.SetConfigFile(resolved)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := l.Save(resolved, cfg); err != nil {
			return nil, fmt.Errorf("creating config file: %w", err)
		}
	}

	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path; the format follows the file extension.
func (l *Loader) Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	format := "json"
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	}

	v := viper.New()
	v.SetConfigType(format)
	v.Set("discord", cfg.Discord)
	v.Set("interactions", cfg.Interactions)
	v.Set("apis", cfg.APIs)
	v.Set("chart", cfg.Chart)
	v.Set("cache", cfg.Cache)
	v.Set("redis", cfg.Redis)
	v.Set("gateway", cfg.Gateway)
	v.Set("logger", cfg.Logger)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ConfigFileUsed returns the path of the loaded config file.
func (l *Loader) ConfigFileUsed() string {
	return l.viper.ConfigFileUsed()
}

func resolveConfigPath(configPath string) (string, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".mochibot", "config.json")
	}
	abs, err := filepath.Abs(expandPath(path))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}

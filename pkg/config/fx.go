package config

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"mochibot/pkg/logger"
)

// Module provides the loaded *Config, the *logger.Config derived from it
// and a hot-reload *Watcher.
var Module = fx.Module("config",
	fx.Provide(ProvideLoader),
	fx.Provide(ProvideConfig),
	fx.Provide(ProvideLoggerConfig),
	fx.Provide(ProvideWatcher),
	fx.Invoke(func(*Watcher) {}),
)

// Path is the explicit config file path supplied on the command line.
// An empty Path falls back to MOCHIBOT_CONFIG_FILE and the search paths.
type Path string

// ProvideLoader provides a configuration loader.
func ProvideLoader() *Loader {
	return NewLoader()
}

// ProvideConfig loads and validates the configuration.
func ProvideConfig(loader *Loader, path Path) (*Config, error) {
	cfg, err := loader.Load(string(path))
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideLoggerConfig derives the logger settings from the config.
func ProvideLoggerConfig(cfg *Config) *logger.Config {
	return cfg.LoggerSettings()
}

// ProvideWatcher provides a configuration watcher with hot reload.
func ProvideWatcher(loader *Loader, cfg *Config, lc fx.Lifecycle, log *logger.Logger) *Watcher {
	watcher := NewWatcher(loader, cfg, func(err error) {
		log.Warn("Configuration reload failed", zap.Error(err))
	})

	watcher.AddHandler(func(c *Config) error {
		s := c.InteractionSettings()
		log.Info("Configuration reloaded",
			zap.Int("interaction_ttl_seconds", s.TTLSeconds),
			zap.String("busy_policy", s.BusyPolicy))
		return nil
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting configuration watcher",
				zap.String("file", loader.ConfigFileUsed()))
			return watcher.Start()
		},
		OnStop: func(ctx context.Context) error {
			watcher.Stop()
			return nil
		},
	})

	return watcher
}

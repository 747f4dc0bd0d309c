package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides *Logger. It expects a *Config in the graph (config.Module
// supplies one built from the loaded configuration).
var Module = fx.Module("logger",
	fx.Provide(ProvideLogger),
)

// ProvideLogger builds the logger and flushes it on shutdown.
func ProvideLogger(cfg *Config, lc fx.Lifecycle) (*Logger, error) {
	log, err := New(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Logger initialized",
				zap.String("level", string(cfg.Level)),
				zap.String("output", cfg.OutputPath))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Sync on stdout returns EINVAL on linux; nothing to do about it.
			_ = log.Sync()
			return nil
		},
	})

	return log, nil
}

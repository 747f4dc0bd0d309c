package state

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"mochibot/pkg/config"
	"mochibot/pkg/logger"
)

// Module is the fx module for the response cache store.
var Module = fx.Module("state",
	fx.Provide(NewKVStore),
)

// NewKVStore creates the KV store selected by cfg.Cache.
func NewKVStore(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (KV, error) {
	storeCfg := &Config{
		Backend:       BackendType(cfg.Cache.Backend),
		FilePath:      cfg.CachePath(),
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		RedisPrefix:   cfg.Cache.Prefix,
	}

	store, err := NewKV(log.Named("cache"), storeCfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Cache store initialized", zap.String("backend", string(storeCfg.Backend)))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

package state

import (
	"fmt"

	"mochibot/pkg/logger"
)

// NewKV creates a KV store for the configured backend.
func NewKV(log *logger.Logger, cfg *Config) (KV, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(log, &FileStoreConfig{
			FilePath:     cfg.FilePath,
			SaveInterval: cfg.SaveInterval,
		})

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required")
		}
		return NewRedisStore(log, &RedisStoreConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Backend)
	}
}

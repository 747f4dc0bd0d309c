// Package state provides a small expiring key-value store with file and
// Redis backends. mochibot uses it to cache upstream API responses.
package state

import (
	"context"
	"time"
)

// KV is the interface for key-value storage backends.
// A ttl of zero means the entry never expires.
type KV interface {
	// Get returns the value and whether a live entry exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// BackendType represents the storage backend type.
type BackendType string

const (
	BackendFile  BackendType = "file"
	BackendRedis BackendType = "redis"
)

// Config configures the state store.
type Config struct {
	Backend BackendType

	// File backend
	FilePath     string
	SaveInterval time.Duration

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"mochibot/pkg/fileutil"
	"mochibot/pkg/logger"
)

type fileEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// FileStore keeps entries in memory and flushes them to a JSON file on a
// ticker. Expired entries are dropped on read and on flush.
type FileStore struct {
	log      *logger.Logger
	filePath string
	now      func() time.Time

	mu      sync.RWMutex
	data    map[string]fileEntry
	dirty   bool
	ticker  *time.Ticker
	stop    chan struct{}
	stopped sync.Once
}

// FileStoreConfig configures the file store.
type FileStoreConfig struct {
	FilePath string
	// SaveInterval is the flush period (default 5s).
	SaveInterval time.Duration
}

// NewFileStore creates a file-backed store, loading any existing file.
func NewFileStore(log *logger.Logger, cfg *FileStoreConfig) (*FileStore, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file path is required")
	}
	interval := cfg.SaveInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	s := &FileStore{
		log:      log,
		filePath: cfg.FilePath,
		now:      time.Now,
		data:     make(map[string]fileEntry),
		stop:     make(chan struct{}),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	s.ticker = time.NewTicker(interval)
	go s.flushLoop()

	return s, nil
}

// Get returns a live entry.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()

	if !ok || entry.expired(s.now()) {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set stores value with an optional ttl.
func (s *FileStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := fileEntry{Value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = entry
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.dirty = true
	}
	s.mu.Unlock()
	return nil
}

// Flush writes pending changes to disk atomically.
func (s *FileStore) Flush() error {
	now := s.now()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
		}
	}
	payload, err := json.Marshal(s.data)
	count := len(s.data)
	s.dirty = false
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := fileutil.WriteFileAtomic(s.filePath, payload, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}

	s.log.Debug("Flushed cache", zap.String("file", s.filePath), zap.Int("keys", count))
	return nil
}

// Close stops the flush loop and writes a final snapshot.
func (s *FileStore) Close() error {
	s.stopped.Do(func() {
		s.ticker.Stop()
		close(s.stop)
	})
	return s.Flush()
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	data := make(map[string]fileEntry)
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshaling state: %w", err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	s.log.Info("Loaded cache", zap.String("file", s.filePath), zap.Int("keys", len(data)))
	return nil
}

func (s *FileStore) flushLoop() {
	for {
		select {
		case <-s.ticker.C:
			if err := s.Flush(); err != nil {
				s.log.Error("Cache flush failed", zap.Error(err))
			}
		case <-s.stop:
			return
		}
	}
}

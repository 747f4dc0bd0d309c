package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called after a successful reload.
type ChangeHandler func(*Config) error

// Watcher reloads the config file on change and applies the new values to
// the live *Config in place, so holders of the pointer see them.
type Watcher struct {
	loader   *Loader
	config   *Config
	handlers []ChangeHandler
	onError  func(error)
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(loader *Loader, cfg *Config, onError func(error)) *Watcher {
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{
		loader:  loader,
		config:  cfg,
		onError: onError,
	}
}

// AddHandler registers a handler called after each reload.
func (w *Watcher) AddHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching the config file used by the loader.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.watching = true
	w.mu.Unlock()

	w.loader.viper.OnConfigChange(func(e fsnotify.Event) {
		w.mu.RLock()
		active := w.watching
		w.mu.RUnlock()
		if !active {
			return
		}
		if err := w.Reload(); err != nil {
			w.onError(fmt.Errorf("reloading %s: %w", e.Name, err))
		}
	})
	w.loader.viper.WatchConfig()
	return nil
}

// Reload re-reads the file, validates it and applies it.
func (w *Watcher) Reload() error {
	next, err := w.loader.Load(w.loader.ConfigFileUsed())
	if err != nil {
		return err
	}
	if err := ValidateConfig(next); err != nil {
		return err
	}

	w.config.apply(next)

	w.mu.RLock()
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(w.config); err != nil {
			w.onError(err)
		}
	}
	return nil
}

// Stop marks the watcher stopped. Viper offers no way to detach its
// fsnotify watcher, so later events are ignored instead.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watching = false
	w.handlers = nil
}

// apply copies the hot-reloadable sections of next into c.
func (c *Config) apply(next *Config) {
	next.mu.RLock()
	defer next.mu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Interactions = next.Interactions
	c.APIs = next.APIs
	c.Chart = next.Chart
	c.Discord.AllowFrom = append([]string(nil), next.Discord.AllowFrom...)
	c.Discord.CommandTimeoutSeconds = next.Discord.CommandTimeoutSeconds
}

// InteractionSettings returns a copy of the interaction settings.
func (c *Config) InteractionSettings() InteractionsConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Interactions
}

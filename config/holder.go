package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/petal-labs/appcore/bus"
	"github.com/petal-labs/appcore/event"
)

// debounceDuration collapses bursts of file events (editors often write a
// file several times per save) into a single reload.
const debounceDuration = 500 * time.Millisecond

// Holder holds configuration with atomic reloading capability. It provides
// thread-safe access to the current config, supports hot reloading from
// file, and announces successful reloads on the event bus.
type Holder struct {
	mu      sync.RWMutex
	current Config

	path      string
	publisher bus.Publisher
	logger    *slog.Logger

	watcher *fsnotify.Watcher
}

// NewHolder creates a holder around an initial config. publisher may be nil
// to disable reload announcements.
func NewHolder(initial Config, path string, publisher bus.Publisher, logger *slog.Logger) *Holder {
	if publisher == nil {
		publisher = bus.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Holder{
		current:   initial,
		path:      path,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload reloads the configuration from file. If loading or validation
// fails the old configuration is kept and an error is returned; on success
// the new config is swapped in atomically and a ConfigReloaded event is
// published.
func (h *Holder) Reload(_ context.Context) error {
	newCfg, err := Load(h.path)
	if err != nil {
		h.logger.Error("config reload failed", "path", h.path, "error", err)
		return fmt.Errorf("config: reload: %w", err)
	}

	h.mu.Lock()
	h.current = newCfg
	h.mu.Unlock()

	h.publisher.Publish(event.ConfigReloaded{Path: h.path})
	h.logger.Info("configuration reloaded", "path", h.path)
	return nil
}

// StartWatcher starts watching the config file for changes. If the holder
// has no path (config came from defaults only), this is a no-op.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.path == "" {
		h.logger.Info("config watcher disabled (no config file)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	h.watcher = watcher

	if err := watcher.Add(h.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config: watch %q: %w", h.path, err)
	}

	h.logger.Info("watching config file", "path", h.path)
	go h.watchLoop(ctx)
	return nil
}

// watchLoop is the file watcher loop.
func (h *Holder) watchLoop(ctx context.Context) {
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			_ = h.watcher.Close()
			return

		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			// Write and Create cover the save strategies of common editors.
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDuration, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error("automatic config reload failed", "error", err)
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error("config watcher error", "error", err)
		}
	}
}

// Stop stops the config watcher (if running).
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

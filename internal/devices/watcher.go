package devices

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/birdcall/internal/domain"
	"github.com/bft-labs/birdcall/pkg/log"
)

// Loader reads the device table from a config file.
type Loader func(path string) (map[string]domain.Endpoint, error)

// Watcher reloads a Registry whenever its config file is written.
type Watcher struct {
	path     string
	registry *Registry
	load     Loader
	logger   log.Logger
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for path. debounce <= 0 uses 100ms.
func NewWatcher(path string, registry *Registry, load Loader, logger log.Logger, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		path:     path,
		registry: registry,
		load:     load,
		logger:   logger,
		debounce: debounce,
	}
}

// Start begins watching. The directory is watched rather than the file so
// editors that replace the file by rename are picked up.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(watchCtx, fw)

	w.logger.Info("watching device config", log.String("path", w.path))
	return nil
}

// Stop ends the watch loop and waits for it.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("device config watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.Reload)
}

// Reload loads the file now. On failure the previous devices stay active.
func (w *Watcher) Reload() {
	devices, err := w.load(w.path)
	if err != nil {
		w.logger.Error("device config reload failed, keeping previous devices",
			log.String("path", w.path), log.Err(err))
		return
	}
	w.registry.Replace(devices)
	w.logger.Info("device config reloaded", log.Int("devices", len(devices)))
}

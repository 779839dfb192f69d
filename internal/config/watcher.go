package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration when config.json changes on disk.
type Watcher struct {
	manager      *Manager
	watcher      *fsnotify.Watcher
	onChange     func(*Config)
	debounceTime time.Duration

	mu      sync.Mutex
	pending bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher that calls onChange with the reloaded config.
func NewWatcher(m *Manager, onChange func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		manager:      m,
		watcher:      w,
		onChange:     onChange,
		debounceTime: 200 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins watching. Editors often replace the file, so the directory is watched.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.manager.Dir(), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := w.watcher.Add(w.manager.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.manager.Dir(), err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	target := filepath.Clean(w.manager.GetConfigPath())
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = true
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Config watcher error: %v", err)
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	cfg, err := w.manager.LoadWithEnv()
	if err != nil {
		log.Printf("⚠️  Config reload failed: %v", err)
		return
	}
	log.Printf("🔄 Config reloaded from %s", w.manager.GetConfigPath())
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

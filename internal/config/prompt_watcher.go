package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"resumeforge/internal/errors"
)

// PromptWatcher reloads prompt files in a PromptStore when they change on disk
type PromptWatcher struct {
	mu sync.Mutex

	store *PromptStore

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	pending       map[string]*time.Timer

	stopChan chan struct{}
	onReload func(path string)
	logger   *errors.Logger

	running bool
}

// NewPromptWatcher creates a watcher over every file the store has loaded.
// onReload is called after a successful reload and may be nil.
func NewPromptWatcher(store *PromptStore, debounceDelay time.Duration, onReload func(path string), logger *errors.Logger) *PromptWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	return &PromptWatcher{
		store:         store,
		debounceDelay: debounceDelay,
		pending:       make(map[string]*time.Timer),
		stopChan:      make(chan struct{}),
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching. Directories are watched so atomic renames are seen.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}

	files := pw.store.Files()
	if len(files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for _, file := range files {
		dirs[filepath.Dir(file)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	pw.fsWatcher = watcher
	pw.running = true
	go pw.watchLoop(files)

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher started", "files", files, "debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher and cancels pending reloads
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)
	for path, timer := range pw.pending {
		timer.Stop()
		delete(pw.pending, path)
	}
	pw.running = false

	if err := pw.fsWatcher.Close(); err != nil {
		if pw.logger != nil {
			pw.logger.LogError(err, "Failed to close prompt file watcher")
		}
		return err
	}
	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.running
}

func (pw *PromptWatcher) watchLoop(files []string) {
	tracked := make(map[string]struct{}, len(files))
	for _, file := range files {
		tracked[file] = struct{}{}
	}

	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := tracked[name]; ok {
				pw.scheduleReload(name)
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Prompt file watcher error")
			}

		case <-pw.stopChan:
			return
		}
	}
}

// scheduleReload debounces reloads per file
func (pw *PromptWatcher) scheduleReload(path string) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return
	}
	if timer, ok := pw.pending[path]; ok {
		timer.Stop()
	}
	pw.pending[path] = time.AfterFunc(pw.debounceDelay, func() {
		pw.mu.Lock()
		delete(pw.pending, path)
		pw.mu.Unlock()
		pw.reload(path)
	})
}

func (pw *PromptWatcher) reload(path string) {
	if err := pw.store.Reload(path); err != nil {
		if pw.logger != nil {
			pw.logger.LogError(err, "Failed to reload prompt file, keeping previous content", "file", path)
		}
		return
	}
	if pw.logger != nil {
		pw.logger.Info("Prompt file reloaded", "file", path)
	}
	if pw.onReload != nil {
		pw.onReload(path)
	}
}

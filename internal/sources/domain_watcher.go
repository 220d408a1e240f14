package sources

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"hybridhunter/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// DomainWatcher reloads a DomainList when its YAML file changes. A file that
// fails to load leaves the previous list in place.
type DomainWatcher struct {
	mu sync.Mutex

	path          string
	list          *DomainList
	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	reloaded   func(count int)

	logger  *errors.Logger
	running bool
}

// NewDomainWatcher creates a watcher for path feeding list
func NewDomainWatcher(path string, list *DomainList, debounceDelay time.Duration, logger *errors.Logger) *DomainWatcher {
	if debounceDelay == 0 {
		debounceDelay = 500 * time.Millisecond
	}
	return &DomainWatcher{
		path:          filepath.Clean(path),
		list:          list,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		logger:        logger,
	}
}

// OnReload registers a callback run after every successful reload
func (dw *DomainWatcher) OnReload(fn func(count int)) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.reloaded = fn
}

// Start begins watching. The file's directory is watched so atomic
// rename-over writes are seen.
func (dw *DomainWatcher) Start() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.running {
		return fmt.Errorf("domain watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(dw.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory of %s: %w", dw.path, err)
	}

	dw.fsWatcher = watcher
	dw.running = true
	go dw.watchLoop()

	if dw.logger != nil {
		dw.logger.Info("Domain list watcher started",
			"file", dw.path,
			"debounce_delay", dw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher
func (dw *DomainWatcher) Stop() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.running {
		return nil
	}

	close(dw.stopChan)
	if dw.debounceTimer != nil {
		dw.debounceTimer.Stop()
	}
	dw.running = false

	if err := dw.fsWatcher.Close(); err != nil {
		if dw.logger != nil {
			dw.logger.LogError(err, "Failed to close domain file watcher")
		}
		return err
	}

	if dw.logger != nil {
		dw.logger.Info("Domain list watcher stopped")
	}
	return nil
}

func (dw *DomainWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-dw.fsWatcher.Events:
			if !ok {
				return
			}
			if dw.shouldProcessEvent(event) {
				dw.scheduleReload()
			}

		case err, ok := <-dw.fsWatcher.Errors:
			if !ok {
				return
			}
			if dw.logger != nil {
				dw.logger.LogError(err, "Domain file watcher error")
			}

		case <-dw.reloadChan:
			dw.reload()

		case <-dw.stopChan:
			return
		}
	}
}

func (dw *DomainWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != dw.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (dw *DomainWatcher) scheduleReload() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.debounceTimer != nil {
		dw.debounceTimer.Stop()
	}
	dw.debounceTimer = time.AfterFunc(dw.debounceDelay, func() {
		select {
		case dw.reloadChan <- struct{}{}:
		default:
		}
	})
}

func (dw *DomainWatcher) reload() {
	domains, err := LoadDomainsFile(dw.path)
	if err != nil {
		if dw.logger != nil {
			dw.logger.Warn("Domain file reload failed, keeping previous list",
				"file", dw.path,
				"error", err.Error())
		}
		return
	}

	dw.list.Replace(domains)
	if dw.logger != nil {
		dw.logger.Info("Domain list reloaded", "file", dw.path, "domains", len(domains))
	}

	dw.mu.Lock()
	cb := dw.reloaded
	dw.mu.Unlock()
	if cb != nil {
		cb(len(domains))
	}
}

// IsRunning returns whether the watcher is currently running
func (dw *DomainWatcher) IsRunning() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.running
}

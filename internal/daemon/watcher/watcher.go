// Package watcher handles file system watching for the daemon.
package watcher

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gatehouse-io/gatehouse/internal/config"
)

// Event reports that a branch's audit file changed.
type Event struct {
	// Branch is the sanitized branch directory name.
	Branch string
	Path   string
}

// Watcher watches the audit log root for appends and new branch
// directories, emitting debounced per-branch change events.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	logRoot    string
	eventsChan chan Event
	done       chan struct{}

	mu       sync.RWMutex
	branches map[string]bool // branch dir -> watched

	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher over the given audit log root.
func New(logRoot string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		logRoot:    logRoot,
		eventsChan: make(chan Event, 100),
		done:       make(chan struct{}),
		branches:   make(map[string]bool),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving change events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start watches the log root and any existing branch directories.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.logRoot); err != nil {
		return err
	}

	// Watch branch dirs that already exist.
	branches, err := filepath.Glob(filepath.Join(w.logRoot, "*"))
	if err == nil {
		for _, dir := range branches {
			w.watchBranchDir(dir)
		}
	}

	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

func (w *Watcher) watchBranchDir(dir string) {
	name := filepath.Base(dir)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.branches[name] {
		return
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		log.Printf("[watcher] failed to watch %s: %v", dir, err)
		return
	}
	w.branches[name] = true
	log.Printf("[watcher] watching branch dir %s", dir)
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Accept write, create, and rename events. Rename matters: atomic
	// writes (write tmp, rename to target) produce Rename on the target.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	dir := filepath.Dir(event.Name)
	base := filepath.Base(event.Name)

	// New branch directory created directly under the log root.
	if dir == w.logRoot && base != config.AuditFileName {
		w.watchBranchDir(event.Name)
		return
	}

	// Audit file append inside a branch directory.
	if base != config.AuditFileName {
		return
	}

	w.debounceEvent(event.Name, func() {
		select {
		case w.eventsChan <- Event{Branch: filepath.Base(dir), Path: event.Name}:
		case <-w.done:
		}
	})
}

// debounceEvent debounces events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	w.debounce[path] = time.AfterFunc(100*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

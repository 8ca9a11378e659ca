// Package tui implements the live audit-trail viewer behind 'gatehouse tail'.
package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/config"
)

// debounceDelay coalesces rapid appends into one reload.
const debounceDelay = 100 * time.Millisecond

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// Run launches the tail viewer for one branch.
func Run(logRoot, branch string, limit int) error {
	ref := &programRef{}
	model := NewModel(logRoot, branch, limit)

	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.Set(p)

	stop := watchBranch(logRoot, branch, limit, ref)
	defer stop()

	_, err := p.Run()
	ref.Clear()
	return err
}

// watchBranch reloads events whenever the branch's audit file changes.
// The branch directory may not exist yet; the watcher falls back to the
// log root and picks up the directory when the first event creates it.
func watchBranch(logRoot, branch string, limit int, ref *programRef) (stop func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		ref.Send(WatchStoppedMsg{Err: err})
		return func() {}
	}

	dir := config.BranchLogDir(logRoot, branch)
	if err := watcher.Add(dir); err != nil {
		if err := watcher.Add(logRoot); err != nil {
			watcher.Close()
			ref.Send(WatchStoppedMsg{Err: err})
			return func() {}
		}
	}

	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		reload := func() {
			events, err := audit.ReadEvents(logRoot, branch, limit)
			if err != nil {
				ref.Send(LoadErrMsg{Err: err})
				return
			}
			ref.Send(EventsLoadedMsg{Events: events})
		}

		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				// The branch dir appearing under the log root means the
				// first event just landed; start watching it directly.
				if ev.Op&fsnotify.Create != 0 && ev.Name == dir {
					_ = watcher.Add(dir)
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceDelay, reload)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() {
		watcher.Close()
	}
}

// Package runner drives the daemon's continuous ship loop: fsnotify
// wakeups for fresh appends plus a periodic sweep as a fallback.
package runner

import (
	"context"
	"log"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/daemon/watcher"
	"github.com/gatehouse-io/gatehouse/internal/models"
	"github.com/gatehouse-io/gatehouse/internal/shipper"
)

// Status is a snapshot of the runner's state for the control service.
type Status struct {
	StartedAt      time.Time
	FilesTracked   int
	EntriesShipped int64
	BatchesFailed  int64
	LastShipAt     time.Time
	Sink           string
}

// Runner owns the shipper and the wakeup sources.
type Runner struct {
	shipper   *shipper.Shipper
	watcher   *watcher.Watcher
	sink      string
	sweep     time.Duration
	flushCh   chan chan error
	startedAt time.Time
}

// New creates a runner. The watcher may be nil, in which case only the
// sweep ticker drives cycles.
func New(s *shipper.Shipper, w *watcher.Watcher, settings *models.Settings) *Runner {
	sweep := time.Duration(settings.Shipper.SweepInterval) * time.Second
	if sweep <= 0 {
		sweep = 5 * time.Second
	}
	return &Runner{
		shipper:   s,
		watcher:   w,
		sink:      settings.Shipper.Sink,
		sweep:     sweep,
		flushCh:   make(chan chan error, 1),
		startedAt: time.Now().UTC(),
	}
}

// Status returns a snapshot for the control service.
func (r *Runner) Status() Status {
	stats := r.shipper.Stats()
	return Status{
		StartedAt:      r.startedAt,
		FilesTracked:   stats.FilesTracked,
		EntriesShipped: stats.EntriesShipped,
		BatchesFailed:  stats.BatchesFailed,
		LastShipAt:     stats.LastShipAt,
		Sink:           r.sink,
	}
}

// FlushNow requests an immediate cycle and waits for it to finish.
func (r *Runner) FlushNow(ctx context.Context) error {
	done := make(chan error, 1)
	select {
	case r.flushCh <- done:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run loops until ctx is cancelled. Each wakeup ships every file's
// backlog; per-file errors are already logged and swallowed inside the
// shipper so a dead sink never kills the loop.
func (r *Runner) Run(ctx context.Context) {
	log.Printf("[runner] started (sweep %s, sink %s)", r.sweep, r.sink)

	var watchEvents <-chan watcher.Event
	if r.watcher != nil {
		watchEvents = r.watcher.Events()
	}

	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	// Ship whatever backlog accumulated while the daemon was down.
	r.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[runner] stopping, final flush")
			// Final flush with a bounded context so shutdown stays prompt.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			r.cycle(flushCtx)
			cancel()
			return
		case ev := <-watchEvents:
			log.Printf("[runner] wakeup: %s changed", ev.Branch)
			r.cycle(ctx)
		case <-ticker.C:
			r.cycle(ctx)
		case done := <-r.flushCh:
			done <- r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) error {
	if err := r.shipper.RunCycle(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[runner] cycle failed: %v", err)
		return err
	}
	return nil
}

package shipper

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/models"
)

// Stats are cumulative counters for one Shipper's lifetime.
type Stats struct {
	FilesTracked   int
	EntriesShipped int64
	BatchesFailed  int64
	LastShipAt     time.Time
}

// Shipper tails discovered audit files and forwards new lines to a sink,
// committing a checkpoint after each successfully shipped batch.
type Shipper struct {
	logRoot     string
	sink        Sink
	checkpoints *CheckpointStore
	batchSize   int
	retry       RetryPolicy

	mu    sync.Mutex
	stats Stats
}

// New creates a shipper over logRoot with the given sink and checkpoints.
func New(logRoot string, sink Sink, checkpoints *CheckpointStore, cfg models.ShipperConfig) *Shipper {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 256
	}
	retry := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelayMS > 0 {
		retry.BaseDelay = time.Duration(cfg.BaseDelayMS) * time.Millisecond
	}
	return &Shipper{
		logRoot:     logRoot,
		sink:        sink,
		checkpoints: checkpoints,
		batchSize:   batch,
		retry:       retry,
	}
}

// Stats returns a snapshot of the shipper's counters.
func (s *Shipper) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// RunCycle ships the backlog of every discovered audit file once.
// Individual file failures are logged and do not abort the cycle.
func (s *Shipper) RunCycle(ctx context.Context) error {
	branches, err := audit.ListBranches(s.logRoot)
	if err != nil {
		return fmt.Errorf("failed to list branch logs: %w", err)
	}

	s.mu.Lock()
	s.stats.FilesTracked = len(branches)
	s.mu.Unlock()

	for _, b := range branches {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.ShipFile(ctx, b.AuditPath, b.Dir); err != nil {
			log.Printf("[shipper] %s: %v", b.Dir, err)
		}
	}
	return nil
}

// ShipFile ships the backlog of a single audit file in batches. The branch
// label is the sanitized branch directory name.
func (s *Shipper) ShipFile(ctx context.Context, path, branch string) error {
	if branch == "" {
		branch = filepath.Base(filepath.Dir(path))
	}

	cp := s.checkpoints.Load(path)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		res, err := TailFile(path, cp.Offset, cp.Lines, s.batchSize)
		if err != nil {
			return err
		}
		if res.Truncated {
			log.Printf("[shipper] %s truncated below checkpoint, resetting to start", path)
			cp.Offset = 0
			cp.Lines = 0
		}
		if len(res.Entries) == 0 {
			return nil
		}

		if err := s.shipWithRetry(ctx, branch, res.Entries); err != nil {
			// Give up for this cycle; the checkpoint stays put so the next
			// cycle retries the same batch (at-least-once).
			s.mu.Lock()
			s.stats.BatchesFailed++
			s.mu.Unlock()
			return fmt.Errorf("ship failed after %d attempts: %w", s.retry.MaxAttempts, err)
		}

		cp.Offset = res.NextOffset
		cp.Lines = res.NextLine
		if err := s.checkpoints.Commit(cp); err != nil {
			return fmt.Errorf("failed to commit checkpoint: %w", err)
		}

		s.mu.Lock()
		s.stats.EntriesShipped += int64(len(res.Entries))
		s.stats.LastShipAt = time.Now().UTC()
		s.mu.Unlock()

		if len(res.Entries) < s.batchSize {
			return nil
		}
	}
}

// shipWithRetry attempts one batch with the retry policy's delays.
func (s *Shipper) shipWithRetry(ctx context.Context, branch string, entries []Entry) error {
	var lastErr error
	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		if delay := s.retry.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if lastErr = s.sink.Ship(ctx, branch, entries); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[shipper] attempt %d/%d for %s failed: %v",
			attempt+1, s.retry.MaxAttempts, branch, lastErr)
	}
	return lastErr
}

// BuildSink constructs the sink selected by settings.
func BuildSink(settings *models.Settings) (Sink, error) {
	switch settings.Shipper.Sink {
	case models.SinkRedis:
		return NewRedisSink(settings.Shipper.Redis, settings.StreamName()), nil
	case models.SinkKafka:
		return NewKafkaSink(settings.Shipper.Kafka), nil
	case models.SinkNone, "":
		return NopSink{}, nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", settings.Shipper.Sink)
	}
}

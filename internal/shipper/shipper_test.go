package shipper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/models"
)

// fakeSink records shipped batches and can fail a set number of times.
type fakeSink struct {
	mu       sync.Mutex
	batches  [][]Entry
	branches []string
	failures int
	calls    int
}

func (f *fakeSink) Ship(_ context.Context, branch string, entries []Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("sink unavailable")
	}
	batch := make([]Entry, len(entries))
	copy(batch, entries)
	f.batches = append(f.batches, batch)
	f.branches = append(f.branches, branch)
	return nil
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) shipped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func newTestShipper(t *testing.T, sink Sink, cfg models.ShipperConfig) (*Shipper, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewCheckpointStore(filepath.Join(root, "checkpoints"))
	if err != nil {
		t.Fatalf("NewCheckpointStore: %v", err)
	}
	logRoot := filepath.Join(root, "logs")
	if err := os.MkdirAll(logRoot, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if cfg.BaseDelayMS == 0 {
		cfg.BaseDelayMS = 1 // keep retries fast in tests
	}
	return New(logRoot, sink, store, cfg), logRoot
}

func appendEvents(t *testing.T, logRoot, branch string, count int) {
	t.Helper()
	w := audit.NewWriter(logRoot)
	for i := 0; i < count; i++ {
		if err := w.Append(branch, audit.NewEvent("PostToolUse")); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestRunCycleShipsBacklog(t *testing.T) {
	sink := &fakeSink{}
	s, logRoot := newTestShipper(t, sink, models.ShipperConfig{})
	appendEvents(t, logRoot, "main", 5)
	appendEvents(t, logRoot, "feature/x", 2)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if got := sink.shipped(); got != 7 {
		t.Fatalf("shipped %d entries, want 7", got)
	}

	stats := s.Stats()
	if stats.EntriesShipped != 7 {
		t.Errorf("EntriesShipped = %d, want 7", stats.EntriesShipped)
	}
	if stats.FilesTracked != 2 {
		t.Errorf("FilesTracked = %d, want 2", stats.FilesTracked)
	}
}

func TestRunCycleIsIncremental(t *testing.T) {
	sink := &fakeSink{}
	s, logRoot := newTestShipper(t, sink, models.ShipperConfig{})
	appendEvents(t, logRoot, "main", 3)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if got := sink.shipped(); got != 3 {
		t.Fatalf("shipped %d entries across two cycles, want 3 (no reprocessing)", got)
	}

	appendEvents(t, logRoot, "main", 2)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("third cycle: %v", err)
	}
	if got := sink.shipped(); got != 5 {
		t.Fatalf("shipped %d entries, want 5", got)
	}
}

func TestShipRetriesThenSucceeds(t *testing.T) {
	sink := &fakeSink{failures: 2}
	s, logRoot := newTestShipper(t, sink, models.ShipperConfig{MaxAttempts: 5})
	appendEvents(t, logRoot, "main", 1)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sink.calls != 3 {
		t.Errorf("sink called %d times, want 3 (2 failures + success)", sink.calls)
	}
	if sink.shipped() != 1 {
		t.Errorf("shipped %d, want 1", sink.shipped())
	}
}

func TestShipGivesUpAndKeepsCheckpoint(t *testing.T) {
	sink := &fakeSink{failures: 100}
	s, logRoot := newTestShipper(t, sink, models.ShipperConfig{MaxAttempts: 3})
	appendEvents(t, logRoot, "main", 2)

	// The cycle itself does not fail; the file's failure is swallowed.
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sink.calls != 3 {
		t.Errorf("sink called %d times, want 3", sink.calls)
	}
	if s.Stats().BatchesFailed != 1 {
		t.Errorf("BatchesFailed = %d, want 1", s.Stats().BatchesFailed)
	}

	// Sink recovers; the same batch is re-shipped (at-least-once).
	sink.mu.Lock()
	sink.failures = 0
	sink.mu.Unlock()
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("recovery cycle: %v", err)
	}
	if got := sink.shipped(); got != 2 {
		t.Fatalf("shipped %d after recovery, want 2", got)
	}
}

func TestShipBatching(t *testing.T) {
	sink := &fakeSink{}
	s, logRoot := newTestShipper(t, sink, models.ShipperConfig{BatchSize: 2})
	appendEvents(t, logRoot, "main", 5)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.batches) != 3 {
		t.Fatalf("got %d batches, want 3 (2+2+1)", len(sink.batches))
	}
	if len(sink.batches[2]) != 1 {
		t.Errorf("last batch has %d entries, want 1", len(sink.batches[2]))
	}
}

func TestShipRespectsContextCancellation(t *testing.T) {
	sink := &fakeSink{failures: 100}
	s, logRoot := newTestShipper(t, sink, models.ShipperConfig{MaxAttempts: 50, BaseDelayMS: 50})
	appendEvents(t, logRoot, "main", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.ShipFile(ctx, filepath.Join(logRoot, "main", "audit.jsonl"), "main")
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v, expected prompt abort", elapsed)
	}
}

func TestCheckpointStoreRoundTrip(t *testing.T) {
	store, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCheckpointStore: %v", err)
	}

	cp := Checkpoint{Path: "/logs/main/audit.jsonl", Offset: 1234, Lines: 42}
	if err := store.Commit(cp); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	loaded := store.Load("/logs/main/audit.jsonl")
	if loaded.Offset != 1234 || loaded.Lines != 42 {
		t.Errorf("Load = %+v", loaded)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}

	// Unknown path loads a zero checkpoint.
	zero := store.Load("/logs/other/audit.jsonl")
	if zero.Offset != 0 || zero.Lines != 0 {
		t.Errorf("zero checkpoint = %+v", zero)
	}
}

func TestRetryPolicyDelays(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts:    8,
		BaseDelay:      100 * time.Millisecond,
		LinearAttempts: 3,
		MaxDelay:       2 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond}, // linear
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 600 * time.Millisecond}, // doubling starts
		{5, 1200 * time.Millisecond},
		{6, 2 * time.Second}, // capped
		{7, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBuildSink(t *testing.T) {
	settings := models.NewSettings()

	settings.Shipper.Sink = models.SinkNone
	sink, err := BuildSink(settings)
	if err != nil {
		t.Fatalf("BuildSink(none): %v", err)
	}
	if _, ok := sink.(NopSink); !ok {
		t.Errorf("expected NopSink, got %T", sink)
	}

	settings.Shipper.Sink = "carrier-pigeon"
	if _, err := BuildSink(settings); err == nil {
		t.Error("expected error for unknown sink kind")
	}
}

package shipper

import "context"

// Sink is a downstream stream the shipper forwards audit lines to.
// Ship must be atomic per call from the shipper's perspective: an error
// means the whole batch will be retried, so sinks that partially deliver
// must tolerate duplicates (at-least-once).
type Sink interface {
	Ship(ctx context.Context, branch string, entries []Entry) error
	Close() error
}

// NopSink discards everything. Used when shipping is disabled in settings
// so the rest of the pipeline (tailing, checkpoints) still advances.
type NopSink struct{}

// Ship discards the batch.
func (NopSink) Ship(context.Context, string, []Entry) error { return nil }

// Close is a no-op.
func (NopSink) Close() error { return nil }

package shipper

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/config"
)

// Checkpoint records how far a log file has been shipped.
type Checkpoint struct {
	Path      string    `json:"path"`
	Offset    int64     `json:"offset"`
	Lines     int64     `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckpointStore persists one checkpoint file per tracked log file,
// written atomically so a crash never leaves a torn checkpoint. Delivery
// is at-least-once: a crash between ship and commit re-ships the batch.
type CheckpointStore struct {
	dir string
}

// NewCheckpointStore creates a store rooted at dir.
func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	return &CheckpointStore{dir: dir}, nil
}

// Load returns the checkpoint for a log file, or a zero checkpoint if none
// exists yet. A corrupt checkpoint file is treated as absent; re-shipping
// from zero is safe under the at-least-once bound.
func (s *CheckpointStore) Load(logPath string) Checkpoint {
	cp := Checkpoint{Path: logPath}

	data, err := os.ReadFile(s.fileFor(logPath))
	if err != nil {
		return cp
	}
	var loaded Checkpoint
	if err := json.Unmarshal(data, &loaded); err != nil {
		return cp
	}
	if loaded.Path != logPath {
		// Hash collision or manual tampering; start over.
		return cp
	}
	return loaded
}

// Commit durably records the checkpoint via temp-file-and-rename.
func (s *CheckpointStore) Commit(cp Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	return config.WriteFileAtomic(s.fileFor(cp.Path), data, 0o644)
}

// fileFor maps a log path to its checkpoint file. The hash keeps names
// filesystem-safe and collision-free across arbitrary log paths.
func (s *CheckpointStore) fileFor(logPath string) string {
	sum := sha256.Sum256([]byte(logPath))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:8])+".json")
}

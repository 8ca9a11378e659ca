package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gatehouse-io/gatehouse/internal/config"
)

// Writer appends events to a branch's audit.jsonl. Concurrent hook
// invocations rely on O_APPEND semantics; there is no locking.
type Writer struct {
	logRoot string
}

// NewWriter creates a writer rooted at logRoot.
func NewWriter(logRoot string) *Writer {
	return &Writer{logRoot: logRoot}
}

// Append writes one event as a JSON line to the branch's audit file,
// creating the branch directory on first use.
func (w *Writer) Append(branch string, ev Event) error {
	dir := config.BranchLogDir(w.logRoot, branch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create branch log dir: %w", err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	path := filepath.Join(dir, config.AuditFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// AppendQuiet appends an event and swallows any error after a stderr
// diagnostic. Hook handlers use it: the trail is best-effort and must
// never block the host tool.
func (w *Writer) AppendQuiet(branch string, ev Event) {
	if err := w.Append(branch, ev); err != nil {
		log.Printf("[audit] append failed: %v", err)
	}
}

// Package audit writes and reads the per-branch JSONL audit trail.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Preview length caps, in bytes. Full payloads never land in the trail;
// the trail records what happened, not what was said.
const (
	MaxCommandPreview = 512
	MaxPromptPreview  = 256
	MaxErrorPreview   = 512
)

// Event is one line of the audit trail. All fields are flat (no nested
// maps) so json.Marshal produces a stable field order.
type Event struct {
	EventID   string `json:"event_id"`
	Timestamp string `json:"ts"`
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
	CWD       string `json:"cwd,omitempty"`
	Branch    string `json:"branch,omitempty"`

	ToolName      string `json:"tool_name,omitempty"`
	Command       string `json:"command,omitempty"`
	FilePath      string `json:"file_path,omitempty"`
	PromptPreview string `json:"prompt_preview,omitempty"`

	Decision string `json:"decision,omitempty"` // "allow" | "deny" | "ask"
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`

	Source       string `json:"source,omitempty"`  // SessionStart source
	Trigger      string `json:"trigger,omitempty"` // PreCompact trigger
	WorktreePath string `json:"worktree_path,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
}

// NewEvent creates an event stamped with a fresh ID and the current time.
func NewEvent(name string) Event {
	return Event{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Event:     name,
	}
}

// Truncate caps s at max bytes. Used for command/prompt/error previews.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

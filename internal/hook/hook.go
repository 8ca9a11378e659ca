// Package hook implements the Claude Code hook invocation protocol: one JSON
// object on stdin, an exit code back to the caller, and optionally a JSON
// object on stdout.
package hook

import (
	"encoding/json"
	"io"
	"os"
)

// Hook event names as Claude Code sends them in hook_event_name.
const (
	EventSessionStart   = "SessionStart"
	EventSessionEnd     = "SessionEnd"
	EventUserPrompt     = "UserPromptSubmit"
	EventPreToolUse     = "PreToolUse"
	EventPostToolUse    = "PostToolUse"
	EventStop           = "Stop"
	EventPreCompact     = "PreCompact"
	EventWorktreeCreate = "WorktreeCreate"
	EventWorktreeRemove = "WorktreeRemove"
)

// Exit codes defined by the hook protocol.
const (
	// ExitAllow lets the host tool continue.
	ExitAllow = 0
	// ExitBlock tells the host tool to block the action. Only explicit
	// guard decisions use it; everything else fails open with ExitAllow.
	ExitBlock = 2
)

// maxStdinBytes caps stdin reads. Hook payloads are small JSON objects;
// 1 MB is generous headroom that prevents unbounded allocation.
const maxStdinBytes = 1 << 20

// ToolInput holds the fields Gatehouse inspects out of tool_input. The full
// raw payload is preserved on Input.ToolInput for auditing.
type ToolInput struct {
	Command      string `json:"command"`
	FilePath     string `json:"file_path"`
	Description  string `json:"description"`
	WorktreePath string `json:"worktree_path"`
	Branch       string `json:"branch"`
}

// Input is the JSON object Claude Code sends on stdin to hooks.
// Fields vary by event; absent fields stay zero.
type Input struct {
	SessionID          string          `json:"session_id"`
	HookEventName      string          `json:"hook_event_name"`
	CWD                string          `json:"cwd"`
	TranscriptPath     string          `json:"transcript_path"`
	Prompt             string          `json:"prompt"`
	ToolName           string          `json:"tool_name"`
	ToolInput          json.RawMessage `json:"tool_input"`
	ToolResponse       json.RawMessage `json:"tool_response"`
	Source             string          `json:"source"`
	Trigger            string          `json:"trigger"`
	CustomInstructions string          `json:"custom_instructions"`
	StopHookActive     bool            `json:"stop_hook_active"`
}

// Tool decodes the inspected subset of tool_input. Malformed payloads
// yield a zero ToolInput (permissive parsing).
func (in *Input) Tool() ToolInput {
	var t ToolInput
	if len(in.ToolInput) > 0 {
		_ = json.Unmarshal(in.ToolInput, &t)
	}
	return t
}

// Read parses a single hook input object from r. Parsing is permissive:
// unknown fields are ignored and malformed JSON yields a zero Input so the
// caller can proceed fail-open.
func Read(r io.Reader) Input {
	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes))
	if err != nil {
		return Input{}
	}
	var in Input
	_ = json.Unmarshal(data, &in)
	return in
}

// ReadStdin parses the hook input from os.Stdin.
func ReadStdin() Input {
	return Read(os.Stdin)
}

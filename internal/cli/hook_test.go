package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/hook"
	"github.com/gatehouse-io/gatehouse/internal/models"
)

func TestExtractToolError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"no failure fields", `{"stdout": "ok"}`, ""},
		{"explicit error", `{"error": "command not found"}`, "command not found"},
		{"interrupted", `{"interrupted": true}`, "interrupted"},
		{"is_error with stderr", `{"is_error": true, "stderr": "boom"}`, "boom"},
		{"is_error without stderr", `{"is_error": true}`, "tool reported failure"},
		{"success false", `{"success": false, "stderr": "exit 1"}`, "exit 1"},
		{"success true", `{"success": true}`, ""},
		{"malformed", `{not json`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractToolError(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("extractToolError(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCheckToolRouting(t *testing.T) {
	env := hookEnv{settings: models.NewSettings(), cwd: t.TempDir()}

	tests := []struct {
		name    string
		tool    string
		input   hook.ToolInput
		blocked bool
	}{
		{"dangerous bash", "Bash", hook.ToolInput{Command: "rm -rf /"}, true},
		{"safe bash", "Bash", hook.ToolInput{Command: "ls -la"}, false},
		{"protected write", "Write", hook.ToolInput{FilePath: "/app/.env"}, true},
		{"safe write", "Write", hook.ToolInput{FilePath: "/app/main.go"}, false},
		{"protected edit", "Edit", hook.ToolInput{FilePath: "secrets.pem"}, true},
		{"unknown tool ignores command", "WebFetch", hook.ToolInput{Command: "rm -rf /"}, false},
		{"read not path-checked", "Read", hook.ToolInput{FilePath: "/app/.env"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := env.checkTool(tt.tool, tt.input)
			if verdict.Blocked != tt.blocked {
				t.Errorf("checkTool(%s, %+v).Blocked = %v, want %v",
					tt.tool, tt.input, verdict.Blocked, tt.blocked)
			}
		})
	}
}

func TestSessionDuration(t *testing.T) {
	logRoot := t.TempDir()
	writer := audit.NewWriter(logRoot)

	start := audit.NewEvent(hook.EventSessionStart)
	start.SessionID = "sess-1"
	start.Timestamp = time.Now().UTC().Add(-3 * time.Second).Format(time.RFC3339Nano)
	if err := writer.Append("main", start); err != nil {
		t.Fatal(err)
	}

	env := hookEnv{
		settings: models.NewSettings(),
		logRoot:  logRoot,
		writer:   writer,
		branch:   "main",
	}

	ms := env.sessionDuration("sess-1")
	if ms < 2900 || ms > 10000 {
		t.Errorf("sessionDuration = %dms, want roughly 3000ms", ms)
	}

	if got := env.sessionDuration("unknown-session"); got != 0 {
		t.Errorf("sessionDuration for unknown session = %d, want 0", got)
	}
	if got := env.sessionDuration(""); got != 0 {
		t.Errorf("sessionDuration for empty session = %d, want 0", got)
	}
}

func TestSessionContextMentionsBlockedEvents(t *testing.T) {
	logRoot := t.TempDir()
	writer := audit.NewWriter(logRoot)

	allow := audit.NewEvent(hook.EventPreToolUse)
	allow.Decision = hook.DecisionAllow
	deny := audit.NewEvent(hook.EventPreToolUse)
	deny.Decision = hook.DecisionDeny
	deny.Reason = "blocked: recursive delete"
	for _, ev := range []audit.Event{allow, deny} {
		if err := writer.Append("main", ev); err != nil {
			t.Fatal(err)
		}
	}

	env := hookEnv{
		settings: models.NewSettings(),
		logRoot:  logRoot,
		writer:   writer,
		branch:   "main",
	}

	got := env.sessionContext()
	if got == "" {
		t.Fatal("sessionContext returned empty string")
	}
	wantFragments := []string{"main", "2 recent events", "1 of them were blocked"}
	for _, frag := range wantFragments {
		if !strings.Contains(got, frag) {
			t.Errorf("sessionContext missing %q:\n%s", frag, got)
		}
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/guard"
	"github.com/gatehouse-io/gatehouse/internal/hook"
	"github.com/gatehouse-io/gatehouse/internal/models"
	"github.com/gatehouse-io/gatehouse/internal/shipper"
)

var hookCmd = &cobra.Command{
	Use:    "hook",
	Short:  "Hook handlers invoked by Claude Code",
	Long:   `Per-event hook handlers. These read one JSON object from stdin and are registered into .claude/settings.json by 'gatehouse install'; they are not meant to be run by hand.`,
	Hidden: true,
}

func init() {
	hookCmd.AddCommand(
		&cobra.Command{Use: "session-start", Run: runHookSessionStart},
		&cobra.Command{Use: "user-prompt", Run: runHookUserPrompt},
		&cobra.Command{Use: "pre-tool", Run: runHookPreTool},
		&cobra.Command{Use: "post-tool", Run: runHookPostTool},
		&cobra.Command{Use: "stop", Run: runHookStop},
		&cobra.Command{Use: "session-end", Run: runHookSessionEnd},
		&cobra.Command{Use: "pre-compact", Run: runHookPreCompact},
		&cobra.Command{Use: "worktree-create", Run: runHookWorktreeCreate},
		&cobra.Command{Use: "worktree-remove", Run: runHookWorktreeRemove},
	)
}

// hookEnv is the shared state a hook handler needs: settings, the resolved
// log root, and the branch the hook fired on. Construction is fail-open;
// any field may be left zero and handlers must tolerate that.
type hookEnv struct {
	settings *models.Settings
	logRoot  string
	writer   *audit.Writer
	branch   string
	cwd      string
}

func newHookEnv(in hook.Input) hookEnv {
	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("[hook] using default settings: %v", err)
		settings = models.NewSettings()
	}

	cwd := in.CWD
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	env := hookEnv{settings: settings, cwd: cwd}
	env.branch = audit.CurrentBranch(cwd)

	logRoot, err := config.ResolveLogRoot(settings)
	if err != nil {
		log.Printf("[hook] log root unavailable: %v", err)
		return env
	}
	env.logRoot = logRoot
	env.writer = audit.NewWriter(logRoot)
	return env
}

// newEvent builds an audit event stamped with the common hook fields.
func (e hookEnv) newEvent(name string, in hook.Input) audit.Event {
	ev := audit.NewEvent(name)
	ev.SessionID = in.SessionID
	ev.CWD = e.cwd
	ev.Branch = e.branch
	return ev
}

func (e hookEnv) record(ev audit.Event) {
	if e.writer == nil {
		return
	}
	e.writer.AppendQuiet(e.branch, ev)
}

// ----------------------------------------------------------------------------
// Session lifecycle
// ----------------------------------------------------------------------------

func runHookSessionStart(cmd *cobra.Command, args []string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)

	ev := env.newEvent(hook.EventSessionStart, in)
	ev.Source = in.Source
	env.record(ev)

	if !env.settings.Context.InjectOnSessionStart {
		return
	}
	out := hook.ContextOutput(hook.EventSessionStart, env.sessionContext())
	if err := out.Write(os.Stdout); err != nil {
		log.Printf("[hook] context write failed: %v", err)
	}
}

func runHookSessionEnd(cmd *cobra.Command, args []string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)

	ev := env.newEvent(hook.EventSessionEnd, in)
	ev.DurationMS = env.sessionDuration(in.SessionID)
	env.record(ev)
}

func runHookStop(cmd *cobra.Command, args []string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)

	if in.StopHookActive {
		// A previous stop hook is still driving the session; recording
		// another stop would double-count it.
		return
	}

	ev := env.newEvent(hook.EventStop, in)
	ev.DurationMS = env.sessionDuration(in.SessionID)
	env.record(ev)
}

func runHookPreCompact(cmd *cobra.Command, args []string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)

	ev := env.newEvent(hook.EventPreCompact, in)
	ev.Trigger = in.Trigger
	env.record(ev)

	if !env.settings.Context.InjectOnCompact {
		return
	}
	context := fmt.Sprintf(
		"Gatehouse: session %s on branch %q is being compacted. The audit trail under the branch log persists across compaction; continue citing it rather than re-deriving prior work.",
		in.SessionID, env.branch)
	if err := hook.ContextOutput(hook.EventPreCompact, context).Write(os.Stdout); err != nil {
		log.Printf("[hook] context write failed: %v", err)
	}
}

// sessionContext summarizes the branch's recent activity for injection at
// session start.
func (e hookEnv) sessionContext() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gatehouse audit trail is active on branch %q.", e.branch)

	if e.logRoot == "" {
		return b.String()
	}

	limit := e.settings.Context.RecentEventCount
	if limit <= 0 {
		limit = 20
	}
	events, err := audit.ReadEvents(e.logRoot, e.branch, limit)
	if err == nil && len(events) > 0 {
		last := events[len(events)-1]
		fmt.Fprintf(&b, " %d recent events on record; last was %s at %s.",
			len(events), last.Event, last.Timestamp)
		if denied := countDenied(events); denied > 0 {
			fmt.Fprintf(&b, " %d of them were blocked by guardrails.", denied)
		}
	}
	if backlog := e.unshippedBytes(); backlog > 0 {
		fmt.Fprintf(&b, " %d bytes of audit backlog await shipping.", backlog)
	}
	return b.String()
}

func countDenied(events []audit.Event) int {
	n := 0
	for _, ev := range events {
		if ev.Decision == hook.DecisionDeny {
			n++
		}
	}
	return n
}

// unshippedBytes sums the gap between each branch log's size and its
// shipper checkpoint. Zero on any error; this is advisory output only.
func (e hookEnv) unshippedBytes() int64 {
	dir, err := config.GlobalCheckpointsDir()
	if err != nil {
		return 0
	}
	store, err := shipper.NewCheckpointStore(dir)
	if err != nil {
		return 0
	}
	branches, err := audit.ListBranches(e.logRoot)
	if err != nil {
		return 0
	}

	var backlog int64
	for _, br := range branches {
		if cp := store.Load(br.AuditPath); br.SizeBytes > cp.Offset {
			backlog += br.SizeBytes - cp.Offset
		}
	}
	return backlog
}

// sessionDuration derives how long a session ran from its SessionStart
// event in the branch log. Returns 0 when the start isn't on record.
func (e hookEnv) sessionDuration(sessionID string) int64 {
	if e.logRoot == "" || sessionID == "" {
		return 0
	}
	events, err := audit.ReadEvents(e.logRoot, e.branch, 500)
	if err != nil {
		return 0
	}
	for _, ev := range events {
		if ev.SessionID != sessionID || ev.Event != hook.EventSessionStart {
			continue
		}
		started, err := time.Parse(time.RFC3339Nano, ev.Timestamp)
		if err != nil {
			return 0
		}
		return time.Since(started).Milliseconds()
	}
	return 0
}

// ----------------------------------------------------------------------------
// Prompt and tool events
// ----------------------------------------------------------------------------

func runHookUserPrompt(cmd *cobra.Command, args []string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)

	ev := env.newEvent(hook.EventUserPrompt, in)
	ev.PromptPreview = audit.Truncate(in.Prompt, audit.MaxPromptPreview)
	env.record(ev)
}

func runHookPreTool(cmd *cobra.Command, args []string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)
	tool := in.Tool()

	ev := env.newEvent(hook.EventPreToolUse, in)
	ev.ToolName = in.ToolName
	ev.Command = audit.Truncate(tool.Command, audit.MaxCommandPreview)
	ev.FilePath = tool.FilePath

	verdict := env.checkTool(in.ToolName, tool)
	if verdict.Blocked {
		ev.Decision = hook.DecisionDeny
		ev.Reason = verdict.Reason
		env.record(ev)

		fmt.Fprintln(os.Stderr, verdict.Reason)
		_ = hook.DecisionOutput(hook.DecisionDeny, verdict.Reason).Write(os.Stdout)
		os.Exit(hook.ExitBlock)
	}

	ev.Decision = hook.DecisionAllow
	env.record(ev)
}

func runHookPostTool(cmd *cobra.Command, args []string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)
	tool := in.Tool()

	ev := env.newEvent(hook.EventPostToolUse, in)
	ev.ToolName = in.ToolName
	ev.Command = audit.Truncate(tool.Command, audit.MaxCommandPreview)
	ev.FilePath = tool.FilePath
	ev.Error = audit.Truncate(extractToolError(in.ToolResponse), audit.MaxErrorPreview)
	env.record(ev)
}

// checkTool routes a tool invocation to the matching guard check. Tools
// Gatehouse doesn't know about pass through unchecked.
func (e hookEnv) checkTool(toolName string, tool hook.ToolInput) guard.Verdict {
	cfg := e.settings.Guard
	if project, err := config.LoadProject(e.cwd); err == nil && project != nil {
		cfg = project.MergedGuard(cfg)
	}
	g := guard.New(cfg)

	switch toolName {
	case "Bash":
		return g.CheckCommand(tool.Command)
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		return g.CheckPath(tool.FilePath)
	}
	return guard.Verdict{}
}

// extractToolError pulls a failure description out of a tool_response
// payload. Response shapes vary per tool, so this probes the common
// fields and returns empty for anything that looks like success.
func extractToolError(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var resp struct {
		Error       string `json:"error"`
		Stderr      string `json:"stderr"`
		IsError     bool   `json:"is_error"`
		Interrupted bool   `json:"interrupted"`
		Success     *bool  `json:"success"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	switch {
	case resp.Error != "":
		return resp.Error
	case resp.Interrupted:
		return "interrupted"
	case resp.IsError, resp.Success != nil && !*resp.Success:
		if resp.Stderr != "" {
			return resp.Stderr
		}
		return "tool reported failure"
	}
	return ""
}

// ----------------------------------------------------------------------------
// Worktree events
// ----------------------------------------------------------------------------

func runHookWorktreeCreate(cmd *cobra.Command, args []string) {
	recordWorktreeEvent(hook.EventWorktreeCreate)
}

func runHookWorktreeRemove(cmd *cobra.Command, args []string) {
	recordWorktreeEvent(hook.EventWorktreeRemove)
}

func recordWorktreeEvent(name string) {
	in := hook.ReadStdin()
	env := newHookEnv(in)
	tool := in.Tool()

	ev := env.newEvent(name, in)
	ev.WorktreePath = tool.WorktreePath
	if tool.Branch != "" {
		ev.Branch = tool.Branch
	}
	env.record(ev)
}

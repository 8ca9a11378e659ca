package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/hook"
)

var installGlobal bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register Gatehouse hooks in Claude Code settings",
	Long: `Register the Gatehouse hook handlers in .claude/settings.json.
Existing settings are preserved; running install twice is a no-op.`,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove Gatehouse hooks from Claude Code settings",
	RunE:  runUninstall,
}

func init() {
	installCmd.Flags().BoolVar(&installGlobal, "global", false, "install into ~/.claude/settings.json instead of the project")
	uninstallCmd.Flags().BoolVar(&installGlobal, "global", false, "uninstall from ~/.claude/settings.json instead of the project")
}

// hookBindings maps each lifecycle event to its handler subcommand and,
// where relevant, the tool matcher Claude Code should apply.
var hookBindings = []struct {
	event   string
	matcher string
	sub     string
}{
	{hook.EventSessionStart, "", "session-start"},
	{hook.EventUserPrompt, "", "user-prompt"},
	{hook.EventPreToolUse, "Bash|Write|Edit|MultiEdit|NotebookEdit", "pre-tool"},
	{hook.EventPostToolUse, "Bash|Write|Edit|MultiEdit|NotebookEdit", "post-tool"},
	{hook.EventStop, "", "stop"},
	{hook.EventSessionEnd, "", "session-end"},
	{hook.EventPreCompact, "", "pre-compact"},
	{hook.EventWorktreeCreate, "", "worktree-create"},
	{hook.EventWorktreeRemove, "", "worktree-remove"},
}

func runInstall(cmd *cobra.Command, args []string) error {
	path, err := claudeSettingsPath()
	if err != nil {
		return err
	}

	added, err := InstallHooks(path, hookCommandBase())
	if err != nil {
		return err
	}

	if added == 0 {
		fmt.Printf("Hooks already registered in %s.\n", path)
		return nil
	}
	fmt.Printf("%s Registered %d hooks in %s.\n", styleSuccess.Render("✓"), added, path)
	fmt.Println(styleHint.Render("Run 'gatehouse daemon start' to begin shipping the audit trail."))
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	path, err := claudeSettingsPath()
	if err != nil {
		return err
	}

	removed, err := UninstallHooks(path)
	if err != nil {
		return err
	}

	if removed == 0 {
		fmt.Printf("No Gatehouse hooks found in %s.\n", path)
		return nil
	}
	fmt.Printf("%s Removed %d hooks from %s.\n", styleSuccess.Render("✓"), removed, path)
	return nil
}

func claudeSettingsPath() (string, error) {
	if installGlobal {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, ".claude", "settings.json"), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, ".claude", "settings.json"), nil
}

// hookCommandBase resolves the command prefix hooks are registered with.
// The absolute executable path keeps hooks working when gatehouse isn't
// on PATH for the agent's environment.
func hookCommandBase() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return "gatehouse"
}

// InstallHooks adds the Gatehouse hook entries to the settings file at
// path, creating it if needed. Unrelated settings keys and hook entries
// are left untouched. Returns how many entries were added.
func InstallHooks(path, commandBase string) (int, error) {
	doc, err := readSettingsDoc(path)
	if err != nil {
		return 0, err
	}

	hooks, _ := doc["hooks"].(map[string]interface{})
	if hooks == nil {
		hooks = map[string]interface{}{}
	}

	added := 0
	for _, b := range hookBindings {
		command := commandBase + " hook " + b.sub
		entries, _ := hooks[b.event].([]interface{})
		if hasHookCommand(entries, b.sub) {
			continue
		}

		entry := map[string]interface{}{
			"hooks": []interface{}{
				map[string]interface{}{"type": "command", "command": command},
			},
		}
		if b.matcher != "" {
			entry["matcher"] = b.matcher
		}
		hooks[b.event] = append(entries, entry)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	doc["hooks"] = hooks
	return added, writeSettingsDoc(path, doc)
}

// UninstallHooks strips every Gatehouse hook entry from the settings file.
// Returns how many entries were removed.
func UninstallHooks(path string) (int, error) {
	doc, err := readSettingsDoc(path)
	if err != nil {
		return 0, err
	}

	hooks, _ := doc["hooks"].(map[string]interface{})
	if hooks == nil {
		return 0, nil
	}

	removed := 0
	for event, v := range hooks {
		entries, _ := v.([]interface{})
		var kept []interface{}
		for _, e := range entries {
			if isGatehouseEntry(e) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}

	if removed == 0 {
		return 0, nil
	}
	if len(hooks) == 0 {
		delete(doc, "hooks")
	} else {
		doc["hooks"] = hooks
	}
	return removed, writeSettingsDoc(path, doc)
}

func readSettingsDoc(path string) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

func writeSettingsDoc(path string, doc map[string]interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	return config.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// hasHookCommand reports whether any entry already runs the given hook
// subcommand, regardless of which binary path it was registered with.
func hasHookCommand(entries []interface{}, sub string) bool {
	for _, e := range entries {
		entry, _ := e.(map[string]interface{})
		for _, c := range entryCommands(entry) {
			if strings.HasSuffix(c, " hook "+sub) {
				return true
			}
		}
	}
	return false
}

func isGatehouseEntry(e interface{}) bool {
	entry, _ := e.(map[string]interface{})
	for _, c := range entryCommands(entry) {
		if strings.Contains(c, "gatehouse") && strings.Contains(c, " hook ") {
			return true
		}
	}
	return false
}

func entryCommands(entry map[string]interface{}) []string {
	inner, _ := entry["hooks"].([]interface{})
	var commands []string
	for _, h := range inner {
		hm, _ := h.(map[string]interface{})
		if c, ok := hm["command"].(string); ok {
			commands = append(commands, c)
		}
	}
	return commands
}

// Package guard implements the fail-closed checks: dangerous command
// blocking and protected path enforcement. Everything else in Gatehouse
// fails open; a positive match here is the one place that blocks the
// host tool.
package guard

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gatehouse-io/gatehouse/internal/models"
)

// Verdict is the result of a guard evaluation.
type Verdict struct {
	Blocked bool
	Rule    string // name of the rule that matched
	Reason  string // human-readable reason for the block
}

var allow = Verdict{}

func block(rule, format string, args ...interface{}) Verdict {
	return Verdict{Blocked: true, Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// builtinCommandRules are always active. Patterns match against a
// whitespace-normalized, lowercased command line.
var builtinCommandRules = []struct {
	name    string
	pattern *regexp.Regexp
	reason  string
}{
	{
		name:    "rm-recursive-root",
		pattern: regexp.MustCompile(`rm\s+(-[a-z]*[rf][a-z]*\s+)+(/|/\*|~|~/|\$home)(\s|$)`),
		reason:  "recursive delete of root or home directory",
	},
	{
		name:    "force-push-protected",
		pattern: regexp.MustCompile(`git\s+push\s+.*(--force|-f)(\s|$).*\b(main|master)\b`),
		reason:  "force push to a protected branch",
	},
	{
		name:    "fork-bomb",
		pattern: regexp.MustCompile(`:\s*\(\s*\)\s*\{\s*:\s*\|\s*:\s*&\s*\}`),
		reason:  "fork bomb",
	},
	{
		name:    "raw-disk-write",
		pattern: regexp.MustCompile(`(dd\s+.*of=/dev/(sd|hd|nvme|disk)|>\s*/dev/(sd|hd|nvme|disk))`),
		reason:  "raw write to a block device",
	},
	{
		name:    "chmod-777-root",
		pattern: regexp.MustCompile(`chmod\s+(-[a-z]*r[a-z]*\s+)?777\s+/(\s|$)`),
		reason:  "world-writable permissions on root",
	},
	{
		name:    "curl-pipe-shell",
		pattern: regexp.MustCompile(`(curl|wget)\s+[^|;]*\|\s*(ba|z|da|k)?sh\b`),
		reason:  "piping a remote script into a shell",
	},
	{
		name:    "history-clear",
		pattern: regexp.MustCompile(`(history\s+-c|>\s*~?/?\.(bash|zsh)_history)`),
		reason:  "shell history tampering",
	},
	{
		name:    "mkfs",
		pattern: regexp.MustCompile(`\bmkfs(\.[a-z0-9]+)?\s+/dev/`),
		reason:  "filesystem format of a block device",
	},
}

// builtinProtectedGlobs match against both the full path and its basename.
var builtinProtectedGlobs = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"id_rsa*",
	"id_ed25519*",
	"*.sqlite",
	"credentials*",
}

// gitInternalSegments inside a path block writes into .git plumbing.
// Worktrees and hooks live there; a tool rewriting them is never wanted.
var gitInternalSegments = []string{
	".git/config",
	".git/hooks",
	".git/objects",
	".git/refs",
}

// userRule pairs a compiled user pattern with its source text so a block
// reason can quote the pattern that actually matched, even after invalid
// entries are dropped.
type userRule struct {
	re  *regexp.Regexp
	src string
}

// Guard evaluates commands and paths against built-in and configured rules.
type Guard struct {
	cfg    models.GuardConfig
	extra  []userRule
	allowl []*regexp.Regexp
}

// New compiles a guard from configuration. Invalid user patterns are
// dropped (fail-open for configuration mistakes, never fail-closed on a
// rule the user cannot see).
func New(cfg models.GuardConfig) *Guard {
	g := &Guard{cfg: cfg}
	for _, p := range cfg.DangerousPatterns {
		if re, err := regexp.Compile(p); err == nil {
			g.extra = append(g.extra, userRule{re: re, src: p})
		}
	}
	for _, p := range cfg.AllowPatterns {
		if re, err := regexp.Compile(p); err == nil {
			g.allowl = append(g.allowl, re)
		}
	}
	return g
}

// NormalizeCommand collapses whitespace and lowercases a shell command so
// pattern matching is stable against formatting tricks.
func NormalizeCommand(command string) string {
	return strings.ToLower(strings.Join(strings.Fields(command), " "))
}

// CheckCommand evaluates a shell command. The allowlist is consulted
// first: an explicit allow beats every dangerous pattern, built-in or not.
func (g *Guard) CheckCommand(command string) Verdict {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return allow
	}
	normalized := NormalizeCommand(trimmed)

	for _, re := range g.allowl {
		if re.MatchString(normalized) {
			return allow
		}
	}

	for _, rule := range builtinCommandRules {
		if rule.pattern.MatchString(normalized) {
			return block(rule.name, "blocked: %s", rule.reason)
		}
	}
	for i, rule := range g.extra {
		if rule.re.MatchString(normalized) {
			return block(fmt.Sprintf("custom-%d", i), "blocked by configured pattern %q", rule.src)
		}
	}
	return allow
}

// CheckPath evaluates a file path targeted by a Write/Edit tool.
func (g *Guard) CheckPath(path string) Verdict {
	if strings.TrimSpace(path) == "" {
		return allow
	}
	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)

	for _, seg := range gitInternalSegments {
		if strings.Contains(cleaned, seg) {
			return block("git-internal", "blocked: write into git internals (%s)", seg)
		}
	}

	for _, glob := range builtinProtectedGlobs {
		if matchGlob(glob, cleaned, base) {
			return block("protected-builtin", "blocked: %s matches protected pattern %q", base, glob)
		}
	}
	for _, glob := range g.cfg.ProtectedPaths {
		if matchGlob(glob, cleaned, base) {
			return block("protected-custom", "blocked: %s matches protected pattern %q", base, glob)
		}
	}
	return allow
}

// matchGlob matches a glob against the path and its basename. Malformed
// globs never match.
func matchGlob(glob, path, base string) bool {
	if ok, err := filepath.Match(glob, base); err == nil && ok {
		return true
	}
	if ok, err := filepath.Match(glob, path); err == nil && ok {
		return true
	}
	return false
}

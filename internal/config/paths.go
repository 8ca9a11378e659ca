// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// GlobalDirName is the name of the global Gatehouse directory.
	GlobalDirName = ".gatehouse"

	// ProjectDirName is the name of the per-project Gatehouse directory.
	ProjectDirName = ".gatehouse"

	// LogsDirName is the name of the per-branch audit log directory.
	LogsDirName = "logs"

	// CheckpointsDirName is the name of the shipper checkpoint directory.
	CheckpointsDirName = "checkpoints"
)

// File names
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
	ProjectFileName  = "project.yaml"
	AuditFileName    = "audit.jsonl"
)

// GlobalDir returns the path to the global Gatehouse directory (~/.gatehouse/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalLogsDir returns the path to the per-branch audit log root.
func GlobalLogsDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogsDirName), nil
}

// GlobalCheckpointsDir returns the path to the shipper checkpoint directory.
func GlobalCheckpointsDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CheckpointsDirName), nil
}

// BranchLogDir returns the audit log directory for a branch under the
// given log root. Branch names are sanitized so that "feature/foo" and
// "feature-foo" land in distinct, filesystem-safe directories.
func BranchLogDir(logRoot, branch string) string {
	return filepath.Join(logRoot, SanitizeBranch(branch))
}

// BranchAuditFile returns the audit.jsonl path for a branch.
func BranchAuditFile(logRoot, branch string) string {
	return filepath.Join(BranchLogDir(logRoot, branch), AuditFileName)
}

// SanitizeBranch maps a git branch name to a filesystem-safe directory name.
// Slashes become "__" so the mapping stays unambiguous; every other
// non [a-zA-Z0-9._-] rune becomes "_".
func SanitizeBranch(branch string) string {
	if branch == "" {
		return "nobranch"
	}
	var b strings.Builder
	b.Grow(len(branch))
	for _, r := range branch {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		case r == '/':
			b.WriteString("__")
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ProjectDir returns the path to a project's .gatehouse/ directory.
func ProjectDir(projectPath string) string {
	return filepath.Join(projectPath, ProjectDirName)
}

// ProjectFile returns the path to a project's project.yaml file.
func ProjectFile(projectPath string) string {
	return filepath.Join(ProjectDir(projectPath), ProjectFileName)
}

// ProjectExists checks if a project's .gatehouse/ directory exists.
func ProjectExists(projectPath string) bool {
	_, err := os.Stat(ProjectDir(projectPath))
	return err == nil
}

// EnsureGlobalDir creates the global Gatehouse directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// EnsureGlobalLogsDir creates the audit log root if it doesn't exist.
func EnsureGlobalLogsDir() error {
	dir, err := GlobalLogsDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// EnsureGlobalCheckpointsDir creates the checkpoint directory if it doesn't exist.
func EnsureGlobalCheckpointsDir() error {
	dir, err := GlobalCheckpointsDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

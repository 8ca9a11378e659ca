package audit

import (
	"os/exec"
	"strings"
)

// CurrentBranch resolves the git branch for the given directory.
// Returns "detached" for a detached HEAD and "nobranch" when dir is not
// inside a git repository or git is unavailable. Hooks run in arbitrary
// working directories, so every failure mode maps to a usable name.
func CurrentBranch(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "nobranch"
	}

	branch := strings.TrimSpace(string(out))
	if branch == "" {
		return "nobranch"
	}
	if branch == "HEAD" {
		return "detached"
	}
	return branch
}

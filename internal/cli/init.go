package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Gatehouse in the current project",
	Long: `Initialize Gatehouse in the current project.

This will:
  1. Create a .gatehouse/project.yaml for per-project guard overrides
  2. Add .gatehouse/ to .gitignore
  3. Optionally register the hooks in .claude/settings.json`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	if config.ProjectExists(cwd) {
		return fmt.Errorf("already a Gatehouse project")
	}

	reader := bufio.NewReader(os.Stdin)

	defaultName := filepath.Base(cwd)
	fmt.Printf("Project name [%s]: ", defaultName)
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}

	project, err := config.InitProject(cwd)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	if name != project.Name {
		project.Name = name
		if err := config.SaveProject(cwd, project); err != nil {
			return fmt.Errorf("failed to save project: %w", err)
		}
	}

	if err := addToGitignore(cwd, ".gatehouse/"); err != nil {
		fmt.Printf("Warning: failed to update .gitignore: %v\n", err)
	}

	if promptYesNo(reader, "Register Claude Code hooks now?", true) {
		path := filepath.Join(cwd, ".claude", "settings.json")
		added, err := InstallHooks(path, hookCommandBase())
		if err != nil {
			fmt.Printf("Warning: failed to register hooks: %v\n", err)
		} else if added > 0 {
			fmt.Printf("Registered %d hooks in %s.\n", added, path)
		}
	}

	fmt.Printf("\n%s Project '%s' initialized.\n", styleSuccess.Render("✓"), project.Name)
	fmt.Println(styleHint.Render("Edit .gatehouse/project.yaml to add guard overrides for this project."))
	return nil
}

// addToGitignore appends entry to .gitignore unless already present.
func addToGitignore(dir, entry string) error {
	path := filepath.Join(dir, ".gitignore")

	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == entry {
				return nil
			}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, entry)
	return err
}

func promptYesNo(reader *bufio.Reader, prompt string, defaultVal bool) bool {
	defaultStr := "Y/n"
	if !defaultVal {
		defaultStr = "y/N"
	}

	fmt.Printf("  %s [%s]: ", prompt, defaultStr)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response == "" {
		return defaultVal
	}
	return response == "y" || response == "yes"
}

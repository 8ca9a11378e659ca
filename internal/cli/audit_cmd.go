package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/hook"
)

var auditShowLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches with audit logs",
	RunE:  runAuditList,
}

var auditShowCmd = &cobra.Command{
	Use:   "show [branch]",
	Short: "Show recent audit events for a branch",
	Long:  `Show recent audit events. Defaults to the current git branch.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditShow,
}

func init() {
	auditShowCmd.Flags().IntVarP(&auditShowLimit, "limit", "n", 30, "number of events to show")
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditShowCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	logRoot, err := auditLogRoot()
	if err != nil {
		return err
	}

	branches, err := audit.ListBranches(logRoot)
	if err != nil {
		return fmt.Errorf("failed to list branches: %w", err)
	}
	if len(branches) == 0 {
		fmt.Println("No audit logs yet.")
		return nil
	}

	fmt.Printf("%s\n\n", styleBrand.Render("Audit logs"))
	for _, br := range branches {
		count, err := audit.CountEvents(br.AuditPath)
		if err != nil {
			continue
		}
		fmt.Printf("  %s  %s\n",
			styleValue.Render(br.Dir),
			styleHint.Render(fmt.Sprintf("%d events, %s", count, humanBytes(br.SizeBytes))))
	}
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	logRoot, err := auditLogRoot()
	if err != nil {
		return err
	}

	branch := ""
	if len(args) > 0 {
		branch = args[0]
	} else {
		cwd, _ := os.Getwd()
		branch = audit.CurrentBranch(cwd)
	}

	events, err := audit.ReadEvents(logRoot, branch, auditShowLimit)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	if len(events) == 0 {
		fmt.Printf("No audit events for branch %q.\n", branch)
		return nil
	}

	fmt.Printf("%s %s\n\n", styleBrand.Render("Audit trail:"), styleValue.Render(branch))
	for _, ev := range events {
		fmt.Println(formatEvent(ev))
	}
	return nil
}

func auditLogRoot() (string, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	return config.ResolveLogRoot(settings)
}

// formatEvent renders one audit event as a single styled line.
func formatEvent(ev audit.Event) string {
	ts := ev.Timestamp
	if t, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err == nil {
		ts = t.Local().Format("15:04:05")
	}

	badge := badgeInfo
	switch {
	case ev.Decision == hook.DecisionDeny:
		badge = badgeDeny
	case ev.Error != "":
		badge = styleWarning
	case ev.Decision == hook.DecisionAllow:
		badge = badgeAllow
	}

	detail := ""
	switch {
	case ev.Command != "":
		detail = ev.Command
	case ev.FilePath != "":
		detail = ev.FilePath
	case ev.PromptPreview != "":
		detail = ev.PromptPreview
	case ev.WorktreePath != "":
		detail = ev.WorktreePath
	case ev.Source != "":
		detail = ev.Source
	case ev.Trigger != "":
		detail = ev.Trigger
	}

	line := fmt.Sprintf("  %s %s %s",
		styleHint.Render(ts), badge.Render(fmt.Sprintf("%-16s", ev.Event)), detail)
	if ev.Reason != "" {
		line += "\n      " + badgeDeny.Render(ev.Reason)
	}
	if ev.Error != "" {
		line += "\n      " + styleWarning.Render(ev.Error)
	}
	return line
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

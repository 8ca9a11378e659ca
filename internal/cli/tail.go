package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/tui"
)

var (
	tailBranch string
	tailLimit  int
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Live view of the audit trail",
	Long: `Follow the audit trail for the current (or --branch) branch.
Interactive viewer on a TTY; plain line streaming otherwise.`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&tailBranch, "branch", "b", "", "branch to tail (default: current git branch)")
	tailCmd.Flags().IntVarP(&tailLimit, "limit", "n", 200, "number of recent events to load")
}

func runTail(cmd *cobra.Command, args []string) error {
	logRoot, err := auditLogRoot()
	if err != nil {
		return err
	}

	branch := tailBranch
	if branch == "" {
		cwd, _ := os.Getwd()
		branch = audit.CurrentBranch(cwd)
	}

	if !isTTY(os.Stdout) {
		return tailPlain(logRoot, branch)
	}
	return tui.Run(logRoot, branch, tailLimit)
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// tailPlain streams formatted events to stdout until interrupted. New
// lines are picked up via fsnotify on the branch's log directory.
func tailPlain(logRoot, branch string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path := config.BranchAuditFile(logRoot, branch)
	shown := 0

	print := func() {
		events, err := audit.ReadEventsFile(path, 0)
		if err != nil {
			return
		}
		for ; shown < len(events); shown++ {
			fmt.Println(formatEvent(events[shown]))
		}
	}
	print()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	dir := config.BranchLogDir(logRoot, branch)
	if err := watcher.Add(dir); err != nil {
		if err := watcher.Add(logRoot); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 && ev.Name == dir {
				_ = watcher.Add(dir)
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(100*time.Millisecond, print)
		case <-watcher.Errors:
		}
	}
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/buildinfo"
	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update gatehouse and gatehoused to the latest release",
	Long:  `Download the latest release and replace both the CLI and the daemon binary, restarting the daemon if it was running.`,
	RunE:  runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := updater.NewClient(buildinfo.Version)

	fmt.Println("Checking for updates...")
	rel, err := client.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if rel == nil || !rel.Newer(buildinfo.Version) {
		fmt.Printf("Already up to date (v%s).\n", buildinfo.Version)
		return nil
	}

	fmt.Printf("Update available: v%s → %s\n", buildinfo.Version, rel.Tag)
	fmt.Printf("Release: %s\n", rel.URL)

	selfPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate gatehouse binary: %w", err)
	}
	selfPath, err = filepath.EvalSymlinks(selfPath)
	if err != nil {
		return fmt.Errorf("failed to resolve gatehouse binary: %w", err)
	}
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("failed to locate gatehoused: %w", err)
	}

	// Stage next to the installed binaries so the final rename stays on
	// one filesystem.
	stageDir, err := os.MkdirTemp(filepath.Dir(selfPath), ".update-")
	if err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(stageDir)

	fmt.Println("Downloading release binaries...")
	staged, err := client.Stage(ctx, rel, stageDir, updater.CLIBinary, updater.DaemonBinary)
	if err != nil {
		return fmt.Errorf("failed to stage update: %w", err)
	}

	// Both binaries are staged; only now touch the running installation.
	wasRunning, info, _ := config.IsDaemonRunning()
	if wasRunning && info != nil {
		fmt.Println("Stopping daemon...")
		if err := stopDaemonAndWait(info.PID); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}

	fmt.Println("Installing gatehoused...")
	if err := updater.Install(daemonPath, staged[updater.DaemonBinary]); err != nil {
		return fmt.Errorf("failed to update daemon: %w", err)
	}
	fmt.Println("Installing gatehouse...")
	if err := updater.Install(selfPath, staged[updater.CLIBinary]); err != nil {
		return fmt.Errorf("failed to update CLI: %w", err)
	}

	if wasRunning {
		fmt.Println("Restarting daemon...")
		if err := startDaemon(); err != nil {
			fmt.Printf("Warning: failed to restart daemon: %v\n", err)
		}
	}

	fmt.Printf("Updated to %s.\n", rel.Tag)
	return nil
}

// stopDaemonAndWait sends SIGTERM and waits for the daemon to exit.
func stopDaemonAndWait(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send stop signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		running, _, _ := config.IsDaemonRunning()
		if !running {
			return nil
		}
	}
	return fmt.Errorf("daemon did not stop in time")
}

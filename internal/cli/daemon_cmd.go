package cli

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/daemon/server"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the Gatehouse shipper daemon",
	Long:  `Manage the gatehoused process that continuously ships audit logs.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running && info != nil {
		fmt.Printf("Daemon is already running (PID %d, port %d).\n", info.PID, info.Port)
		return nil
	}

	// Clean up stale daemon info if it exists
	if info != nil {
		_ = config.RemoveDaemonInfo()
	}

	fmt.Print("Starting daemon...")
	if startErr := startDaemon(); startErr != nil {
		fmt.Println()
		return startErr
	}

	_, freshInfo, err := config.IsDaemonRunning()
	if err != nil || freshInfo == nil {
		fmt.Println(" started.")
		return nil
	}

	fmt.Printf(" started (PID %d, port %d).\n", freshInfo.PID, freshInfo.Port)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return err
	}

	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)

	fmt.Println(styleSuccess.Render("Daemon is running."))
	fmt.Printf("  %s %s\n", styleLabel.Render("Host:"), styleValue.Render(info.Host))
	fmt.Printf("  %s %d\n", styleLabel.Render("Port:"), info.Port)
	fmt.Printf("  %s %d\n", styleLabel.Render("PID:"), info.PID)
	fmt.Printf("  %s %s\n", styleLabel.Render("Uptime:"), uptime)

	// Ask the control service for shipper counters.
	client, closeConn, err := controlClient()
	if err != nil {
		return nil // Non-fatal: just skip shipper display
	}
	defer closeConn()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := client.GetStatus(ctx, &server.StatusRequest{})
	if err != nil {
		fmt.Println(styleHint.Render("\nShipper status unavailable."))
		return nil
	}

	fmt.Println("\nShipper:")
	fmt.Printf("  %s %s\n", styleLabel.Render("Sink:"), status.Sink)
	fmt.Printf("  %s %d\n", styleLabel.Render("Files tracked:"), status.FilesTracked)
	fmt.Printf("  %s %d\n", styleLabel.Render("Entries shipped:"), status.EntriesShipped)
	if status.BatchesFailed > 0 {
		fmt.Printf("  %s %s\n", styleLabel.Render("Batches failed:"),
			styleWarning.Render(fmt.Sprintf("%d", status.BatchesFailed)))
	}
	if !status.LastShipAt.IsZero() {
		fmt.Printf("  %s %s\n", styleLabel.Render("Last ship:"),
			status.LastShipAt.Local().Format(time.RFC3339))
	}
	if status.UpdateAvailable {
		fmt.Println(styleHint.Render(fmt.Sprintf("\nUpdate available: v%s (run 'gatehouse update')", status.LatestVersion)))
	}

	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	// Prefer a graceful stop via the control service, fall back to SIGTERM.
	if client, closeConn, err := controlClient(); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_, rpcErr := client.Shutdown(ctx, &server.ShutdownRequest{})
		cancel()
		closeConn()
		if rpcErr == nil {
			if waitForDaemonExit() {
				fmt.Println("Daemon stopped.")
				return nil
			}
		}
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	if waitForDaemonExit() {
		fmt.Println("Daemon stopped.")
		return nil
	}
	return fmt.Errorf("daemon did not stop within timeout")
}

// waitForDaemonExit polls for shutdown (max 5 seconds).
func waitForDaemonExit() bool {
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning()
		if err == nil && !stillRunning {
			return true
		}
	}
	return false
}

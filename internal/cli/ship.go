package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/daemon/server"
	"github.com/gatehouse-io/gatehouse/internal/shipper"
)

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Run one ship cycle of the audit backlog",
	Long: `Ship the unshipped audit trail to the configured sink and exit.
Useful for cron or CI; the daemon does this continuously. If the daemon is
running, the cycle is delegated to it so checkpoints stay under one writer.`,
	RunE: runShip,
}

func runShip(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Delegate to a running daemon rather than racing its checkpoints.
	if running, _, err := config.IsDaemonRunning(); err == nil && running {
		return flushViaDaemon(ctx)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	logRoot, err := config.ResolveLogRoot(settings)
	if err != nil {
		return err
	}
	checkpointDir, err := config.GlobalCheckpointsDir()
	if err != nil {
		return err
	}
	checkpoints, err := shipper.NewCheckpointStore(checkpointDir)
	if err != nil {
		return err
	}
	sink, err := shipper.BuildSink(settings)
	if err != nil {
		return err
	}
	defer sink.Close()

	sh := shipper.New(logRoot, sink, checkpoints, settings.Shipper)
	if err := sh.RunCycle(ctx); err != nil {
		return fmt.Errorf("ship cycle failed: %w", err)
	}

	stats := sh.Stats()
	fmt.Printf("%s Shipped %d entries from %d files.\n",
		styleSuccess.Render("✓"), stats.EntriesShipped, stats.FilesTracked)
	return nil
}

func flushViaDaemon(ctx context.Context) error {
	client, closeConn, err := controlClient()
	if err != nil {
		return err
	}
	defer closeConn()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	reply, err := client.FlushNow(ctx, &server.FlushRequest{})
	if err != nil {
		return fmt.Errorf("daemon flush failed: %w", err)
	}
	if reply.Error != "" {
		return fmt.Errorf("daemon flush failed: %s", reply.Error)
	}
	fmt.Printf("%s Shipped %d entries via daemon.\n", styleSuccess.Render("✓"), reply.EntriesShipped)
	return nil
}

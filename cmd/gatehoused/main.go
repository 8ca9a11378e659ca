// Package main is the entry point for the gatehoused daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/daemon/runner"
	"github.com/gatehouse-io/gatehouse/internal/daemon/server"
	"github.com/gatehouse-io/gatehouse/internal/daemon/watcher"
	"github.com/gatehouse-io/gatehouse/internal/models"
	"github.com/gatehouse-io/gatehouse/internal/shipper"
)

func main() {
	port := flag.Int("port", 0, "Port to listen on (0 for dynamic allocation)")
	flag.Parse()

	log.SetPrefix("[gatehoused] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Ensure global directory exists
	if err := config.EnsureGlobalDir(); err != nil {
		log.Fatalf("Failed to create global directory: %v", err)
	}

	// Check if daemon is already running
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	if err := run(*port); err != nil {
		log.Fatalf("Daemon failed: %v", err)
	}
}

func run(port int) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logRoot, err := config.ResolveLogRoot(settings)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(logRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create log root: %w", err)
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

	ship := shipper.New(logRoot, sink, checkpoints, settings.Shipper)

	w, err := watcher.New(logRoot)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	r := runner.New(ship, w, settings)

	srv, err := server.New(port, r)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	daemonInfo := models.NewDaemonInfo("localhost", srv.Port(), os.Getpid())
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		return fmt.Errorf("failed to write daemon info: %w", err)
	}

	log.Printf("Daemon started on port %d (PID %d), shipping %s to %s sink",
		srv.Port(), os.Getpid(), logRoot, settings.Shipper.Sink)

	runCtx, cancelRun := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		r.Run(runCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case <-srv.ShutdownRequested():
		log.Println("Shutdown requested via control service")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	// Stop the ship loop first so the final flush commits its checkpoints,
	// then drain the control server.
	cancelRun()
	<-runDone
	srv.Stop()

	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}

	fmt.Println("Daemon stopped")
	return nil
}

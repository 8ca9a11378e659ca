package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/config"
)

// startDaemon starts the daemon process in the background.
func startDaemon() error {
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(daemonPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Wait for daemon to be ready (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		running, _, err := config.IsDaemonRunning()
		if err == nil && running {
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

// findDaemonBinary locates the gatehoused binary.
func findDaemonBinary() (string, error) {
	// Try PATH first
	path, err := exec.LookPath("gatehoused")
	if err == nil {
		return path, nil
	}

	// Try same directory as the current executable
	execPath, err := os.Executable()
	if err == nil && strings.HasSuffix(execPath, "gatehouse") {
		daemonPath := execPath + "d"
		if _, err := os.Stat(daemonPath); err == nil {
			return daemonPath, nil
		}
	}

	// Try build directory
	if _, err := os.Stat("./build/gatehoused"); err == nil {
		return "./build/gatehoused", nil
	}

	return "", fmt.Errorf("gatehoused not found. Install or build it first")
}

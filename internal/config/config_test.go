package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gatehouse-io/gatehouse/internal/models"
)

func TestSanitizeBranch(t *testing.T) {
	tests := []struct {
		branch string
		want   string
	}{
		{"main", "main"},
		{"feature/login", "feature__login"},
		{"release/v1.2.3", "release__v1.2.3"},
		{"user/nested/branch", "user__nested__branch"},
		{"fix_bug-123", "fix_bug-123"},
		{"weird branch!", "weird_branch_"},
		{"", "nobranch"},
	}

	for _, tt := range tests {
		if got := SanitizeBranch(tt.branch); got != tt.want {
			t.Errorf("SanitizeBranch(%q) = %q, want %q", tt.branch, got, tt.want)
		}
	}
}

func TestSanitizeBranchDistinguishesSlashes(t *testing.T) {
	// "feature/foo" and "feature-foo" must not collide on disk.
	a := SanitizeBranch("feature/foo")
	b := SanitizeBranch("feature-foo")
	if a == b {
		t.Errorf("slash and dash branches collide: %q", a)
	}
}

func TestBranchAuditFile(t *testing.T) {
	got := BranchAuditFile("/logs", "feature/login")
	want := filepath.Join("/logs", "feature__login", AuditFileName)
	if got != want {
		t.Errorf("BranchAuditFile = %q, want %q", got, want)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files in dir: %d entries", len(entries))
	}
}

func TestSaveDaemonInfoAtomic(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	info := models.NewDaemonInfo("127.0.0.1", 50051, 4242)
	if err := SaveDaemonInfo(info); err != nil {
		t.Fatalf("SaveDaemonInfo: %v", err)
	}

	loaded, err := LoadDaemonInfo()
	if err != nil {
		t.Fatalf("LoadDaemonInfo: %v", err)
	}
	if loaded == nil || loaded.PID != 4242 || loaded.Port != 50051 {
		t.Errorf("LoadDaemonInfo = %+v", loaded)
	}

	// The rename-based write must not leave temp files next to daemon.yaml.
	dir, err := GlobalDir()
	if err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files in %s: %d entries", dir, len(entries))
	}
}

func TestLoadYAMLOrDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	// Missing file yields defaults.
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		t.Fatalf("LoadYAMLOrDefault (missing): %v", err)
	}
	if settings.Instance != "default" {
		t.Errorf("default instance = %q, want %q", settings.Instance, "default")
	}

	// Saved values round-trip.
	settings.Instance = "staging"
	settings.Shipper.Sink = models.SinkKafka
	if err := SaveYAML(path, settings); err != nil {
		t.Fatalf("SaveYAML: %v", err)
	}

	loaded, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		t.Fatalf("LoadYAMLOrDefault (existing): %v", err)
	}
	if loaded.Instance != "staging" || loaded.Shipper.Sink != models.SinkKafka {
		t.Errorf("round-trip lost values: %+v", loaded)
	}
}

func TestStreamNameNamespacing(t *testing.T) {
	settings := models.NewSettings()
	if got := settings.StreamName(); got != "gatehouse:default:audit" {
		t.Errorf("StreamName = %q", got)
	}

	settings.Instance = "ci"
	if got := settings.StreamName(); got != "gatehouse:ci:audit" {
		t.Errorf("StreamName = %q", got)
	}

	settings.Shipper.Redis.Stream = "custom-stream"
	if got := settings.StreamName(); got != "custom-stream" {
		t.Errorf("StreamName override = %q", got)
	}
}

package tui

import "github.com/gatehouse-io/gatehouse/internal/audit"

// EventsLoadedMsg carries a fresh read of the branch's audit trail.
type EventsLoadedMsg struct {
	Events []audit.Event
}

// LoadErrMsg signals that reading the audit trail failed.
type LoadErrMsg struct {
	Err error
}

// WatchStoppedMsg signals the filesystem watcher shut down.
type WatchStoppedMsg struct {
	Err error
}

package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/buildinfo"
	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/models"
	"github.com/gatehouse-io/gatehouse/internal/updater"
)

// UpdateNotice is published when a newer release exists. The daemon only
// surfaces it through GetStatus; installing is the CLI's job.
type UpdateNotice struct {
	Version string
	URL     string
}

// updateCheckDue applies the configured check frequency to the last
// recorded check time.
func updateCheckDue(s *models.Settings, now time.Time) bool {
	if !s.Updates.CheckOnStartup {
		return false
	}
	if s.Updates.LastChecked == nil {
		return true
	}
	since := now.Sub(*s.Updates.LastChecked)
	switch s.Updates.CheckFrequency {
	case "every_launch":
		return true
	case "weekly":
		return since >= 7*24*time.Hour
	default: // daily
		return since >= 24*time.Hour
	}
}

// startUpdateCheck runs one background release check when due.
func (s *Server) startUpdateCheck() {
	go func() {
		settings, err := config.LoadSettings()
		if err != nil {
			log.Printf("[update] failed to load settings: %v", err)
			return
		}

		now := time.Now()
		if !updateCheckDue(settings, now) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		rel, err := updater.NewClient(buildinfo.Version).Latest(ctx)
		if err != nil {
			log.Printf("[update] release check failed: %v", err)
			return
		}

		settings.Updates.LastChecked = &now
		if err := config.SaveSettings(settings); err != nil {
			log.Printf("[update] failed to record check time: %v", err)
		}

		if rel == nil || !rel.Newer(buildinfo.Version) {
			log.Printf("[update] up to date (v%s)", buildinfo.Version)
			return
		}

		latest := strings.TrimPrefix(rel.Tag, "v")
		s.pendingUpdate.Store(&UpdateNotice{Version: latest, URL: rel.URL})
		log.Printf("[update] v%s available (running v%s)", latest, buildinfo.Version)
	}()
}

// PendingUpdate returns the notice from the last check, nil when current.
func (s *Server) PendingUpdate() *UpdateNotice {
	return s.pendingUpdate.Load()
}

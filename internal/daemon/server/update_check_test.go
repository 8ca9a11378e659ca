package server

import (
	"testing"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/models"
)

func TestUpdateCheckDue(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	hoursAgo := func(h int) *time.Time {
		ts := now.Add(-time.Duration(h) * time.Hour)
		return &ts
	}

	tests := []struct {
		name        string
		enabled     bool
		frequency   string
		lastChecked *time.Time
		want        bool
	}{
		{"disabled", false, "daily", nil, false},
		{"never checked", true, "daily", nil, true},
		{"daily too soon", true, "daily", hoursAgo(2), false},
		{"daily due", true, "daily", hoursAgo(25), true},
		{"weekly too soon", true, "weekly", hoursAgo(48), false},
		{"weekly due", true, "weekly", hoursAgo(8 * 24), true},
		{"every launch", true, "every_launch", hoursAgo(1), true},
		{"unknown frequency falls back to daily", true, "hourly", hoursAgo(2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &models.Settings{}
			s.Updates.CheckOnStartup = tt.enabled
			s.Updates.CheckFrequency = tt.frequency
			s.Updates.LastChecked = tt.lastChecked
			if got := updateCheckDue(s, now); got != tt.want {
				t.Errorf("updateCheckDue = %v, want %v", got, tt.want)
			}
		})
	}
}

package config

import (
	"github.com/gatehouse-io/gatehouse/internal/models"
)

// LoadSettings loads the global settings from ~/.gatehouse/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, models.NewSettings)
}

// SaveSettings saves the global settings to ~/.gatehouse/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// ResolveLogRoot returns the audit log root named by settings, falling back
// to ~/.gatehouse/logs when no override is configured.
func ResolveLogRoot(settings *models.Settings) (string, error) {
	if settings != nil && settings.LogRoot != "" {
		return settings.LogRoot, nil
	}
	return GlobalLogsDir()
}

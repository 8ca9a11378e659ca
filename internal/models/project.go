// Package models contains shared data structures used across the application.
package models

import "time"

// Project represents a per-project Gatehouse configuration.
// This corresponds to the project.yaml file in the .gatehouse/ directory.
// Guard lists here are layered on top of the global settings, so a project
// can protect extra paths or allow patterns the global defaults would block.
type Project struct {
	Version   int         `yaml:"version"`
	ProjectID string      `yaml:"project_id"`
	Name      string      `yaml:"name"`
	Guard     GuardConfig `yaml:"guard"`
	CreatedAt time.Time   `yaml:"created_at"`
	UpdatedAt time.Time   `yaml:"updated_at"`
}

// NewProject creates a new project with default values.
func NewProject(id, name string) *Project {
	now := time.Now().UTC()
	return &Project{
		Version:   1,
		ProjectID: id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MergedGuard returns the global guard config with the project's lists
// appended.
func (p *Project) MergedGuard(global GuardConfig) GuardConfig {
	if p == nil {
		return global
	}
	merged := GuardConfig{
		DangerousPatterns: append([]string{}, global.DangerousPatterns...),
		ProtectedPaths:    append([]string{}, global.ProtectedPaths...),
		AllowPatterns:     append([]string{}, global.AllowPatterns...),
	}
	merged.DangerousPatterns = append(merged.DangerousPatterns, p.Guard.DangerousPatterns...)
	merged.ProtectedPaths = append(merged.ProtectedPaths, p.Guard.ProtectedPaths...)
	merged.AllowPatterns = append(merged.AllowPatterns, p.Guard.AllowPatterns...)
	return merged
}

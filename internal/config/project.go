package config

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/internal/models"
)

// LoadProject loads a project's configuration from .gatehouse/project.yaml.
// Returns nil (without error) if the project file doesn't exist.
func LoadProject(projectPath string) (*models.Project, error) {
	path := ProjectFile(projectPath)
	if !FileExists(path) {
		return nil, nil
	}

	var project models.Project
	if err := LoadYAML(path, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// SaveProject saves a project's configuration to .gatehouse/project.yaml.
func SaveProject(projectPath string, project *models.Project) error {
	return SaveYAML(ProjectFile(projectPath), project)
}

// InitProject creates a new project configuration for the given directory.
func InitProject(projectPath string) (*models.Project, error) {
	project := models.NewProject(uuid.NewString(), filepath.Base(projectPath))
	if err := SaveProject(projectPath, project); err != nil {
		return nil, err
	}
	return project, nil
}

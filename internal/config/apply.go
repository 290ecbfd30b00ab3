package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"issuesync/internal/models"
)

// ProjectWriter persists declared projects and their provider configs.
type ProjectWriter interface {
	UpsertProject(ctx context.Context, project *models.Project) error
	SetProviderConfig(ctx context.Context, cfg *models.ProviderConfig) error
}

// ApplyProjects upserts every declared project and writes its GitHub provider
// block when present. It returns the ids whose provider config was written.
func ApplyProjects(ctx context.Context, w ProjectWriter, projects []ProjectConfig, now time.Time) ([]string, error) {
	now = now.UTC()
	var written []string
	for _, declared := range projects {
		id, err := models.NormalizeProjectID(declared.ID)
		if err != nil {
			return written, err
		}
		name := strings.TrimSpace(declared.Name)
		if name == "" {
			name = id
		}
		if err := w.UpsertProject(ctx, &models.Project{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}); err != nil {
			return written, fmt.Errorf("apply project %s: %w", id, err)
		}
		if declared.GitHub == nil {
			continue
		}

		provider := *declared.GitHub
		provider.ProjectID = id
		provider.Repo = strings.TrimSpace(provider.Repo)
		provider.UpdatedAt = now
		if err := w.SetProviderConfig(ctx, &provider); err != nil {
			return written, fmt.Errorf("apply provider for %s: %w", id, err)
		}
		written = append(written, id)
	}
	return written, nil
}

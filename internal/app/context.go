package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dailyline/internal/config"
	"dailyline/internal/engine"
	"dailyline/internal/repo"
)

// ResolveProjectAndConfig picks the active project and makes sure it exists with a config.
// It prefers the override, then the only project in the store. Missing projects are created,
// seeded from dailyline.yml in the workspace when present.
func ResolveProjectAndConfig(ctx context.Context, e engine.Engine, workspace, projectOverride, actorID string) (string, *config.Config, error) {
	projectID := strings.TrimSpace(projectOverride)
	if projectID == "" {
		p, err := e.Repo.SingleProject(ctx)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return "", nil, fmt.Errorf("no project yet; create one with dl project create <id> or pass --project")
			}
			return "", nil, err
		}
		projectID = p.ID
	}

	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		seed, err := config.LoadOptional(workspace)
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", config.Path(workspace), err)
		}
		if seed != nil {
			seed.Project.ID = projectID
			e.Config = seed
		}
		if actorID == "" {
			actorID = "local-user"
		}
		if _, err := e.InitProject(ctx, projectID, "", actorID); err != nil {
			return "", nil, err
		}
	}
	cfg, err := e.Repo.GetProjectConfig(ctx, projectID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		cfg = config.Default(projectID)
		if err := e.Repo.UpsertProjectConfig(ctx, projectID, cfg); err != nil {
			return "", nil, fmt.Errorf("seed project config: %w", err)
		}
	}
	cfg.Project.ID = projectID
	return projectID, cfg, nil
}

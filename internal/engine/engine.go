package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dailyline/internal/config"
	"dailyline/internal/domain"
	"dailyline/internal/engine/auth"
	"dailyline/internal/events"
	"dailyline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Auth   auth.Service
	Config *config.Config
	Now    func() time.Time
	Logger *log.Logger
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Auth:   auth.Service{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

func (e Engine) eventWriter() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

// InitProject creates a project with its config and grants the creator the owner role.
func (e Engine) InitProject(ctx context.Context, projectID, description, actorID string) (domain.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return domain.Project{}, errors.New("project id is required")
	}
	cfg := config.Default(projectID)
	if e.Config != nil && e.Config.Project.ID == projectID {
		cfg = e.Config
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	p := domain.Project{
		ID:          projectID,
		Kind:        config.ProjectKind,
		Status:      "active",
		Description: description,
		CreatedAt:   now,
	}
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Repo.UpsertProjectConfigTx(ctx, tx, p.ID, cfg); err != nil {
		return domain.Project{}, fmt.Errorf("insert project config: %w", err)
	}
	if err := e.Repo.SyncRBAC(ctx, tx, p.ID, cfg, now); err != nil {
		return domain.Project{}, fmt.Errorf("sync rbac: %w", err)
	}
	if actorID != "" {
		if _, ok := cfg.RBAC.Roles["owner"]; ok {
			if err := e.Repo.EnsureActor(ctx, tx, actorID, now); err != nil {
				return domain.Project{}, fmt.Errorf("ensure actor: %w", err)
			}
			if err := e.Repo.AssignRole(ctx, tx, p.ID, actorID, "owner"); err != nil {
				return domain.Project{}, fmt.Errorf("assign owner: %w", err)
			}
		}
	}
	if err := e.eventWriter().Append(ctx, tx, events.TypeProjectInit, p.ID, "project", p.ID, actorID, events.EventPayload{"status": p.Status}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// ImportConfig replaces a project's config and re-syncs member grants.
func (e Engine) ImportConfig(ctx context.Context, projectID string, cfg *config.Config, actorID string) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertProjectConfigTx(ctx, tx, projectID, cfg); err != nil {
		return err
	}
	if err := e.Repo.SyncRBAC(ctx, tx, projectID, cfg, e.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("sync rbac: %w", err)
	}
	if err := e.eventWriter().Append(ctx, tx, events.TypeConfigUpdated, projectID, "project", projectID, actorID, events.EventPayload{
		"members":  cfg.MemberCount(),
		"webhooks": len(cfg.Webhooks),
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// configFor returns the active config when it matches, otherwise the stored one.
func (e Engine) configFor(ctx context.Context, projectID string) (*config.Config, error) {
	if e.Config != nil && e.Config.Project.ID == projectID {
		return e.Config, nil
	}
	cfg, err := e.Repo.GetProjectConfig(ctx, projectID)
	if errors.Is(err, repo.ErrNotFound) {
		return config.Default(projectID), nil
	}
	return cfg, err
}

func (e Engine) requireProject(ctx context.Context, projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return errors.New("project is required")
	}
	_, err := e.Repo.GetProject(ctx, projectID)
	return err
}

// ParseDate validates a YYYY-MM-DD standup date.
func ParseDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", errors.New("date is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return date, nil
}

// Today is the current date in YYYY-MM-DD, UTC.
func (e Engine) Today() string {
	return e.now().UTC().Format("2006-01-02")
}

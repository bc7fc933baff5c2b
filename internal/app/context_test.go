package app_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dailyline/internal/app"
	"dailyline/internal/config"
	"dailyline/internal/db"
	"dailyline/internal/engine"
	"dailyline/internal/migrate"
)

func newEngine(t *testing.T, workspace string) engine.Engine {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return engine.New(conn, nil)
}

func TestResolveRequiresProjectWhenStoreEmpty(t *testing.T) {
	e := newEngine(t, t.TempDir())
	if _, _, err := app.ResolveProjectAndConfig(context.Background(), e, t.TempDir(), "", "me"); err == nil {
		t.Fatalf("expected error without any project")
	}
}

func TestResolveSeedsFromWorkspaceFile(t *testing.T) {
	workspace := t.TempDir()
	yml := strings.Replace(config.GenerateDefault("ignored"), "members: []", "members:\n    - id: u1\n      name: Uma", 1)
	if err := os.WriteFile(filepath.Join(workspace, "dailyline.yml"), []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	e := newEngine(t, workspace)
	ctx := context.Background()
	projectID, cfg, err := app.ResolveProjectAndConfig(ctx, e, workspace, "web", "me")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if projectID != "web" || cfg.Project.ID != "web" || cfg.MemberCount() != 1 {
		t.Fatalf("unexpected resolution %s %+v", projectID, cfg)
	}
	// second call without override finds the single project
	projectID, _, err = app.ResolveProjectAndConfig(ctx, e, workspace, "", "me")
	if err != nil || projectID != "web" {
		t.Fatalf("expected single project fallback, got %s %v", projectID, err)
	}
}

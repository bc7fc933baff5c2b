package repo

import (
	"context"
	"database/sql"

	"dailyline/internal/config"
)

func (r Repo) EnsureActor(ctx context.Context, tx *sql.Tx, actorID string, now string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO actors(id, created_at) VALUES (?,?)`, actorID, now)
	return err
}

func (r Repo) InsertRole(ctx context.Context, tx *sql.Tx, id, desc string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO roles(id, description) VALUES (?,?)
ON CONFLICT(id) DO UPDATE SET description=excluded.description`, id, nullable(desc))
	return err
}

func (r Repo) InsertPermission(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO permissions(id) VALUES (?)`, id)
	return err
}

func (r Repo) AddRolePermission(ctx context.Context, tx *sql.Tx, roleID, permID string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO role_permissions(role_id, permission_id) VALUES (?,?)`, roleID, permID)
	return err
}

func (r Repo) AssignRole(ctx context.Context, tx *sql.Tx, projectID, actorID, roleID string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO actor_roles(project_id, actor_id, role_id) VALUES (?,?,?)`, projectID, actorID, roleID)
	return err
}

// SyncRBAC makes the stored roles and member grants match cfg. Roles are global and
// upserted; member grants for the project are replaced, keeping owners.
func (r Repo) SyncRBAC(ctx context.Context, tx *sql.Tx, projectID string, cfg *config.Config, now string) error {
	for roleID, role := range cfg.RBAC.Roles {
		if err := r.InsertRole(ctx, tx, roleID, role.Description); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id=?`, roleID); err != nil {
			return err
		}
		for _, perm := range role.Permissions {
			if err := r.InsertPermission(ctx, tx, perm); err != nil {
				return err
			}
			if err := r.AddRolePermission(ctx, tx, roleID, perm); err != nil {
				return err
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM actor_roles WHERE project_id=? AND role_id<>'owner'`, projectID); err != nil {
		return err
	}
	for _, m := range cfg.Team.Members {
		access := m.Access
		if len(access) == 0 {
			if _, ok := cfg.RBAC.Roles["member"]; !ok {
				continue
			}
			access = []string{"member"}
		}
		if err := r.EnsureActor(ctx, tx, m.ID, now); err != nil {
			return err
		}
		for _, roleID := range access {
			if err := r.AssignRole(ctx, tx, projectID, m.ID, roleID); err != nil {
				return err
			}
		}
	}
	return nil
}

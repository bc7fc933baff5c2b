package engine

import (
	"context"
	"strings"
)

type WhoAmI struct {
	ActorID     string
	Roles       []string
	Permissions []string
}

// WhoAmI reports the roles and permissions granted to actorID on a project.
func (e Engine) WhoAmI(ctx context.Context, projectID, actorID string) (WhoAmI, error) {
	actorID = strings.TrimSpace(actorID)
	if err := e.requireProject(ctx, projectID); err != nil {
		return WhoAmI{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return WhoAmI{}, err
	}
	defer tx.Rollback()
	roles, err := e.Auth.ActorRoles(ctx, tx, projectID, actorID)
	if err != nil {
		return WhoAmI{}, err
	}
	perms, err := e.Auth.ActorPermissions(ctx, tx, projectID, actorID)
	if err != nil {
		return WhoAmI{}, err
	}
	return WhoAmI{ActorID: actorID, Roles: roles, Permissions: perms}, nil
}

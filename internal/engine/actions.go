package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"dailyline/internal/domain"
	"dailyline/internal/events"
	"dailyline/internal/repo"
)

var actionIDPattern = regexp.MustCompile(`^action_[0-9a-f]{12}$`)

// ActionView is a derived action with its tracked read/dismiss state.
type ActionView struct {
	domain.ActionItem
	State          string `json:"state" enum:"open,read,dismissed"`
	StateUpdatedAt string `json:"state_updated_at,omitempty"`
}

// ListActions joins a summary's actions with stored state. Dismissed actions are hidden unless asked for.
func (e Engine) ListActions(ctx context.Context, projectID, date string, includeDismissed bool) ([]ActionView, error) {
	s, err := e.GetSummary(ctx, projectID, date)
	if err != nil {
		return nil, err
	}
	states, err := e.Repo.ActionStates(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]ActionView, 0, len(s.Actions))
	for _, a := range s.Actions {
		view := ActionView{ActionItem: a, State: domain.ActionStateOpen}
		if st, ok := states[a.ID]; ok {
			view.State = st.State
			view.StateUpdatedAt = st.UpdatedAt
		}
		if view.State == domain.ActionStateDismissed && !includeDismissed {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}

// SetActionState records open, read or dismissed against a stable action id.
func (e Engine) SetActionState(ctx context.Context, projectID, actionID, state, actorID string) (domain.ActionState, error) {
	state = strings.ToLower(strings.TrimSpace(state))
	switch state {
	case domain.ActionStateOpen, domain.ActionStateRead, domain.ActionStateDismissed:
	default:
		return domain.ActionState{}, fmt.Errorf("invalid action state %q", state)
	}
	actionID = strings.TrimSpace(actionID)
	if !actionIDPattern.MatchString(actionID) {
		return domain.ActionState{}, fmt.Errorf("invalid action id %q", actionID)
	}
	if actorID == "" {
		return domain.ActionState{}, errors.New("actor_id required")
	}
	if err := e.requireProject(ctx, projectID); err != nil {
		return domain.ActionState{}, err
	}
	st := domain.ActionState{
		ProjectID: projectID,
		ActionID:  actionID,
		State:     state,
		ActorID:   actorID,
		UpdatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ActionState{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.SetActionStateTx(ctx, tx, st); err != nil {
		return domain.ActionState{}, err
	}
	if err := e.eventWriter().Append(ctx, tx, events.TypeActionPrefix+state, projectID, "action", actionID, actorID, nil); err != nil {
		return domain.ActionState{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ActionState{}, err
	}
	return st, nil
}

// CreateAPIKey issues a new key for actorID. The raw key is only returned here.
func (e Engine) CreateAPIKey(ctx context.Context, projectID, actorID, name string) (domain.APIKey, string, error) {
	if strings.TrimSpace(actorID) == "" {
		return domain.APIKey{}, "", errors.New("actor_id required")
	}
	raw := "dl_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	key := domain.APIKey{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Name:      strings.TrimSpace(name),
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := e.eventWriter().Append(ctx, tx, events.TypeAPIKeyCreated, projectID, "api_key", key.ID, actorID, events.EventPayload{"name": key.Name}); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, raw, nil
}

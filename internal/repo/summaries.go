package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dailyline/internal/domain"
	"dailyline/internal/events"
)

// UpsertSummaryTx stores the summary for its project-day, replacing any earlier build.
func (r Repo) UpsertSummaryTx(ctx context.Context, tx *sql.Tx, s domain.Summary) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO summaries(id,project_id,date,payload_json,generated_at) VALUES (?,?,?,?,?)
ON CONFLICT(project_id,date) DO UPDATE SET id=excluded.id, payload_json=excluded.payload_json, generated_at=excluded.generated_at`,
		s.ID, s.ProjectID, s.Date, events.MarshalPayload(s), s.GeneratedAt)
	return err
}

func (r Repo) GetSummary(ctx context.Context, projectID, date string) (domain.Summary, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT payload_json FROM summaries WHERE project_id=? AND date=?`, projectID, date).Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.Summary{}, ErrNotFound
	}
	if err != nil {
		return domain.Summary{}, err
	}
	var s domain.Summary
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return domain.Summary{}, fmt.Errorf("decode summary %s/%s: %w", projectID, date, err)
	}
	if s.ID == "" {
		// payload was replaced by the serialization sentinel
		return domain.Summary{}, fmt.Errorf("summary %s/%s payload unreadable: %s", projectID, date, payload)
	}
	return s, nil
}

// SetActionStateTx records the latest state for an action id.
func (r Repo) SetActionStateTx(ctx context.Context, tx *sql.Tx, st domain.ActionState) error {
	if st.UpdatedAt == "" {
		st.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO action_states(project_id,action_id,state,actor_id,updated_at) VALUES (?,?,?,?,?)
ON CONFLICT(project_id,action_id) DO UPDATE SET state=excluded.state, actor_id=excluded.actor_id, updated_at=excluded.updated_at`,
		st.ProjectID, st.ActionID, st.State, st.ActorID, st.UpdatedAt)
	return err
}

// ActionStates returns the stored states for a project keyed by action id.
func (r Repo) ActionStates(ctx context.Context, projectID string) (map[string]domain.ActionState, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT project_id,action_id,state,actor_id,updated_at FROM action_states WHERE project_id=?`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make(map[string]domain.ActionState)
	for rows.Next() {
		var st domain.ActionState
		if err := rows.Scan(&st.ProjectID, &st.ActionID, &st.State, &st.ActorID, &st.UpdatedAt); err != nil {
			return nil, err
		}
		res[st.ActionID] = st
	}
	return res, rows.Err()
}

package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dailyline/internal/domain"
	"dailyline/internal/events"
)

const entryColumns = `id,project_id,date,author_id,COALESCE(author_name,''),COALESCE(author_role,''),
COALESCE(progress,''),COALESCE(today,''),COALESCE(blockers,''),complete,issues_json,research_json,created_at`

// UpsertEntryTx stores an entry. A later entry from the same author on the same
// project-day replaces the earlier one.
func (r Repo) UpsertEntryTx(ctx context.Context, tx *sql.Tx, e domain.Entry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO entries(id,project_id,date,author_id,author_name,author_role,progress,today,blockers,complete,issues_json,research_json,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(project_id,date,author_id) DO UPDATE SET
  id=excluded.id, author_name=excluded.author_name, author_role=excluded.author_role,
  progress=excluded.progress, today=excluded.today, blockers=excluded.blockers,
  complete=excluded.complete, issues_json=excluded.issues_json, research_json=excluded.research_json,
  created_at=excluded.created_at`,
		e.ID, e.ProjectID, e.Date, e.AuthorID, nullable(e.AuthorName), nullable(e.AuthorRole),
		nullable(e.Progress), nullable(e.Today), nullable(e.Blockers), boolToInt(e.Complete),
		linkedWorkJSON(e.Issues), linkedWorkJSON(e.Research), e.CreatedAt)
	return err
}

// AuthorEntryIDTx returns the id of the author's current entry for a project-day.
func (r Repo) AuthorEntryIDTx(ctx context.Context, tx *sql.Tx, projectID, date, authorID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM entries WHERE project_id=? AND date=? AND author_id=?`, projectID, date, authorID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

// ListEntries returns a project-day's entries in submission order.
func (r Repo) ListEntries(ctx context.Context, projectID, date string) ([]domain.Entry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE project_id=? AND date=? ORDER BY created_at ASC, id ASC`, projectID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Entry
	for rows.Next() {
		var (
			e                  domain.Entry
			complete           int
			issues, researches string
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Date, &e.AuthorID, &e.AuthorName, &e.AuthorRole,
			&e.Progress, &e.Today, &e.Blockers, &complete, &issues, &researches, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Complete = complete != 0
		if e.Issues, err = parseLinkedWork(issues); err != nil {
			return nil, fmt.Errorf("entry %s issues: %w", e.ID, err)
		}
		if e.Research, err = parseLinkedWork(researches); err != nil {
			return nil, fmt.Errorf("entry %s research: %w", e.ID, err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func linkedWorkJSON(items []domain.LinkedWork) string {
	if items == nil {
		items = []domain.LinkedWork{}
	}
	return events.MarshalPayload(items)
}

func parseLinkedWork(raw string) ([]domain.LinkedWork, error) {
	if raw == "" {
		return nil, nil
	}
	var out []domain.LinkedWork
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

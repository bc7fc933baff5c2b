package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dailyline/internal/domain"
	"dailyline/internal/events"
	"dailyline/internal/repo"
)

// EntrySubmitOptions are parameters for recording one person's standup.
type EntrySubmitOptions struct {
	ID         string
	ProjectID  string
	Date       string
	AuthorID   string
	AuthorName string
	AuthorRole string
	Progress   string
	Today      string
	Blockers   string
	Complete   bool
	Issues     []domain.LinkedWork
	Research   []domain.LinkedWork
	ActorID    string
}

func (e Engine) SubmitEntry(ctx context.Context, opts EntrySubmitOptions) (domain.Entry, error) {
	date, err := ParseDate(opts.Date)
	if err != nil {
		return domain.Entry{}, err
	}
	authorID := strings.TrimSpace(opts.AuthorID)
	if authorID == "" {
		return domain.Entry{}, errors.New("author_id is required")
	}
	if err := e.requireProject(ctx, opts.ProjectID); err != nil {
		return domain.Entry{}, err
	}
	cfg, err := e.configFor(ctx, opts.ProjectID)
	if err != nil {
		return domain.Entry{}, err
	}
	issues, err := cleanLinkedWork(opts.Issues)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("issues: %w", err)
	}
	research, err := cleanLinkedWork(opts.Research)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("research: %w", err)
	}
	ent := domain.Entry{
		ID:         strings.TrimSpace(opts.ID),
		ProjectID:  opts.ProjectID,
		Date:       date,
		AuthorID:   authorID,
		AuthorName: strings.TrimSpace(opts.AuthorName),
		AuthorRole: strings.TrimSpace(opts.AuthorRole),
		Progress:   opts.Progress,
		Today:      opts.Today,
		Blockers:   opts.Blockers,
		Complete:   opts.Complete,
		Issues:     issues,
		Research:   research,
		CreatedAt:  e.now().UTC().Format(time.RFC3339Nano),
	}
	// A configured role wins over the submitted one; lead routing trusts it.
	if m, ok := cfg.Member(authorID); ok {
		if ent.AuthorName == "" {
			ent.AuthorName = m.Name
		}
		if m.Role != "" {
			ent.AuthorRole = m.Role
		}
	}
	if ent.ID == "" {
		ent.ID = uuid.NewString()
	}
	actor := opts.ActorID
	if actor == "" {
		actor = authorID
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Entry{}, err
	}
	defer tx.Rollback()
	replaced, err := e.Repo.AuthorEntryIDTx(ctx, tx, ent.ProjectID, ent.Date, ent.AuthorID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return domain.Entry{}, err
	}
	if err := e.Repo.UpsertEntryTx(ctx, tx, ent); err != nil {
		return domain.Entry{}, fmt.Errorf("store entry: %w", err)
	}
	payload := events.EventPayload{
		"date":        ent.Date,
		"author_id":   ent.AuthorID,
		"complete":    ent.Complete,
		"linked_work": ent.LinkedWorkCount(),
	}
	if replaced != "" {
		payload["replaced_entry_id"] = replaced
	}
	if err := e.eventWriter().Append(ctx, tx, events.TypeEntrySubmitted, ent.ProjectID, "entry", ent.ID, actor, payload); err != nil {
		return domain.Entry{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Entry{}, err
	}
	return ent, nil
}

func (e Engine) ListEntries(ctx context.Context, projectID, date string) ([]domain.Entry, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if err := e.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return e.Repo.ListEntries(ctx, projectID, date)
}

func cleanLinkedWork(in []domain.LinkedWork) ([]domain.LinkedWork, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.LinkedWork, 0, len(in))
	for i, lw := range in {
		lw.ID = strings.TrimSpace(lw.ID)
		if lw.ID == "" {
			return nil, fmt.Errorf("linked work %d: id required", i)
		}
		lw.Key = strings.TrimSpace(lw.Key)
		if lw.AssigneeID != nil {
			assignee := strings.TrimSpace(*lw.AssigneeID)
			if assignee == "" {
				lw.AssigneeID = nil
			} else {
				lw.AssigneeID = &assignee
			}
		}
		out = append(out, lw)
	}
	return out, nil
}

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dailyline/internal/digest"
	"dailyline/internal/domain"
	"dailyline/internal/events"
	"dailyline/internal/standup"
)

// BuildOptions carry the upstream summarizer output for one project-day.
// When every bullet list is empty the bullets are seeded from the entries.
type BuildOptions struct {
	ProjectID       string
	Date            string
	OverallProgress string
	Achievements    []domain.Bullet
	Blockers        []domain.Bullet
	Dependencies    []domain.Bullet
	AssignmentGaps  []domain.Bullet
	OpenQuestions   []domain.OpenQuestion
	ActorID         string
}

// SummaryID is the stable id for a project-day summary.
func SummaryID(projectID, date string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(projectID+"|"+date)).String()
}

func (e Engine) BuildSummary(ctx context.Context, opts BuildOptions) (domain.Summary, error) {
	date, err := ParseDate(opts.Date)
	if err != nil {
		return domain.Summary{}, err
	}
	if err := e.requireProject(ctx, opts.ProjectID); err != nil {
		return domain.Summary{}, err
	}
	cfg, err := e.configFor(ctx, opts.ProjectID)
	if err != nil {
		return domain.Summary{}, err
	}
	entries, err := e.Repo.ListEntries(ctx, opts.ProjectID, date)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("list entries: %w", err)
	}

	s := domain.Summary{
		ID:              SummaryID(opts.ProjectID, date),
		ProjectID:       opts.ProjectID,
		Date:            date,
		OverallProgress: standup.Collapse(opts.OverallProgress),
		Achievements:    opts.Achievements,
		Blockers:        opts.Blockers,
		Dependencies:    opts.Dependencies,
		AssignmentGaps:  opts.AssignmentGaps,
		GeneratedAt:     e.now().UTC().Format(time.RFC3339),
	}
	if len(s.Achievements)+len(s.Blockers)+len(s.Dependencies)+len(s.AssignmentGaps) == 0 {
		s.Achievements, s.Blockers = seedBullets(entries)
	}
	if s.OverallProgress == "" {
		s.OverallProgress = reportedProgress(len(entries), cfg.MemberCount())
	}
	s.Achievements = normalizeBullets(s.ID, "achievement", s.Achievements)
	s.Blockers = normalizeBullets(s.ID, "blocker", s.Blockers)
	s.Dependencies = normalizeBullets(s.ID, "dependency", s.Dependencies)
	s.AssignmentGaps = normalizeBullets(s.ID, "gap", s.AssignmentGaps)
	s.OpenQuestions = normalizeQuestions(s.ID, opts.OpenQuestions)

	s.Actions = standup.DeriveActions(standup.DeriveInput{
		SummaryID:      s.ID,
		Entries:        entries,
		Blockers:       s.Blockers,
		Dependencies:   s.Dependencies,
		AssignmentGaps: s.AssignmentGaps,
	})
	signal := standup.Score(standup.QualityInputs(entries), cfg.MemberCount())
	s.Signals = &signal

	actionIDs := make([]string, 0, len(s.Actions))
	for _, a := range s.Actions {
		actionIDs = append(actionIDs, a.ID)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Summary{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertSummaryTx(ctx, tx, s); err != nil {
		return domain.Summary{}, fmt.Errorf("store summary: %w", err)
	}
	if err := e.eventWriter().Append(ctx, tx, events.TypeStandupSummarized, s.ProjectID, "summary", s.ID, opts.ActorID, events.EventPayload{
		"date":          s.Date,
		"entries":       len(entries),
		"action_ids":    actionIDs,
		"quality_score": signal.QualityScore,
	}); err != nil {
		return domain.Summary{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Summary{}, err
	}
	e.logger().Printf("standup summarized project=%s date=%s entries=%d actions=%d quality=%d",
		s.ProjectID, s.Date, len(entries), len(s.Actions), signal.QualityScore)
	return s, nil
}

func (e Engine) GetSummary(ctx context.Context, projectID, date string) (domain.Summary, error) {
	date, err := ParseDate(date)
	if err != nil {
		return domain.Summary{}, err
	}
	if err := e.requireProject(ctx, projectID); err != nil {
		return domain.Summary{}, err
	}
	return e.Repo.GetSummary(ctx, projectID, date)
}

// DigestOptions select the audience and overrides for a rendered digest.
// Empty fields fall back to the project's digest config.
type DigestOptions struct {
	ProjectID         string
	Date              string
	Audience          string
	IncludeReferences *bool
	SprintName        string
	SprintDate        string
}

func (e Engine) RenderDigest(ctx context.Context, opts DigestOptions) (string, digest.Audience, error) {
	s, err := e.GetSummary(ctx, opts.ProjectID, opts.Date)
	if err != nil {
		return "", "", err
	}
	cfg, err := e.configFor(ctx, opts.ProjectID)
	if err != nil {
		return "", "", err
	}
	name := opts.Audience
	if strings.TrimSpace(name) == "" {
		name = cfg.Digest.DefaultAudience
	}
	if strings.TrimSpace(name) == "" {
		name = string(digest.TeamDetailed)
	}
	audience, err := digest.ParseAudience(name)
	if err != nil {
		return "", "", err
	}
	ropts := digest.Options{
		IncludeReferences: cfg.Digest.IncludeReferences,
		SprintName:        cfg.Digest.Sprint.Name,
		SprintDate:        cfg.Digest.Sprint.Date,
	}
	if opts.IncludeReferences != nil {
		ropts.IncludeReferences = *opts.IncludeReferences
	}
	if opts.SprintName != "" {
		ropts.SprintName = opts.SprintName
	}
	if opts.SprintDate != "" {
		ropts.SprintDate = opts.SprintDate
	}
	if ts, err := time.Parse(time.RFC3339, s.GeneratedAt); err == nil {
		ropts.GeneratedAt = ts
	}
	out, err := digest.Render(audience, s, ropts)
	if err != nil {
		return "", "", err
	}
	return out, audience, nil
}

// Quality scores the day's entries as they stand, without building a summary.
func (e Engine) Quality(ctx context.Context, projectID, date string) (domain.QualitySignal, error) {
	entries, err := e.ListEntries(ctx, projectID, date)
	if err != nil {
		return domain.QualitySignal{}, err
	}
	cfg, err := e.configFor(ctx, projectID)
	if err != nil {
		return domain.QualitySignal{}, err
	}
	return standup.Score(standup.QualityInputs(entries), cfg.MemberCount()), nil
}

func seedBullets(entries []domain.Entry) (achievements, blockers []domain.Bullet) {
	for _, ent := range entries {
		linked := entryLinkedWork(ent)
		if text := standup.Collapse(ent.Progress); text != "" {
			achievements = append(achievements, domain.Bullet{
				ID:             "ach_" + ent.ID,
				Text:           text,
				SourceEntryIDs: []string{ent.ID},
				LinkedWorkIDs:  linked,
			})
		}
		if text := standup.Collapse(ent.Blockers); text != "" && !standup.IsNoBlocker(text) {
			blockers = append(blockers, domain.Bullet{
				ID:             "blk_" + ent.ID,
				Text:           text,
				SourceEntryIDs: []string{ent.ID},
				LinkedWorkIDs:  linked,
			})
		}
	}
	return achievements, blockers
}

func entryLinkedWork(ent domain.Entry) []string {
	ids := make([]string, 0, ent.LinkedWorkCount())
	for _, lw := range ent.Issues {
		ids = append(ids, lw.ID)
	}
	for _, lw := range ent.Research {
		ids = append(ids, lw.ID)
	}
	return ids
}

func reportedProgress(reported, members int) string {
	if members < reported {
		members = reported
	}
	if members == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d members reported", reported, members)
}

func normalizeBullets(summaryID, kind string, in []domain.Bullet) []domain.Bullet {
	out := make([]domain.Bullet, 0, len(in))
	for i, b := range in {
		b.Text = standup.Collapse(b.Text)
		if b.Text == "" {
			continue
		}
		b.ID = strings.TrimSpace(b.ID)
		if b.ID == "" {
			b.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%s|%d|%s", summaryID, kind, i, b.Text))).String()
		}
		b.SourceEntryIDs = standup.SortedUnique(b.SourceEntryIDs)
		b.LinkedWorkIDs = standup.SortedUnique(b.LinkedWorkIDs)
		out = append(out, b)
	}
	return out
}

func normalizeQuestions(summaryID string, in []domain.OpenQuestion) []domain.OpenQuestion {
	out := make([]domain.OpenQuestion, 0, len(in))
	for i, q := range in {
		q.Question = standup.Collapse(q.Question)
		if q.Question == "" {
			continue
		}
		q.ID = strings.TrimSpace(q.ID)
		if q.ID == "" {
			q.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|question|%d|%s", summaryID, i, q.Question))).String()
		}
		switch p := strings.ToLower(strings.TrimSpace(q.Priority)); p {
		case "low", "med", "high":
			q.Priority = p
		default:
			q.Priority = "med"
		}
		q.SourceEntryIDs = standup.SortedUnique(q.SourceEntryIDs)
		out = append(out, q)
	}
	return out
}

package engine_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"dailyline/internal/config"
	"dailyline/internal/db"
	"dailyline/internal/digest"
	"dailyline/internal/domain"
	"dailyline/internal/engine"
	"dailyline/internal/migrate"
	"dailyline/internal/repo"
)

const testDate = "2026-10-15"

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("proj-1")
	cfg.Team.Members = []config.TeamMember{
		{ID: "lead1", Name: "Lee", Role: "ADMIN", Access: []string{"lead"}},
		{ID: "u1", Name: "Uma", Role: "DEV"},
		{ID: "u2", Name: "Sam", Role: "DEV"},
	}
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	eng.Logger = log.New(io.Discard, "", 0)
	ctx := context.Background()
	if _, err := eng.InitProject(ctx, "proj-1", "test", "tester"); err != nil {
		t.Fatalf("init project: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func (env testEnv) submitTeam(t *testing.T) {
	t.Helper()
	entries := []engine.EntrySubmitOptions{
		{ID: "e0", AuthorID: "lead1", Progress: "Reviewed the release plan", Today: "Sprint review", Complete: true},
		{ID: "e1", AuthorID: "u1", Progress: "Built the CSV export for billing reports", Today: "Wire the export into the UI",
			Blockers: "Waiting on PO approval for scope change", Complete: true,
			Issues: []domain.LinkedWork{{ID: "ISS-1", Key: "WEB-1"}}},
		{ID: "e2", AuthorID: "u2"},
	}
	for _, opts := range entries {
		opts.ProjectID = "proj-1"
		opts.Date = testDate
		if _, err := env.Engine.SubmitEntry(env.Ctx, opts); err != nil {
			t.Fatalf("submit %s: %v", opts.ID, err)
		}
	}
}

func TestSubmitEntryFillsAuthorFromTeam(t *testing.T) {
	env := newTestEnv(t)
	ent, err := env.Engine.SubmitEntry(env.Ctx, engine.EntrySubmitOptions{
		ProjectID: "proj-1", Date: testDate, AuthorID: "u1", Progress: "did things",
		Research: []domain.LinkedWork{{ID: " R-1 ", AssigneeID: new(string)}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ent.ID == "" || ent.AuthorName != "Uma" || ent.AuthorRole != "DEV" {
		t.Fatalf("unexpected entry: %+v", ent)
	}
	if ent.Research[0].ID != "R-1" || ent.Research[0].AssigneeID != nil {
		t.Fatalf("linked work not cleaned: %+v", ent.Research)
	}
	list, err := env.Engine.ListEntries(env.Ctx, "proj-1", testDate)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
}

func TestSubmitEntryValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []engine.EntrySubmitOptions{
		{ProjectID: "proj-1", Date: "15/10/2026", AuthorID: "u1"},
		{ProjectID: "proj-1", Date: testDate},
		{ProjectID: "proj-1", Date: testDate, AuthorID: "u1", Issues: []domain.LinkedWork{{Key: "no-id"}}},
	}
	for i, opts := range cases {
		if _, err := env.Engine.SubmitEntry(env.Ctx, opts); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	_, err := env.Engine.SubmitEntry(env.Ctx, engine.EntrySubmitOptions{ProjectID: "ghost", Date: testDate, AuthorID: "u1"})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for unknown project, got %v", err)
	}
}

func TestSubmitEntryKeepsConfiguredRole(t *testing.T) {
	env := newTestEnv(t)
	for _, opts := range []engine.EntrySubmitOptions{
		{ID: "a1", AuthorID: "u1", AuthorRole: "ADMIN", Progress: "Built the CSV export for billing reports",
			Today: "Wire the export", Blockers: "Waiting on PO approval for scope change"},
		{ID: "e0", AuthorID: "lead1", Progress: "Reviewed the release plan", Today: "Sprint review"},
		{ID: "x1", AuthorID: "guest", AuthorRole: "QA", Progress: "Ran the regression suite", Today: "Retest"},
	} {
		opts.ProjectID = "proj-1"
		opts.Date = testDate
		if _, err := env.Engine.SubmitEntry(env.Ctx, opts); err != nil {
			t.Fatalf("submit %s: %v", opts.ID, err)
		}
	}
	list, err := env.Engine.ListEntries(env.Ctx, "proj-1", testDate)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	roles := map[string]string{}
	for _, ent := range list {
		roles[ent.AuthorID] = ent.AuthorRole
	}
	if roles["u1"] != "DEV" || roles["guest"] != "QA" {
		t.Fatalf("unexpected roles %+v", roles)
	}
	s, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{ProjectID: "proj-1", Date: testDate})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(s.Actions) == 0 || s.Actions[0].Type != domain.ActionClarifyScope || s.Actions[0].OwnerUserID != "lead1" {
		t.Fatalf("expected scope action routed to lead1, got %+v", s.Actions)
	}
}

func TestResubmittedEntryReplacesEarlier(t *testing.T) {
	env := newTestEnv(t)
	env.submitTeam(t)
	if _, err := env.Engine.SubmitEntry(env.Ctx, engine.EntrySubmitOptions{
		ID: "e2b", ProjectID: "proj-1", Date: testDate, AuthorID: "u2",
		Progress: "Closed the flaky test tickets", Today: "Pair on the export", Complete: true,
		Issues: []domain.LinkedWork{{ID: "ISS-2"}},
	}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	list, err := env.Engine.ListEntries(env.Ctx, "proj-1", testDate)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected one entry per author, got %d", len(list))
	}
	for _, ent := range list {
		if ent.ID == "e2" {
			t.Fatalf("stale entry still listed: %+v", ent)
		}
	}
	s, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{ProjectID: "proj-1", Date: testDate})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, a := range s.Actions {
		if a.Type == domain.ActionFollowUpStatus && a.TargetUserID != nil && *a.TargetUserID == "u2" {
			t.Fatalf("stale entry still produced a follow up: %+v", a)
		}
	}
	if s.OverallProgress != "3 of 3 members reported" || s.Signals.Metrics.CompletionRate != 100 {
		t.Fatalf("unexpected progress %q signals %+v", s.OverallProgress, s.Signals)
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 1, 0, "proj-1", "entry.submitted")
	if err != nil || len(evts) != 1 || !strings.Contains(evts[0].Payload, `"replaced_entry_id":"e2"`) {
		t.Fatalf("expected replacement recorded in event, got %+v %v", evts, err)
	}
}

func TestBuildSummarySkipsNoBlockerAnswers(t *testing.T) {
	env := newTestEnv(t)
	for _, opts := range []engine.EntrySubmitOptions{
		{ID: "e0", AuthorID: "lead1", Progress: "Reviewed the release plan", Today: "Sprint review", Blockers: "none"},
		{ID: "e1", AuthorID: "u1", Progress: "Built the CSV export", Today: "Wire the export", Blockers: "No blockers."},
		{ID: "e2", AuthorID: "u2", Progress: "Fixed login bugs", Today: "More bugs", Blockers: "n/a"},
	} {
		opts.ProjectID = "proj-1"
		opts.Date = testDate
		if _, err := env.Engine.SubmitEntry(env.Ctx, opts); err != nil {
			t.Fatalf("submit %s: %v", opts.ID, err)
		}
	}
	s, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{ProjectID: "proj-1", Date: testDate})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(s.Blockers) != 0 || len(s.Actions) != 0 {
		t.Fatalf("placeholder blockers seeded: %+v / %+v", s.Blockers, s.Actions)
	}
	if len(s.Achievements) != 3 {
		t.Fatalf("expected 3 achievements, got %+v", s.Achievements)
	}
}

func TestBuildSummarySeedsAndDerives(t *testing.T) {
	env := newTestEnv(t)
	env.submitTeam(t)
	s, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{ProjectID: "proj-1", Date: testDate, ActorID: "lead1"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.ID != engine.SummaryID("proj-1", testDate) {
		t.Fatalf("summary id not stable: %s", s.ID)
	}
	if len(s.Achievements) != 2 || len(s.Blockers) != 1 {
		t.Fatalf("unexpected seeded bullets: %+v / %+v", s.Achievements, s.Blockers)
	}
	if s.OverallProgress != "3 of 3 members reported" {
		t.Fatalf("unexpected progress %q", s.OverallProgress)
	}
	if len(s.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %+v", s.Actions)
	}
	first := s.Actions[0]
	if first.Type != domain.ActionClarifyScope || first.OwnerUserID != "lead1" || first.Severity != domain.SeverityHigh {
		t.Fatalf("unexpected top action: %+v", first)
	}
	if len(first.LinkedWorkIDs) != 1 || first.LinkedWorkIDs[0] != "ISS-1" {
		t.Fatalf("linked work not carried: %+v", first.LinkedWorkIDs)
	}
	second := s.Actions[1]
	if second.Type != domain.ActionFollowUpStatus || second.TargetUserID == nil || *second.TargetUserID != "u2" {
		t.Fatalf("expected missing-update follow up for u2, got %+v", second)
	}
	if !strings.Contains(second.Title, "Sam") {
		t.Fatalf("expected display name in title, got %q", second.Title)
	}
	if s.Signals == nil || s.Signals.Metrics.CompletionRate != 67 {
		t.Fatalf("unexpected signals %+v", s.Signals)
	}

	again, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{ProjectID: "proj-1", Date: testDate})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for i := range s.Actions {
		if again.Actions[i].ID != s.Actions[i].ID {
			t.Fatalf("action ids changed across builds: %s vs %s", again.Actions[i].ID, s.Actions[i].ID)
		}
	}
	stored, err := env.Engine.GetSummary(env.Ctx, "proj-1", testDate)
	if err != nil || stored.ID != s.ID || len(stored.Actions) != 2 {
		t.Fatalf("stored summary mismatch: %+v %v", stored, err)
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, 0, "proj-1", "standup.summarized")
	if err != nil || len(evts) != 2 {
		t.Fatalf("expected two summarized events, got %v %v", evts, err)
	}
}

func TestBuildSummaryUsesSuppliedBullets(t *testing.T) {
	env := newTestEnv(t)
	env.submitTeam(t)
	s, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{
		ProjectID:       "proj-1",
		Date:            testDate,
		OverallProgress: "Export  work on track",
		Dependencies:    []domain.Bullet{{Text: "Need API access", SourceEntryIDs: []string{"e1"}, LinkedWorkIDs: []string{"ISS-1"}}},
		OpenQuestions:   []domain.OpenQuestion{{Question: "Who owns billing?", Priority: "urgent"}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.OverallProgress != "Export work on track" || len(s.Blockers) != 0 {
		t.Fatalf("supplied bullets not respected: %+v", s)
	}
	if s.Dependencies[0].ID == "" || s.OpenQuestions[0].ID == "" || s.OpenQuestions[0].Priority != "med" {
		t.Fatalf("ids or priority not normalized: %+v %+v", s.Dependencies, s.OpenQuestions)
	}
	var help *domain.ActionItem
	for i := range s.Actions {
		if s.Actions[i].Type == domain.ActionRequestHelp {
			help = &s.Actions[i]
		}
	}
	if help == nil || help.OwnerUserID != "u1" {
		t.Fatalf("expected help request owned by reporter, got %+v", s.Actions)
	}
}

func TestActionStates(t *testing.T) {
	env := newTestEnv(t)
	env.submitTeam(t)
	s, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{ProjectID: "proj-1", Date: testDate})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	target := s.Actions[0].ID
	if _, err := env.Engine.SetActionState(env.Ctx, "proj-1", target, "dismissed", "lead1"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	visible, err := env.Engine.ListActions(env.Ctx, "proj-1", testDate, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 1 || visible[0].ID == target {
		t.Fatalf("dismissed action still visible: %+v", visible)
	}
	all, err := env.Engine.ListActions(env.Ctx, "proj-1", testDate, true)
	if err != nil || len(all) != 2 || all[0].State != domain.ActionStateDismissed || all[1].State != domain.ActionStateOpen {
		t.Fatalf("unexpected full list: %+v %v", all, err)
	}
	if _, err := env.Engine.SetActionState(env.Ctx, "proj-1", target, "archived", "lead1"); err == nil {
		t.Fatalf("expected invalid state error")
	}
	if _, err := env.Engine.SetActionState(env.Ctx, "proj-1", "not-an-action", "read", "lead1"); err == nil {
		t.Fatalf("expected invalid action id error")
	}
	if _, err := env.Engine.SetActionState(env.Ctx, "proj-1", target, "open", "lead1"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	visible, _ = env.Engine.ListActions(env.Ctx, "proj-1", testDate, false)
	if len(visible) != 2 {
		t.Fatalf("expected reopened action visible, got %d", len(visible))
	}
}

func TestRenderDigestDefaultsAndErrors(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.Engine.RenderDigest(env.Ctx, engine.DigestOptions{ProjectID: "proj-1", Date: testDate}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found before build, got %v", err)
	}
	env.submitTeam(t)
	if _, err := env.Engine.BuildSummary(env.Ctx, engine.BuildOptions{ProjectID: "proj-1", Date: testDate}); err != nil {
		t.Fatalf("build: %v", err)
	}
	out, audience, err := env.Engine.RenderDigest(env.Ctx, engine.DigestOptions{ProjectID: "proj-1", Date: testDate})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if audience != digest.TeamDetailed || !strings.HasPrefix(out, "# Team standup: "+testDate) {
		t.Fatalf("unexpected default digest %s:\n%s", audience, out)
	}
	if strings.Contains(out, "(refs:") {
		t.Fatalf("references are off by default:\n%s", out)
	}
	refs := true
	out, _, err = env.Engine.RenderDigest(env.Ctx, engine.DigestOptions{ProjectID: "proj-1", Date: testDate, IncludeReferences: &refs})
	if err != nil || !strings.Contains(out, "(refs: ISS-1)") {
		t.Fatalf("expected references: %v\n%s", err, out)
	}
	out, _, err = env.Engine.RenderDigest(env.Ctx, engine.DigestOptions{ProjectID: "proj-1", Date: testDate, Audience: "stakeholder"})
	if err != nil || len(strings.Split(out, "\n")) != 5 {
		t.Fatalf("unexpected stakeholder digest: %v\n%s", err, out)
	}
	out, _, err = env.Engine.RenderDigest(env.Ctx, engine.DigestOptions{ProjectID: "proj-1", Date: testDate, Audience: "sprint-snapshot"})
	if err != nil || !strings.Contains(out, "Generated at: 2026-10-15 09:00 UTC") {
		t.Fatalf("unexpected snapshot: %v\n%s", err, out)
	}
	if _, _, err := env.Engine.RenderDigest(env.Ctx, engine.DigestOptions{ProjectID: "proj-1", Date: testDate, Audience: "exec"}); !errors.Is(err, digest.ErrUnknownAudience) {
		t.Fatalf("expected unknown audience, got %v", err)
	}
}

func TestQualityLive(t *testing.T) {
	env := newTestEnv(t)
	q, err := env.Engine.Quality(env.Ctx, "proj-1", testDate)
	if err != nil {
		t.Fatalf("quality: %v", err)
	}
	if q.Metrics.CompletionRate != 0 {
		t.Fatalf("expected zero completion with no entries, got %+v", q)
	}
	env.submitTeam(t)
	q, err = env.Engine.Quality(env.Ctx, "proj-1", testDate)
	if err != nil || q.Metrics.CompletionRate != 67 {
		t.Fatalf("unexpected quality %+v %v", q, err)
	}
}

func TestImportConfigResyncsGrants(t *testing.T) {
	env := newTestEnv(t)
	has := func(actor, perm string) bool {
		tx, err := env.Engine.DB.Begin()
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		defer tx.Rollback()
		ok, err := env.Engine.Auth.ActorHasPermission(env.Ctx, tx, "proj-1", actor, perm)
		if err != nil {
			t.Fatalf("permission check: %v", err)
		}
		return ok
	}
	if !has("tester", "config.read") || !has("lead1", "events.read") || !has("u1", "standup.write") {
		t.Fatalf("expected initial grants")
	}
	if has("u1", "events.read") {
		t.Fatalf("member should not read events")
	}
	cfg := config.Default("proj-1")
	cfg.Team.Members = []config.TeamMember{{ID: "u1", Access: []string{"viewer"}}}
	if err := env.Engine.ImportConfig(env.Ctx, "proj-1", cfg, "tester"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if has("u1", "standup.write") || !has("u1", "standup.read") || has("lead1", "events.read") {
		t.Fatalf("grants not resynced")
	}
	if !has("tester", "config.read") {
		t.Fatalf("owner grant should survive import")
	}
}

func TestCreateAPIKey(t *testing.T) {
	env := newTestEnv(t)
	key, raw, err := env.Engine.CreateAPIKey(env.Ctx, "proj-1", "u1", "ci")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(raw, "dl_") || key.KeyHash != repo.HashAPIKey(raw) {
		t.Fatalf("unexpected key %+v raw=%s", key, raw)
	}
	got, err := env.Engine.Repo.GetAPIKeyByHash(env.Ctx, repo.HashAPIKey(raw))
	if err != nil || got.ActorID != "u1" || got.Name != "ci" {
		t.Fatalf("lookup: %+v %v", got, err)
	}
}

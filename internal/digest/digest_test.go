package digest

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyline/internal/domain"
	"dailyline/internal/standup"
)

func sampleSummary() domain.Summary {
	long := strings.Repeat("Migrated the reporting pipeline to the new warehouse schema ", 5)
	target := "ops1"
	actions := standup.Merge("sum-1", []domain.ActionItem{
		{Type: domain.ActionRequestHelp, Title: "Help needed: Need API access from the platform team for the export job", Reason: "Need API access", OwnerUserID: "u1", TargetUserID: &target, Severity: domain.SeverityMed, Due: domain.DueToday, SourceEntryIDs: []string{"e1"}, LinkedWorkIDs: []string{"API-9"}},
		{Type: domain.ActionClarifyScope, Title: "Clarify scope: Waiting on PO approval for scope change", Reason: "Waiting on PO approval for scope change", OwnerUserID: "lead1", Severity: domain.SeverityHigh, Due: domain.DueToday, SourceEntryIDs: []string{"e1"}},
		{Type: domain.ActionAssignOwner, Title: "Assign an owner: billing migration", Reason: "billing migration", OwnerUserID: "lead1", Severity: domain.SeverityMed, Due: domain.DueToday},
		{Type: domain.ActionFollowUpStatus, Title: "Check in with Sam for a status update", Reason: "Sam has not shared an update", OwnerUserID: "lead1", Severity: domain.SeverityLow, Due: domain.DueToday, SourceEntryIDs: []string{"e2"}},
	})
	return domain.Summary{
		ID:              "sum-1",
		ProjectID:       "proj-1",
		Date:            "2026-10-15",
		OverallProgress: long,
		Achievements: []domain.Bullet{
			{ID: "a2", Text: "Shipped CSV export " + strings.Repeat("with many extra words ", 6), LinkedWorkIDs: []string{"ISS-2", "ISS-1"}},
			{ID: "a1", Text: "Added audit log"},
			{ID: "a3", Text: "Fixed login redirect"},
			{ID: "a4", Text: "Upgraded Go toolchain"},
		},
		Blockers:       []domain.Bullet{{ID: "b1", Text: "Waiting on PO approval for scope change", SourceEntryIDs: []string{"e1"}}},
		Dependencies:   []domain.Bullet{{ID: "d1", Text: "Need API access", LinkedWorkIDs: []string{"API-9"}}},
		AssignmentGaps: []domain.Bullet{{ID: "g1", Text: "billing migration"}},
		Actions:        actions,
		OpenQuestions: []domain.OpenQuestion{
			{ID: "q2", Question: "Do we support IE?", Priority: "low"},
			{ID: "q1", Question: "Who approves the budget?", Priority: "high"},
		},
		Signals: &domain.QualitySignal{QualityScore: 82, Metrics: domain.QualityMetrics{CompletionRate: 90, MissingLinkedWorkRate: 10, MissingBlockersRate: 20, VagueUpdateRate: 5}},
	}
}

func TestStakeholderShape(t *testing.T) {
	for _, refs := range []bool{false, true} {
		out, err := Render(Stakeholder, sampleSummary(), Options{IncludeReferences: refs})
		require.NoError(t, err)
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 5, out)
		for _, l := range lines {
			assert.LessOrEqual(t, utf8.RuneCountInString(l), 160, l)
		}
		assert.Equal(t, "Standup update as of 2026-10-15", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "Progress: "))
		assert.True(t, strings.HasPrefix(lines[2], "Wins: Added audit log; Fixed login redirect; Shipped CSV"))
		assert.NotContains(t, lines[2], "Upgraded", "only three wins are listed")
		assert.True(t, strings.HasPrefix(lines[3], "Risks: Waiting on PO approval"))
		assert.True(t, strings.HasPrefix(lines[4], "Actions needed: Clarify scope"))
	}
}

func TestStakeholderEmptySummary(t *testing.T) {
	out, err := Render(Stakeholder, domain.Summary{Date: "2026-10-15"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Standup update as of 2026-10-15",
		"Progress: None reported",
		"Wins: None reported",
		"Risks: None reported",
		"Actions needed: None reported",
	}, "\n"), out)
}

func TestTeamDetailedSectionOrder(t *testing.T) {
	for _, s := range []domain.Summary{sampleSummary(), {Date: "2026-10-15"}} {
		out, err := Render(TeamDetailed, s, Options{})
		require.NoError(t, err)
		ac := strings.Index(out, SectionActionCenter)
		oq := strings.Index(out, SectionOpenQuestions)
		sg := strings.Index(out, SectionSignals)
		fs := strings.Index(out, SectionFullSummary)
		require.True(t, ac >= 0 && oq >= 0 && sg >= 0 && fs >= 0, out)
		assert.True(t, ac < oq && oq < sg && sg < fs, out)
	}
}

func TestTeamDetailedContent(t *testing.T) {
	s := sampleSummary()
	out, err := Render(TeamDetailed, s, Options{IncludeReferences: true})
	require.NoError(t, err)
	assert.Contains(t, out, strings.TrimSpace(s.Achievements[0].Text[:40]))
	assert.Contains(t, out, "(refs: ISS-1, ISS-2)")
	assert.Contains(t, out, "- Quality score: 82/100")
	assert.Contains(t, out, "[high] Clarify scope: Waiting on PO approval for scope change (owner: lead1, due: today)")
	assert.Contains(t, out, "(owner: u1, with: ops1, due: today)")
	assert.Less(t, strings.Index(out, "Who approves the budget?"), strings.Index(out, "Do we support IE?"))
	assert.NotContains(t, out, "…", "team digest never truncates")

	empty, err := Render(TeamDetailed, domain.Summary{Date: "2026-10-15"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 8, strings.Count(empty, "- None reported"))
	assert.NotContains(t, empty, "\n\n\n")
}

func TestSprintSnapshotWeekOf(t *testing.T) {
	gen := time.Date(2026, 10, 16, 14, 3, 59, 0, time.FixedZone("CEST", 2*3600))
	out, err := Render(SprintSnapshot, sampleSummary(), Options{GeneratedAt: gen})
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "# Sprint Snapshot: Week of 2026-10-12", lines[0])
	assert.Equal(t, "Generated at: 2026-10-16 12:03 UTC", lines[1])
	headers := []string{"## Progress", "## Wins", "## Risks/Blockers", "## Actions Needed", "## Open Questions", "## Dependencies", "## Assignment Gaps"}
	last := -1
	for _, h := range headers {
		idx := strings.Index(out, h)
		require.GreaterOrEqual(t, idx, 0, h)
		assert.Greater(t, idx, last, h)
		last = idx
	}
}

func TestSprintSnapshotNamedSprint(t *testing.T) {
	out, err := Render(SprintSnapshot, domain.Summary{Date: "2026-10-15"}, Options{SprintName: "Sprint 42", SprintDate: "2026-10-20"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Sprint Snapshot: Sprint 42 (2026-10-20)\n\n## Progress\n- None reported"), out)
	assert.NotContains(t, out, "Generated at")
	assert.Equal(t, 7, strings.Count(out, "- None reported"))
}

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2026-10-12":           "2026-10-12", // Monday
		"2026-10-18":           "2026-10-12", // Sunday
		"2026-10-14":           "2026-10-12",
		"2026-01-01":           "2025-12-29",
		"2026-10-19T01:00:00Z": "2026-10-19",
	}
	for in, want := range cases {
		got, ok := WeekStart(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got.Format("2006-01-02"), in)
	}
	_, ok := WeekStart("not a date")
	assert.False(t, ok)
}

func TestUnknownAudience(t *testing.T) {
	_, err := Render(Audience("exec"), domain.Summary{}, Options{})
	assert.True(t, errors.Is(err, ErrUnknownAudience))
	_, err = ParseAudience("nope")
	assert.True(t, errors.Is(err, ErrUnknownAudience))
	a, err := ParseAudience(" Team-Detailed ")
	require.NoError(t, err)
	assert.Equal(t, TeamDetailed, a)
}

func TestRenderDoesNotMutateSummary(t *testing.T) {
	s := sampleSummary()
	before := s.Achievements[0].ID
	_, err := Render(TeamDetailed, s, Options{})
	require.NoError(t, err)
	assert.Equal(t, before, s.Achievements[0].ID)
}

func TestCleanup(t *testing.T) {
	in := "\n\n  \nTitle   \n\n\n\nBody\t\n\nEnd\n\n\n"
	assert.Equal(t, "Title\n\nBody\n\nEnd", cleanup(in))
}

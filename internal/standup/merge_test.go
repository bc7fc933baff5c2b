package standup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyline/internal/domain"
)

func TestMergeCanonicallyEqualDependencies(t *testing.T) {
	cands := Candidates(DeriveInput{
		SummaryID: "s",
		Entries:   leadAndDev(),
		Dependencies: []domain.Bullet{
			{ID: "d1", Text: "Need API access", SourceEntryIDs: []string{"e1"}, LinkedWorkIDs: []string{"API-1"}},
			{ID: "d2", Text: "need   api access", SourceEntryIDs: []string{"e0"}, LinkedWorkIDs: []string{"API-2", "API-1"}},
		},
	})
	require.Len(t, cands, 2)
	merged := Merge("s", cands)
	require.Len(t, merged, 1)
	assert.Equal(t, []string{"e0", "e1"}, merged[0].SourceEntryIDs)
	assert.Equal(t, []string{"API-1", "API-2"}, merged[0].LinkedWorkIDs)
	assert.Equal(t, ActionID("s", merged[0]), merged[0].ID)
	assert.NotEqual(t, cands[0].ID, merged[0].ID)
	assert.NotEqual(t, cands[1].ID, merged[0].ID)
}

func TestMergeTakesMaxSeverityAndToday(t *testing.T) {
	mk := func(sev domain.Severity, due string, src ...string) domain.ActionItem {
		return domain.ActionItem{
			Title: "Follow up", Type: domain.ActionFollowUpStatus, Reason: "Label: Deploy is flaky",
			OwnerUserID: "lead", Severity: sev, Due: due, SourceEntryIDs: src,
		}
	}
	cands := []domain.ActionItem{
		mk(domain.SeverityLow, domain.DueTomorrow, "e1"),
		mk(domain.SeverityHigh, "2026-01-05", "e2"),
		mk(domain.SeverityMed, domain.DueToday, "e3", "e1"),
	}
	merged := Merge("s", cands)
	require.Len(t, merged, 1)
	assert.Equal(t, domain.SeverityHigh, merged[0].Severity)
	assert.Equal(t, domain.DueToday, merged[0].Due)
	assert.Equal(t, []string{"e1", "e2", "e3"}, merged[0].SourceEntryIDs)
}

func TestMergeKeepsDifferentTypesApart(t *testing.T) {
	a := domain.ActionItem{Type: domain.ActionFollowUpStatus, Reason: "stuck on auth", Severity: domain.SeverityMed}
	b := domain.ActionItem{Type: domain.ActionEscalateBlocker, Reason: "stuck on auth", Severity: domain.SeverityHigh}
	assert.Len(t, Merge("s", []domain.ActionItem{a, b}), 2)
}

func TestMergeKeyFallsBackToTitle(t *testing.T) {
	a := domain.ActionItem{Type: domain.ActionAssignOwner, Title: "Assign: Billing!"}
	assert.Equal(t, "assign-owner:billing", MergeKey(a))
}

func TestMergeIsOrderInsensitive(t *testing.T) {
	target := "ops"
	cands := []domain.ActionItem{
		{Type: domain.ActionRequestHelp, Title: "Help A", Reason: "Need API access", OwnerUserID: "u1", Severity: domain.SeverityMed, Due: domain.DueToday, SourceEntryIDs: []string{"e1"}},
		{Type: domain.ActionRequestHelp, Title: "Help B", Reason: "need api access", OwnerUserID: "u2", TargetUserID: &target, Severity: domain.SeverityLow, Due: domain.DueTomorrow, SourceEntryIDs: []string{"e2"}},
		{Type: domain.ActionRequestHelp, Title: "Help C", Reason: "NEED API ACCESS.", OwnerUserID: "u3", Severity: domain.SeverityHigh, Due: "2026-02-01", LinkedWorkIDs: []string{"X"}},
		{Type: domain.ActionAssignOwner, Title: "Assign", Reason: "billing", OwnerUserID: "lead", Severity: domain.SeverityMed, Due: domain.DueToday},
	}
	want := Merge("s", cands)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.ActionItem{}, cands...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Merge("s", shuffled))
	}
}

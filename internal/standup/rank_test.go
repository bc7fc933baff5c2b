package standup

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyline/internal/domain"
)

func TestRankOrder(t *testing.T) {
	items := []domain.ActionItem{
		{ID: "a5", Type: domain.ActionRequestHelp, Severity: domain.SeverityLow, Due: domain.DueToday},
		{ID: "a4", Type: domain.ActionRequestHelp, Severity: domain.SeverityHigh, Due: "2026-03-01"},
		{ID: "a3", Type: domain.ActionRequestHelp, Severity: domain.SeverityHigh, Due: domain.DueTomorrow},
		{ID: "a2", Type: domain.ActionEscalateBlocker, Severity: domain.SeverityHigh, Due: domain.DueToday},
		{ID: "a1", Type: domain.ActionClarifyScope, Severity: domain.SeverityHigh, Due: domain.DueToday},
		{ID: "a0", Type: domain.ActionEscalateBlocker, Severity: domain.SeverityHigh, Due: domain.DueToday, SourceEntryIDs: []string{"e1", "e2"}},
		{ID: "a6", Type: domain.ActionEscalateBlocker, Severity: domain.SeverityHigh, Due: domain.DueToday, SourceEntryIDs: []string{"e1"}},
	}
	ranked := Rank(items)
	var ids []string
	for _, a := range ranked {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a0", "a6", "a2", "a3", "a4", "a5"}, ids)
}

func TestRankTieBreaksOnID(t *testing.T) {
	items := []domain.ActionItem{
		{ID: "b", Type: domain.ActionAssignOwner, Severity: domain.SeverityMed, Due: domain.DueToday},
		{ID: "a", Type: domain.ActionAssignOwner, Severity: domain.SeverityMed, Due: domain.DueToday},
	}
	ranked := Rank(items)
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", items[0].ID, "Rank must not reorder its input")
}

func TestRankIsStableUnderShuffle(t *testing.T) {
	sevs := []domain.Severity{domain.SeverityLow, domain.SeverityMed, domain.SeverityHigh}
	dues := []string{domain.DueToday, domain.DueTomorrow, "2026-05-01"}
	types := []domain.ActionType{domain.ActionRequestHelp, domain.ActionUnblockDecision, domain.ActionAssignOwner}
	var items []domain.ActionItem
	for i := 0; i < 27; i++ {
		items = append(items, domain.ActionItem{
			ID:       fmt.Sprintf("action_%02d", i),
			Severity: sevs[i%3],
			Due:      dues[(i/3)%3],
			Type:     types[(i/9)%3],
		})
	}
	want := Rank(items)
	require.Len(t, want, MaxActions)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := append([]domain.ActionItem{}, items...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Rank(shuffled))
	}
}

package standup

import (
	"sort"

	"dailyline/internal/domain"
)

// SortActions orders actions in place by priority. Ties are broken by id, so the order is total.
func SortActions(actions []domain.ActionItem) {
	sort.SliceStable(actions, func(i, j int) bool { return actionLess(actions[i], actions[j]) })
}

// Rank sorts a copy of the actions and keeps the first MaxActions.
func Rank(actions []domain.ActionItem) []domain.ActionItem {
	out := append([]domain.ActionItem{}, actions...)
	SortActions(out)
	if len(out) > MaxActions {
		out = out[:MaxActions]
	}
	return out
}

func actionLess(a, b domain.ActionItem) bool {
	if sa, sb := severityWeight[a.Severity], severityWeight[b.Severity]; sa != sb {
		return sa > sb
	}
	if da, db := dueRank(a.Due), dueRank(b.Due); da != db {
		return da < db
	}
	if ba, bb := decisionBoost(a.Type), decisionBoost(b.Type); ba != bb {
		return ba > bb
	}
	if ea, eb := evidence(a), evidence(b); ea != eb {
		return ea > eb
	}
	return a.ID < b.ID
}

func dueRank(due string) int {
	switch due {
	case domain.DueToday:
		return 0
	case domain.DueTomorrow:
		return 1
	default:
		return 2
	}
}

func decisionBoost(t domain.ActionType) int {
	if t == domain.ActionUnblockDecision || t == domain.ActionClarifyScope {
		return 1
	}
	return 0
}

func evidence(a domain.ActionItem) int {
	return len(SortedUnique(a.SourceEntryIDs)) + len(SortedUnique(a.LinkedWorkIDs))
}

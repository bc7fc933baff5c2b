package standup

import (
	"sort"

	"dailyline/internal/domain"
)

var severityWeight = map[domain.Severity]int{
	domain.SeverityLow:  1,
	domain.SeverityMed:  2,
	domain.SeverityHigh: 3,
}

// MergeKey is the dedup key of an action: its type plus the canonical reason (or title).
func MergeKey(a domain.ActionItem) string {
	text := a.Reason
	if isBlank(text) {
		text = a.Title
	}
	return string(a.Type) + ":" + Canonicalize(text)
}

// Merge collapses candidates sharing a MergeKey and re-derives the id of every result.
// The output is in ranked order but not capped.
func Merge(summaryID string, candidates []domain.ActionItem) []domain.ActionItem {
	ordered := make([]domain.ActionItem, len(candidates))
	for i, c := range candidates {
		ordered[i] = finalize(summaryID, c)
	}
	// The first candidate per key becomes the base, so fix the visiting order by content.
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	merged := make(map[string]domain.ActionItem, len(ordered))
	keys := make([]string, 0, len(ordered))
	for _, c := range ordered {
		key := MergeKey(c)
		base, ok := merged[key]
		if !ok {
			merged[key] = c
			keys = append(keys, key)
			continue
		}
		merged[key] = mergePair(base, c)
	}

	out := make([]domain.ActionItem, 0, len(keys))
	for _, key := range keys {
		out = append(out, finalize(summaryID, merged[key]))
	}
	SortActions(out)
	return out
}

func mergePair(base, other domain.ActionItem) domain.ActionItem {
	if severityWeight[other.Severity] > severityWeight[base.Severity] {
		base.Severity = other.Severity
	}
	if base.Due == domain.DueToday || other.Due == domain.DueToday {
		base.Due = domain.DueToday
	}
	if base.TargetUserID == nil && other.TargetUserID != nil {
		target := *other.TargetUserID
		base.TargetUserID = &target
	}
	base.SourceEntryIDs = SortedUnique(append(append([]string{}, base.SourceEntryIDs...), other.SourceEntryIDs...))
	base.LinkedWorkIDs = SortedUnique(append(append([]string{}, base.LinkedWorkIDs...), other.LinkedWorkIDs...))
	return base
}

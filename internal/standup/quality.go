package standup

import (
	"math"
	"strings"
	"unicode/utf8"

	"dailyline/internal/domain"
)

// vagueMinLength is the rune count under which an update counts as vague.
const vagueMinLength = 25

// VaguePhrases are low-information phrases that make an update vague wherever they appear.
var VaguePhrases = []string{
	"same",
	"as usual",
	"nothing",
	"n/a",
	"tbd",
	"working on it",
	"stuff",
	"no update",
}

// QualityInput is one entry with its linked work count precomputed by the caller.
type QualityInput struct {
	Entry           domain.Entry
	LinkedWorkCount int
}

// QualityInputs pairs entries with their own linked work counts.
func QualityInputs(entries []domain.Entry) []QualityInput {
	out := make([]QualityInput, 0, len(entries))
	for _, e := range entries {
		out = append(out, QualityInput{Entry: e, LinkedWorkCount: e.LinkedWorkCount()})
	}
	return out
}

// Score computes the data quality signal for a batch of entries.
// Members who did not submit still count in the denominator.
func Score(inputs []QualityInput, totalMembers int) domain.QualitySignal {
	denom := totalMembers
	if len(inputs) > denom {
		denom = len(inputs)
	}
	if denom < 1 {
		denom = 1
	}
	var complete, noLinks, noBlockers, vague int
	for _, in := range inputs {
		if in.Entry.Complete {
			complete++
		}
		if in.LinkedWorkCount == 0 {
			noLinks++
		}
		if isBlank(in.Entry.Blockers) {
			noBlockers++
		}
		if IsVague(in.Entry.Progress + " " + in.Entry.Today) {
			vague++
		}
	}
	m := domain.QualityMetrics{
		CompletionRate:        percent(complete, denom),
		MissingLinkedWorkRate: percent(noLinks, denom),
		MissingBlockersRate:   percent(noBlockers, denom),
		VagueUpdateRate:       percent(vague, denom),
	}
	score := float64(m.CompletionRate)*0.40 +
		float64(100-m.MissingLinkedWorkRate)*0.25 +
		float64(100-m.MissingBlockersRate)*0.15 +
		float64(100-m.VagueUpdateRate)*0.20
	score = math.Max(0, math.Min(100, score))
	return domain.QualitySignal{QualityScore: int(math.Round(score)), Metrics: m}
}

// IsVague reports whether update text is empty, too short, or made of filler phrases.
func IsVague(text string) bool {
	s := Collapse(text)
	if s == "" || utf8.RuneCountInString(s) < vagueMinLength {
		return true
	}
	lower := strings.ToLower(s)
	for _, p := range VaguePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func percent(n, denom int) int {
	return int(math.Round(float64(n) * 100 / float64(denom)))
}

package digest

import (
	"strings"

	"dailyline/internal/domain"
	"dailyline/internal/standup"
)

const (
	stakeholderLineLimit     = 160
	stakeholderProgressLimit = 120
	stakeholderItemLimit     = 48
	stakeholderMaxItems      = 3
)

// renderStakeholder emits exactly five lines, each capped after assembly.
func renderStakeholder(s domain.Summary, opts Options) string {
	progress := standup.Truncate(s.OverallProgress, stakeholderProgressLimit)
	if progress == "" {
		progress = noneReported
	}

	var wins, risks, actions []string
	for _, b := range s.Achievements {
		wins = append(wins, bulletText(b, opts.IncludeReferences))
	}
	for _, b := range s.Blockers {
		risks = append(risks, bulletText(b, opts.IncludeReferences))
	}
	for _, a := range s.Actions {
		actions = append(actions, actionText(a, opts.IncludeReferences))
	}

	asOf := strings.TrimSpace(s.Date)
	if asOf == "" {
		asOf = "unknown date"
	}
	lines := []string{
		"Standup update as of " + asOf,
		"Progress: " + progress,
		"Wins: " + joinTop(wins),
		"Risks: " + joinTop(risks),
		"Actions needed: " + joinTop(actions),
	}
	for i, l := range lines {
		lines[i] = standup.Truncate(l, stakeholderLineLimit)
	}
	return strings.Join(lines, "\n")
}

func joinTop(items []string) string {
	parts := make([]string, 0, stakeholderMaxItems)
	for _, it := range items {
		if len(parts) == stakeholderMaxItems {
			break
		}
		if t := standup.Truncate(it, stakeholderItemLimit); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return noneReported
	}
	return strings.Join(parts, "; ")
}

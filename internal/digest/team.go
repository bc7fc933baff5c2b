package digest

import (
	"fmt"
	"strings"

	"dailyline/internal/domain"
	"dailyline/internal/standup"
)

// Team digest section headers, in the order they are rendered.
const (
	SectionActionCenter  = "Action Center"
	SectionOpenQuestions = "Open Questions"
	SectionSignals       = "Signals"
	SectionFullSummary   = "Full Summary"
)

func renderTeam(s domain.Summary, opts Options) string {
	refs := opts.IncludeReferences
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Team standup: %s\n\n", strings.TrimSpace(s.Date))

	var actions []string
	for _, a := range s.Actions {
		actions = append(actions, teamActionLine(a, refs))
	}
	writeSection(&sb, "## "+SectionActionCenter, actions)

	var questions []string
	for _, q := range s.OpenQuestions {
		text := standup.Collapse(q.Question)
		if p := strings.TrimSpace(q.Priority); p != "" {
			text = fmt.Sprintf("[%s] %s", strings.ToLower(p), text)
		}
		questions = append(questions, text)
	}
	writeSection(&sb, "## "+SectionOpenQuestions, questions)

	var signals []string
	if s.Signals != nil {
		m := s.Signals.Metrics
		signals = []string{
			fmt.Sprintf("Quality score: %d/100", s.Signals.QualityScore),
			fmt.Sprintf("Completion rate: %d%%", m.CompletionRate),
			fmt.Sprintf("Missing linked work: %d%%", m.MissingLinkedWorkRate),
			fmt.Sprintf("Missing blockers field: %d%%", m.MissingBlockersRate),
			fmt.Sprintf("Vague updates: %d%%", m.VagueUpdateRate),
		}
	}
	writeSection(&sb, "## "+SectionSignals, signals)

	sb.WriteString("## " + SectionFullSummary + "\n\n")
	var progress []string
	if p := standup.Collapse(s.OverallProgress); p != "" {
		progress = []string{p}
	}
	writeSection(&sb, "### Overall Progress", progress)
	writeSection(&sb, "### Achievements", bulletLines(s.Achievements, refs))
	writeSection(&sb, "### Blockers", bulletLines(s.Blockers, refs))
	writeSection(&sb, "### Dependencies", bulletLines(s.Dependencies, refs))
	writeSection(&sb, "### Assignment Gaps", bulletLines(s.AssignmentGaps, refs))
	return sb.String()
}

func teamActionLine(a domain.ActionItem, refs bool) string {
	var meta []string
	if a.OwnerUserID != "" {
		meta = append(meta, "owner: "+a.OwnerUserID)
	}
	if a.TargetUserID != nil && *a.TargetUserID != "" {
		meta = append(meta, "with: "+*a.TargetUserID)
	}
	if a.Due != "" {
		meta = append(meta, "due: "+a.Due)
	}
	line := fmt.Sprintf("[%s] %s", a.Severity, actionText(a, refs))
	if len(meta) > 0 {
		line += " (" + strings.Join(meta, ", ") + ")"
	}
	return line
}

func bulletLines(bullets []domain.Bullet, refs bool) []string {
	out := make([]string, 0, len(bullets))
	for _, b := range bullets {
		if standup.Collapse(b.Text) == "" {
			continue
		}
		out = append(out, bulletText(b, refs))
	}
	return out
}

func writeSection(sb *strings.Builder, header string, items []string) {
	sb.WriteString(header + "\n")
	if len(items) == 0 {
		sb.WriteString("- " + noneReported + "\n\n")
		return
	}
	for _, it := range items {
		sb.WriteString("- " + it + "\n")
	}
	sb.WriteString("\n")
}

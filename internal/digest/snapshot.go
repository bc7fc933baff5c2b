package digest

import (
	"fmt"
	"strings"
	"time"

	"dailyline/internal/domain"
	"dailyline/internal/standup"
)

func renderSnapshot(s domain.Summary, opts Options) string {
	refs := opts.IncludeReferences
	var sb strings.Builder
	sb.WriteString(snapshotTitle(s.Date, opts) + "\n")
	if !opts.GeneratedAt.IsZero() {
		sb.WriteString("Generated at: " + opts.GeneratedAt.UTC().Format("2006-01-02 15:04") + " UTC\n")
	}
	sb.WriteString("\n")

	var progress []string
	if p := standup.Collapse(s.OverallProgress); p != "" {
		progress = []string{p}
	}
	var actions []string
	for _, a := range s.Actions {
		actions = append(actions, actionText(a, refs))
	}
	var questions []string
	for _, q := range s.OpenQuestions {
		if text := standup.Collapse(q.Question); text != "" {
			questions = append(questions, text)
		}
	}

	writeSection(&sb, "## Progress", progress)
	writeSection(&sb, "## Wins", bulletLines(s.Achievements, refs))
	writeSection(&sb, "## Risks/Blockers", bulletLines(s.Blockers, refs))
	writeSection(&sb, "## Actions Needed", actions)
	writeSection(&sb, "## Open Questions", questions)
	writeSection(&sb, "## Dependencies", bulletLines(s.Dependencies, refs))
	writeSection(&sb, "## Assignment Gaps", bulletLines(s.AssignmentGaps, refs))
	return sb.String()
}

func snapshotTitle(asOf string, opts Options) string {
	if name := standup.Collapse(opts.SprintName); name != "" {
		date := strings.TrimSpace(opts.SprintDate)
		if date == "" {
			date = strings.TrimSpace(asOf)
		}
		if date == "" {
			return "# Sprint Snapshot: " + name
		}
		return fmt.Sprintf("# Sprint Snapshot: %s (%s)", name, date)
	}
	if monday, ok := WeekStart(asOf); ok {
		return "# Sprint Snapshot: Week of " + monday.Format("2006-01-02")
	}
	return "# Sprint Snapshot: Week of " + strings.TrimSpace(asOf)
}

// WeekStart returns the Monday (UTC) of the ISO week containing the given date.
// It accepts YYYY-MM-DD or RFC 3339 input.
func WeekStart(asOf string) (time.Time, bool) {
	asOf = strings.TrimSpace(asOf)
	t, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		t, err = time.Parse(time.RFC3339, asOf)
		if err != nil {
			return time.Time{}, false
		}
	}
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset), true
}

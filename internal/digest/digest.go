package digest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dailyline/internal/domain"
	"dailyline/internal/standup"
)

type Audience string

const (
	Stakeholder    Audience = "stakeholder"
	TeamDetailed   Audience = "team-detailed"
	SprintSnapshot Audience = "sprint-snapshot"
)

// Audiences lists every supported audience in display order.
var Audiences = []Audience{Stakeholder, TeamDetailed, SprintSnapshot}

var ErrUnknownAudience = errors.New("unknown digest audience")

const noneReported = "None reported"

// Options tune rendering. Sprint fields and GeneratedAt only affect the sprint snapshot.
type Options struct {
	IncludeReferences bool
	SprintName        string
	SprintDate        string
	GeneratedAt       time.Time
}

// ParseAudience validates an audience name.
func ParseAudience(s string) (Audience, error) {
	a := Audience(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Audiences {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAudience, s)
}

// Render produces the digest text for one audience.
func Render(audience Audience, s domain.Summary, opts Options) (string, error) {
	p := prepare(s)
	var out string
	switch audience {
	case Stakeholder:
		out = renderStakeholder(p, opts)
	case TeamDetailed:
		out = renderTeam(p, opts)
	case SprintSnapshot:
		out = renderSnapshot(p, opts)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAudience, audience)
	}
	return cleanup(out), nil
}

// prepare returns a copy of the summary with every list in render order.
func prepare(s domain.Summary) domain.Summary {
	s.Achievements = sortBullets(s.Achievements)
	s.Blockers = sortBullets(s.Blockers)
	s.Dependencies = sortBullets(s.Dependencies)
	s.AssignmentGaps = sortBullets(s.AssignmentGaps)
	s.Actions = append([]domain.ActionItem{}, s.Actions...)
	standup.SortActions(s.Actions)
	s.OpenQuestions = sortQuestions(s.OpenQuestions)
	return s
}

func sortBullets(in []domain.Bullet) []domain.Bullet {
	out := append([]domain.Bullet{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := standup.Collapse(out[i].Text), standup.Collapse(out[j].Text)
		if ti != tj {
			return ti < tj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

var priorityRank = map[string]int{"high": 0, "med": 1, "low": 2}

func questionPriority(p string) int {
	if r, ok := priorityRank[strings.ToLower(strings.TrimSpace(p))]; ok {
		return r
	}
	return len(priorityRank)
}

func sortQuestions(in []domain.OpenQuestion) []domain.OpenQuestion {
	out := append([]domain.OpenQuestion{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := questionPriority(out[i].Priority), questionPriority(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		qi, qj := standup.Collapse(out[i].Question), standup.Collapse(out[j].Question)
		if qi != qj {
			return qi < qj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// cleanup strips trailing whitespace, folds blank line runs into one, and trims the document.
func cleanup(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r\f\v")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func bulletText(b domain.Bullet, refs bool) string {
	return standup.Collapse(b.Text) + standup.RefsSuffix(b.LinkedWorkIDs, refs)
}

func actionText(a domain.ActionItem, refs bool) string {
	return standup.Collapse(a.Title) + standup.RefsSuffix(a.LinkedWorkIDs, refs)
}

package standup

import (
	"fmt"
	"strings"

	"dailyline/internal/domain"
)

// MaxActions caps the ranked action list.
const MaxActions = 15

const titleLimit = 120

// DeriveInput is one summary's worth of upstream bullets plus the raw entries they came from.
type DeriveInput struct {
	SummaryID      string
	Entries        []domain.Entry
	Blockers       []domain.Bullet
	Dependencies   []domain.Bullet
	AssignmentGaps []domain.Bullet
}

// DeriveActions produces the ranked, deduplicated, capped action list for a summary.
func DeriveActions(in DeriveInput) []domain.ActionItem {
	return Rank(Merge(in.SummaryID, Candidates(in)))
}

// Candidates emits every candidate action before merging and ranking.
func Candidates(in DeriveInput) []domain.ActionItem {
	byID := make(map[string]domain.Entry, len(in.Entries))
	for _, e := range in.Entries {
		if _, ok := byID[e.ID]; !ok {
			byID[e.ID] = e
		}
	}
	lead := PickLeadUserID(in.Entries)
	var out []domain.ActionItem
	emit := func(a domain.ActionItem) {
		out = append(out, finalize(in.SummaryID, a))
	}

	for _, b := range in.Blockers {
		reporter, ok := reportingEntry(b, byID)
		if !ok {
			continue
		}
		text := Collapse(b.Text)
		base := domain.ActionItem{
			Reason:         text,
			SourceEntryIDs: b.SourceEntryIDs,
			LinkedWorkIDs:  b.LinkedWorkIDs,
		}
		a := base
		switch {
		case NeedsDecision(text) && MentionsScope(text):
			a.Type, a.Severity, a.Due = domain.ActionClarifyScope, domain.SeverityHigh, domain.DueToday
			a.Title = Truncate("Clarify scope: "+text, titleLimit)
		case NeedsDecision(text):
			a.Type, a.Severity, a.Due = domain.ActionUnblockDecision, domain.SeverityHigh, domain.DueToday
			a.Title = Truncate("Decision needed: "+text, titleLimit)
		default:
			a.Type, a.Severity, a.Due = domain.ActionFollowUpStatus, domain.SeverityMed, domain.DueTomorrow
			a.Title = Truncate("Follow up on blocker: "+text, titleLimit)
		}
		a.OwnerUserID = PickOwnerUserID(a.Type, reporter.AuthorID, lead)
		emit(a)
		if IsUrgent(text) {
			esc := base
			esc.Type, esc.Severity, esc.Due = domain.ActionEscalateBlocker, domain.SeverityHigh, domain.DueToday
			esc.Title = Truncate("Escalate blocker: "+text, titleLimit)
			esc.OwnerUserID = PickOwnerUserID(esc.Type, reporter.AuthorID, lead)
			emit(esc)
		}
	}

	for _, b := range in.Dependencies {
		text := Collapse(b.Text)
		reporterID := lead
		if reporter, ok := reportingEntry(b, byID); ok {
			reporterID = reporter.AuthorID
		}
		emit(domain.ActionItem{
			Title:          Truncate("Help needed: "+text, titleLimit),
			OwnerUserID:    PickOwnerUserID(domain.ActionRequestHelp, reporterID, lead),
			TargetUserID:   dependencyTarget(b.LinkedWorkIDs, in.Entries),
			Type:           domain.ActionRequestHelp,
			Reason:         text,
			Due:            domain.DueToday,
			Severity:       domain.SeverityMed,
			SourceEntryIDs: b.SourceEntryIDs,
			LinkedWorkIDs:  b.LinkedWorkIDs,
		})
	}

	for _, b := range in.AssignmentGaps {
		text := Collapse(b.Text)
		emit(domain.ActionItem{
			Title:          Truncate("Assign an owner: "+text, titleLimit),
			OwnerUserID:    PickOwnerUserID(domain.ActionAssignOwner, "", lead),
			Type:           domain.ActionAssignOwner,
			Reason:         text,
			Due:            domain.DueToday,
			Severity:       domain.SeverityMed,
			SourceEntryIDs: b.SourceEntryIDs,
			LinkedWorkIDs:  b.LinkedWorkIDs,
		})
	}

	for _, e := range in.Entries {
		if !isBlank(e.Today) || !isBlank(e.Progress) {
			continue
		}
		name := displayName(e)
		author := e.AuthorID
		emit(domain.ActionItem{
			Title:          Truncate(fmt.Sprintf("Check in with %s for a status update", name), titleLimit),
			OwnerUserID:    PickOwnerUserID(domain.ActionFollowUpStatus, author, lead),
			TargetUserID:   &author,
			Type:           domain.ActionFollowUpStatus,
			Reason:         fmt.Sprintf("%s has not shared an update", name),
			Due:            domain.DueToday,
			Severity:       domain.SeverityLow,
			SourceEntryIDs: []string{e.ID},
			LinkedWorkIDs:  linkedWorkIDs(e),
		})
	}
	return out
}

var leadRoles = map[string]bool{
	"ADMIN":         true,
	"PO":            true,
	"PRODUCT_OWNER": true,
}

// IsLeadRole reports whether an author role can own routed actions.
func IsLeadRole(role string) bool {
	r := strings.ToUpper(strings.TrimSpace(role))
	r = strings.NewReplacer("-", "_", " ", "_").Replace(r)
	return leadRoles[r]
}

// PickLeadUserID returns the first admin or product owner author, falling back to the first author.
func PickLeadUserID(entries []domain.Entry) string {
	for _, e := range entries {
		if IsLeadRole(e.AuthorRole) && e.AuthorID != "" {
			return e.AuthorID
		}
	}
	if len(entries) > 0 {
		return entries[0].AuthorID
	}
	return ""
}

// PickOwnerUserID routes an action to its accountable owner.
// Help requests stay with the reporter; everything else goes to the project lead.
func PickOwnerUserID(t domain.ActionType, reporterID, leadID string) string {
	if t == domain.ActionRequestHelp && reporterID != "" {
		return reporterID
	}
	if leadID == "" {
		return reporterID
	}
	return leadID
}

func reportingEntry(b domain.Bullet, byID map[string]domain.Entry) (domain.Entry, bool) {
	ids := SortedUnique(b.SourceEntryIDs)
	if len(ids) == 0 {
		return domain.Entry{}, false
	}
	e, ok := byID[ids[0]]
	return e, ok
}

func dependencyTarget(linked []string, entries []domain.Entry) *string {
	wanted := make(map[string]struct{}, len(linked))
	for _, id := range SortedUnique(linked) {
		wanted[id] = struct{}{}
	}
	if len(wanted) == 0 {
		return nil
	}
	match := func(w domain.LinkedWork) bool {
		if _, ok := wanted[w.ID]; ok && w.ID != "" {
			return true
		}
		_, ok := wanted[w.Key]
		return ok && w.Key != ""
	}
	for _, e := range entries {
		for _, group := range [][]domain.LinkedWork{e.Issues, e.Research} {
			for _, w := range group {
				if match(w) && w.AssigneeID != nil && *w.AssigneeID != "" {
					assignee := *w.AssigneeID
					return &assignee
				}
			}
		}
	}
	return nil
}

func displayName(e domain.Entry) string {
	if name := Collapse(e.AuthorName); name != "" {
		return name
	}
	return e.AuthorID
}

func linkedWorkIDs(e domain.Entry) []string {
	ids := make([]string, 0, e.LinkedWorkCount())
	for _, w := range e.Issues {
		ids = append(ids, w.ID)
	}
	for _, w := range e.Research {
		ids = append(ids, w.ID)
	}
	return ids
}

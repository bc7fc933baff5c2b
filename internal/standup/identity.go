package standup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"dailyline/internal/domain"
)

const actionIDPrefix = "action_"

// canonicalAction fixes the serialised key order of an action's meaning.
type canonicalAction struct {
	SummaryID      string   `json:"summary_id"`
	ActionType     string   `json:"action_type"`
	OwnerUserID    string   `json:"owner_user_id"`
	TargetUserID   string   `json:"target_user_id"`
	Title          string   `json:"title"`
	Reason         string   `json:"reason"`
	Due            string   `json:"due"`
	Severity       string   `json:"severity"`
	SourceEntryIDs []string `json:"source_entry_ids"`
	LinkedWorkIDs  []string `json:"linked_work_ids"`
}

// ActionID derives the stable id of an action from its semantic payload.
// The existing ID field is ignored, as is the order of and duplicates within the id lists.
func ActionID(summaryID string, a domain.ActionItem) string {
	target := ""
	if a.TargetUserID != nil {
		target = *a.TargetUserID
	}
	c := canonicalAction{
		SummaryID:      summaryID,
		ActionType:     string(a.Type),
		OwnerUserID:    a.OwnerUserID,
		TargetUserID:   target,
		Title:          strings.TrimSpace(a.Title),
		Reason:         strings.TrimSpace(a.Reason),
		Due:            a.Due,
		Severity:       string(a.Severity),
		SourceEntryIDs: SortedUnique(a.SourceEntryIDs),
		LinkedWorkIDs:  SortedUnique(a.LinkedWorkIDs),
	}
	// Marshalling a struct of strings and string slices cannot fail.
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return actionIDPrefix + hex.EncodeToString(sum[:])[:12]
}

// finalize normalizes an action's text and id lists and assigns its id.
func finalize(summaryID string, a domain.ActionItem) domain.ActionItem {
	a.Title = Collapse(a.Title)
	a.Reason = Collapse(a.Reason)
	a.SourceEntryIDs = SortedUnique(a.SourceEntryIDs)
	a.LinkedWorkIDs = SortedUnique(a.LinkedWorkIDs)
	a.ID = ActionID(summaryID, a)
	return a
}

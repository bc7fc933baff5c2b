package domain

type Project struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

// LinkedWork is an issue or research item referenced from an entry.
type LinkedWork struct {
	ID         string  `json:"id"`
	Key        string  `json:"key,omitempty"`
	Title      string  `json:"title,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// Entry is one person's status for one project-day.
type Entry struct {
	ID         string       `json:"id"`
	ProjectID  string       `json:"project_id"`
	Date       string       `json:"date" format:"date"`
	AuthorID   string       `json:"author_id"`
	AuthorName string       `json:"author_name,omitempty"`
	AuthorRole string       `json:"author_role,omitempty"`
	Progress   string       `json:"progress,omitempty"`
	Today      string       `json:"today,omitempty"`
	Blockers   string       `json:"blockers,omitempty"`
	Complete   bool         `json:"complete"`
	Issues     []LinkedWork `json:"issues,omitempty"`
	Research   []LinkedWork `json:"research,omitempty"`
	CreatedAt  string       `json:"created_at" format:"date-time"`
}

// LinkedWorkCount is the number of issue and research references on the entry.
func (e Entry) LinkedWorkCount() int {
	return len(e.Issues) + len(e.Research)
}

type Bullet struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	SourceEntryIDs []string `json:"source_entry_ids"`
	LinkedWorkIDs  []string `json:"linked_work_ids"`
}

type ActionType string

const (
	ActionUnblockDecision ActionType = "unblock-decision"
	ActionRequestHelp     ActionType = "request-help"
	ActionFollowUpStatus  ActionType = "follow-up-status"
	ActionAssignOwner     ActionType = "assign-owner"
	ActionEscalateBlocker ActionType = "escalate-blocker"
	ActionClarifyScope    ActionType = "clarify-scope"
)

type Severity string

const (
	SeverityLow  Severity = "low"
	SeverityMed  Severity = "med"
	SeverityHigh Severity = "high"
)

const (
	DueToday    = "today"
	DueTomorrow = "tomorrow"
)

type ActionItem struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	OwnerUserID    string     `json:"owner_user_id"`
	TargetUserID   *string    `json:"target_user_id,omitempty"`
	Type           ActionType `json:"action_type" enum:"unblock-decision,request-help,follow-up-status,assign-owner,escalate-blocker,clarify-scope"`
	Reason         string     `json:"reason"`
	Due            string     `json:"due"`
	Severity       Severity   `json:"severity" enum:"low,med,high"`
	SourceEntryIDs []string   `json:"source_entry_ids"`
	LinkedWorkIDs  []string   `json:"linked_work_ids"`
}

type OpenQuestion struct {
	ID             string   `json:"id"`
	Question       string   `json:"question_text"`
	SourceEntryIDs []string `json:"source_entry_ids"`
	Priority       string   `json:"priority" enum:"low,med,high"`
}

type QualityMetrics struct {
	CompletionRate        int `json:"completion_rate"`
	MissingLinkedWorkRate int `json:"missing_linked_work_rate"`
	MissingBlockersRate   int `json:"missing_blockers_rate"`
	VagueUpdateRate       int `json:"vague_update_rate"`
}

type QualitySignal struct {
	QualityScore int            `json:"quality_score"`
	Metrics      QualityMetrics `json:"metrics"`
}

// Summary is the structured result of one project-day standup.
type Summary struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	Date            string         `json:"date" format:"date"`
	OverallProgress string         `json:"overall_progress,omitempty"`
	Achievements    []Bullet       `json:"achievements"`
	Blockers        []Bullet       `json:"blockers"`
	Dependencies    []Bullet       `json:"dependencies"`
	AssignmentGaps  []Bullet       `json:"assignment_gaps"`
	Actions         []ActionItem   `json:"actions"`
	OpenQuestions   []OpenQuestion `json:"open_questions"`
	Signals         *QualitySignal `json:"signals,omitempty"`
	GeneratedAt     string         `json:"generated_at,omitempty" format:"date-time"`
}

const (
	ActionStateOpen      = "open"
	ActionStateRead      = "read"
	ActionStateDismissed = "dismissed"
)

// ActionState is the read/dismiss state tracked against a stable action id.
type ActionState struct {
	ProjectID string `json:"project_id"`
	ActionID  string `json:"action_id"`
	State     string `json:"state" enum:"open,read,dismissed"`
	ActorID   string `json:"actor_id"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

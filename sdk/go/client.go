package dailylinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Dailyline HTTP API client.
type Client struct {
	BaseURL     string
	ProjectID   string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, projectID string) *Client {
	return &Client{
		BaseURL:   baseURL,
		ProjectID: projectID,
		Timeout:   10 * time.Second,
	}
}

// LinkedWork is an issue or research reference.
type LinkedWork struct {
	ID         string  `json:"id"`
	Key        string  `json:"key,omitempty"`
	Title      string  `json:"title,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// Entry is one person's standup update.
type Entry struct {
	ID         string       `json:"id,omitempty"`
	ProjectID  string       `json:"project_id,omitempty"`
	Date       string       `json:"date,omitempty"`
	AuthorID   string       `json:"author_id,omitempty"`
	AuthorName string       `json:"author_name,omitempty"`
	AuthorRole string       `json:"author_role,omitempty"`
	Progress   string       `json:"progress,omitempty"`
	Today      string       `json:"today,omitempty"`
	Blockers   string       `json:"blockers,omitempty"`
	Complete   bool         `json:"complete,omitempty"`
	Issues     []LinkedWork `json:"issues,omitempty"`
	Research   []LinkedWork `json:"research,omitempty"`
	CreatedAt  string       `json:"created_at,omitempty"`
}

type Bullet struct {
	ID             string   `json:"id,omitempty"`
	Text           string   `json:"text"`
	SourceEntryIDs []string `json:"source_entry_ids,omitempty"`
	LinkedWorkIDs  []string `json:"linked_work_ids,omitempty"`
}

type OpenQuestion struct {
	ID             string   `json:"id,omitempty"`
	Question       string   `json:"question_text"`
	SourceEntryIDs []string `json:"source_entry_ids,omitempty"`
	Priority       string   `json:"priority,omitempty"`
}

// Action is a derived follow-up with its tracked state.
type Action struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	OwnerUserID    string   `json:"owner_user_id"`
	TargetUserID   *string  `json:"target_user_id,omitempty"`
	Type           string   `json:"action_type"`
	Reason         string   `json:"reason"`
	Due            string   `json:"due"`
	Severity       string   `json:"severity"`
	SourceEntryIDs []string `json:"source_entry_ids"`
	LinkedWorkIDs  []string `json:"linked_work_ids"`
	State          string   `json:"state,omitempty"`
}

type Quality struct {
	QualityScore int `json:"quality_score"`
	Metrics      struct {
		CompletionRate        int `json:"completion_rate"`
		MissingLinkedWorkRate int `json:"missing_linked_work_rate"`
		MissingBlockersRate   int `json:"missing_blockers_rate"`
		VagueUpdateRate       int `json:"vague_update_rate"`
	} `json:"metrics"`
}

// Summary is the structured standup result (partial).
type Summary struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	Date            string         `json:"date"`
	OverallProgress string         `json:"overall_progress"`
	Achievements    []Bullet       `json:"achievements"`
	Blockers        []Bullet       `json:"blockers"`
	Dependencies    []Bullet       `json:"dependencies"`
	AssignmentGaps  []Bullet       `json:"assignment_gaps"`
	Actions         []Action       `json:"actions"`
	OpenQuestions   []OpenQuestion `json:"open_questions"`
	Signals         *Quality       `json:"signals,omitempty"`
	GeneratedAt     string         `json:"generated_at"`
}

// SummaryInput is upstream summarizer output. A zero value lets the server seed bullets from entries.
type SummaryInput struct {
	OverallProgress string         `json:"overall_progress,omitempty"`
	Achievements    []Bullet       `json:"achievements,omitempty"`
	Blockers        []Bullet       `json:"blockers,omitempty"`
	Dependencies    []Bullet       `json:"dependencies,omitempty"`
	AssignmentGaps  []Bullet       `json:"assignment_gaps,omitempty"`
	OpenQuestions   []OpenQuestion `json:"open_questions,omitempty"`
}

type Digest struct {
	ProjectID string `json:"project_id"`
	Date      string `json:"date"`
	Audience  string `json:"audience"`
	Text      string `json:"text"`
}

// DigestOptions override the project's digest defaults. IncludeReferences nil keeps the default.
type DigestOptions struct {
	Audience          string
	IncludeReferences *bool
	SprintName        string
	SprintDate        string
}

type ActionState struct {
	ProjectID string `json:"project_id"`
	ActionID  string `json:"action_id"`
	State     string `json:"state"`
	ActorID   string `json:"actor_id"`
	UpdatedAt string `json:"updated_at"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// SubmitEntry records an entry for date. An empty AuthorID means the authenticated actor.
func (c *Client) SubmitEntry(ctx context.Context, date string, entry Entry) (Entry, error) {
	var resp Entry
	err := c.do(ctx, http.MethodPost, c.standupPath(date, "entries"), entry, &resp)
	return resp, err
}

func (c *Client) Entries(ctx context.Context, date string) ([]Entry, error) {
	var resp struct {
		Items []Entry `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, c.standupPath(date, "entries"), nil, &resp)
	return resp.Items, err
}

// BuildSummary builds (or rebuilds) the day's summary and derives actions.
func (c *Client) BuildSummary(ctx context.Context, date string, input *SummaryInput) (Summary, error) {
	var body any
	if input != nil {
		body = input
	}
	var resp Summary
	err := c.do(ctx, http.MethodPost, c.standupPath(date, "summary"), body, &resp)
	return resp, err
}

func (c *Client) Summary(ctx context.Context, date string) (Summary, error) {
	var resp Summary
	err := c.do(ctx, http.MethodGet, c.standupPath(date, "summary"), nil, &resp)
	return resp, err
}

// Digest renders the stored summary for an audience.
func (c *Client) Digest(ctx context.Context, date string, opts DigestOptions) (Digest, error) {
	q := url.Values{}
	if opts.Audience != "" {
		q.Set("audience", opts.Audience)
	}
	if opts.IncludeReferences != nil {
		q.Set("include_references", fmt.Sprintf("%t", *opts.IncludeReferences))
	}
	if opts.SprintName != "" {
		q.Set("sprint_name", opts.SprintName)
	}
	if opts.SprintDate != "" {
		q.Set("sprint_date", opts.SprintDate)
	}
	endpoint := c.standupPath(date, "digest")
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp Digest
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) Actions(ctx context.Context, date string, includeDismissed bool) ([]Action, error) {
	endpoint := c.standupPath(date, "actions")
	if includeDismissed {
		endpoint += "?include_dismissed=true"
	}
	var resp struct {
		Items []Action `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// SetActionState marks an action open, read or dismissed.
func (c *Client) SetActionState(ctx context.Context, actionID, state string) (ActionState, error) {
	var resp ActionState
	endpoint := c.projectPath(fmt.Sprintf("actions/%s/state", url.PathEscape(actionID)))
	err := c.do(ctx, http.MethodPut, endpoint, map[string]string{"state": state}, &resp)
	return resp, err
}

func (c *Client) Quality(ctx context.Context, date string) (Quality, error) {
	var resp Quality
	err := c.do(ctx, http.MethodGet, c.standupPath(date, "quality"), nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := c.projectPath("events")
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) standupPath(date, p string) string {
	return c.projectPath(fmt.Sprintf("standups/%s/%s", url.PathEscape(date), strings.TrimLeft(p, "/")))
}

func (c *Client) projectPath(p string) string {
	project := url.PathEscape(c.ProjectID)
	return fmt.Sprintf("v0/projects/%s/%s", project, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

package server

import (
	"encoding/json"

	"dailyline/internal/domain"
	"dailyline/internal/engine"
)

// Request payloads

type SubmitEntryRequest struct {
	ID         string              `json:"id,omitempty"`
	AuthorID   string              `json:"author_id,omitempty" doc:"Defaults to the authenticated actor"`
	AuthorName string              `json:"author_name,omitempty"`
	AuthorRole string              `json:"author_role,omitempty" example:"DEV"`
	Progress   string              `json:"progress,omitempty"`
	Today      string              `json:"today,omitempty"`
	Blockers   string              `json:"blockers,omitempty"`
	Complete   bool                `json:"complete,omitempty"`
	Issues     []domain.LinkedWork `json:"issues,omitempty"`
	Research   []domain.LinkedWork `json:"research,omitempty"`
}

type BulletRequest struct {
	ID             string   `json:"id,omitempty"`
	Text           string   `json:"text"`
	SourceEntryIDs []string `json:"source_entry_ids,omitempty"`
	LinkedWorkIDs  []string `json:"linked_work_ids,omitempty"`
}

type QuestionRequest struct {
	ID             string   `json:"id,omitempty"`
	Question       string   `json:"question_text"`
	SourceEntryIDs []string `json:"source_entry_ids,omitempty"`
	Priority       string   `json:"priority,omitempty" enum:"low,med,high"`
}

// BuildSummaryRequest carries upstream summarizer output. An empty request seeds bullets from entries.
type BuildSummaryRequest struct {
	OverallProgress string            `json:"overall_progress,omitempty"`
	Achievements    []BulletRequest   `json:"achievements,omitempty"`
	Blockers        []BulletRequest   `json:"blockers,omitempty"`
	Dependencies    []BulletRequest   `json:"dependencies,omitempty"`
	AssignmentGaps  []BulletRequest   `json:"assignment_gaps,omitempty"`
	OpenQuestions   []QuestionRequest `json:"open_questions,omitempty"`
}

type SetActionStateRequest struct {
	State string `json:"state" enum:"open,read,dismissed"`
}

type DevLoginRequest struct {
	ActorID     string   `json:"actor_id"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Response payloads

type EntryListResponse struct {
	Items []domain.Entry `json:"items"`
}

type DigestResponse struct {
	ProjectID string `json:"project_id"`
	Date      string `json:"date" format:"date"`
	Audience  string `json:"audience" enum:"stakeholder,team-detailed,sprint-snapshot"`
	Text      string `json:"text"`
}

type ActionListResponse struct {
	Items []engine.ActionView `json:"items"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type WhoAmIResponse struct {
	ActorID     string   `json:"actor_id"`
	Source      string   `json:"source"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

func eventResponse(evt domain.Event) EventResponse {
	resp := EventResponse{
		ID:         evt.ID,
		TS:         evt.TS,
		Type:       evt.Type,
		ProjectID:  evt.ProjectID,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
	}
	if evt.Payload != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(evt.Payload), &payload); err == nil {
			resp.Payload = payload
		}
	}
	return resp
}

func toBullets(in []BulletRequest) []domain.Bullet {
	out := make([]domain.Bullet, 0, len(in))
	for _, b := range in {
		out = append(out, domain.Bullet{ID: b.ID, Text: b.Text, SourceEntryIDs: b.SourceEntryIDs, LinkedWorkIDs: b.LinkedWorkIDs})
	}
	return out
}

func toQuestions(in []QuestionRequest) []domain.OpenQuestion {
	out := make([]domain.OpenQuestion, 0, len(in))
	for _, q := range in {
		out = append(out, domain.OpenQuestion{ID: q.ID, Question: q.Question, SourceEntryIDs: q.SourceEntryIDs, Priority: q.Priority})
	}
	return out
}

func nonNilSlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types appended by the engine.
const (
	TypeProjectInit       = "project.init"
	TypeConfigUpdated     = "project.config.updated"
	TypeEntrySubmitted    = "entry.submitted"
	TypeStandupSummarized = "standup.summarized"
	TypeActionPrefix      = "action."
	TypeAPIKeyCreated     = "apikey.created"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

type nonSerializable struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MarshalPayload encodes v as JSON. Values that cannot be encoded are replaced by a
// NON_SERIALIZABLE_JSON sentinel so the write still happens.
func MarshalPayload(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		fallback, _ := json.Marshal(nonSerializable{Error: "NON_SERIALIZABLE_JSON", Message: err.Error()})
		return string(fallback)
	}
	return string(data)
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		ts, evtType, nullable(projectID), entityKind, nullable(entityID), actorID, MarshalPayload(payload))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

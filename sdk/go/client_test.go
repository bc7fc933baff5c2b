package dailylinesdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type recorded struct {
	method string
	path   string
	query  string
	apiKey string
	body   map[string]any
}

func newRecorder(t *testing.T, status int, reply any) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.apiKey = r.Header.Get("X-Api-Key")
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestSubmitEntry(t *testing.T) {
	srv, rec := newRecorder(t, http.StatusCreated, Entry{ID: "e1", AuthorID: "u1"})
	c := New(srv.URL+"/", "squad")
	c.APIKey = "dl_key"
	got, err := c.SubmitEntry(context.Background(), "2026-10-15", Entry{Progress: "built export", Complete: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.ID != "e1" {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if rec.method != http.MethodPost || rec.path != "/v0/projects/squad/standups/2026-10-15/entries" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.apiKey != "dl_key" || rec.body["progress"] != "built export" {
		t.Fatalf("unexpected request data: key=%q body=%v", rec.apiKey, rec.body)
	}
}

func TestBuildSummaryWithoutInputSendsNoBody(t *testing.T) {
	srv, rec := newRecorder(t, http.StatusOK, Summary{ID: "s1", Actions: []Action{{ID: "action_0123456789ab"}}})
	c := New(srv.URL, "squad")
	s, err := c.BuildSummary(context.Background(), "2026-10-15", nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(s.Actions) != 1 || rec.body != nil {
		t.Fatalf("unexpected summary %+v body %v", s, rec.body)
	}
}

func TestDigestQuery(t *testing.T) {
	srv, rec := newRecorder(t, http.StatusOK, Digest{Audience: "stakeholder", Text: "Standup update"})
	c := New(srv.URL, "squad")
	refs := true
	d, err := c.Digest(context.Background(), "2026-10-15", DigestOptions{Audience: "stakeholder", IncludeReferences: &refs})
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if d.Text != "Standup update" || rec.query != "audience=stakeholder&include_references=true" {
		t.Fatalf("unexpected digest %+v query %q", d, rec.query)
	}
}

func TestSetActionState(t *testing.T) {
	srv, rec := newRecorder(t, http.StatusOK, ActionState{ActionID: "action_0123456789ab", State: "read"})
	c := New(srv.URL, "squad")
	st, err := c.SetActionState(context.Background(), "action_0123456789ab", "read")
	if err != nil {
		t.Fatalf("set state: %v", err)
	}
	if st.State != "read" || rec.method != http.MethodPut || rec.path != "/v0/projects/squad/actions/action_0123456789ab/state" {
		t.Fatalf("unexpected %s %s -> %+v", rec.method, rec.path, st)
	}
}

func TestEventsPageQuery(t *testing.T) {
	srv, rec := newRecorder(t, http.StatusOK, PaginatedEvents{Items: []Event{{ID: 7, Type: "entry.submitted"}}, NextCursor: "7"})
	c := New(srv.URL, "squad")
	page, err := c.EventsPage(context.Background(), 1, "9")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if page.NextCursor != "7" || rec.query != "cursor=9&limit=1" {
		t.Fatalf("unexpected page %+v query %q", page, rec.query)
	}
}

func TestAPIError(t *testing.T) {
	srv, _ := newRecorder(t, http.StatusForbidden, map[string]any{"error": map[string]any{"code": "forbidden"}})
	c := New(srv.URL, "squad")
	_, err := c.Quality(context.Background(), "2026-10-15")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected APIError 403, got %v", err)
	}
}

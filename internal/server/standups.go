package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"dailyline/internal/domain"
	"dailyline/internal/engine"
	"dailyline/internal/engine/auth"
)

type standupPath struct {
	ProjectID string `path:"project_id"`
	Date      string `path:"date" doc:"Standup date, YYYY-MM-DD"`
}

var writeErrors = []int{
	http.StatusBadRequest,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusInternalServerError,
}

func registerEntries(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-entry",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/standups/{date}/entries",
		Summary:       "Submit a standup entry",
		DefaultStatus: http.StatusCreated,
		Errors:        append(writeErrors, http.StatusConflict),
	}, func(ctx context.Context, input *struct {
		standupPath
		Body SubmitEntryRequest `json:"body"`
	}) (*struct {
		Body domain.Entry `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupWrite); err != nil {
			return nil, handleError(err)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		author := strings.TrimSpace(input.Body.AuthorID)
		if author == "" {
			author = principal.ActorID
		}
		if author != principal.ActorID {
			if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupWriteOthers); err != nil {
				return nil, handleError(err)
			}
		}
		ent, err := e.SubmitEntry(ctx, engine.EntrySubmitOptions{
			ID:         input.Body.ID,
			ProjectID:  input.ProjectID,
			Date:       input.Date,
			AuthorID:   author,
			AuthorName: input.Body.AuthorName,
			AuthorRole: input.Body.AuthorRole,
			Progress:   input.Body.Progress,
			Today:      input.Body.Today,
			Blockers:   input.Body.Blockers,
			Complete:   input.Body.Complete,
			Issues:     input.Body.Issues,
			Research:   input.Body.Research,
			ActorID:    principal.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Entry `json:"body"`
		}{Body: ent}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-entries",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/standups/{date}/entries",
		Summary:     "List entries for a standup day",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *standupPath) (*struct {
		Body EntryListResponse `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupRead); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListEntries(ctx, input.ProjectID, input.Date)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Entry{}
		}
		return &struct {
			Body EntryListResponse `json:"body"`
		}{Body: EntryListResponse{Items: items}}, nil
	})
}

func registerSummaries(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "build-summary",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/standups/{date}/summary",
		Summary:     "Build the standup summary and derive actions",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		standupPath
		Body *BuildSummaryRequest `json:"body,omitempty"`
	}) (*struct {
		Body domain.Summary `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupWrite); err != nil {
			return nil, handleError(err)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.BuildOptions{ProjectID: input.ProjectID, Date: input.Date, ActorID: principal.ActorID}
		if body := input.Body; body != nil {
			opts.OverallProgress = body.OverallProgress
			opts.Achievements = toBullets(body.Achievements)
			opts.Blockers = toBullets(body.Blockers)
			opts.Dependencies = toBullets(body.Dependencies)
			opts.AssignmentGaps = toBullets(body.AssignmentGaps)
			opts.OpenQuestions = toQuestions(body.OpenQuestions)
		}
		s, err := e.BuildSummary(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Summary `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-summary",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/standups/{date}/summary",
		Summary:     "Get the stored standup summary",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *standupPath) (*struct {
		Body domain.Summary `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupRead); err != nil {
			return nil, handleError(err)
		}
		s, err := e.GetSummary(ctx, input.ProjectID, input.Date)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Summary `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "render-digest",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/standups/{date}/digest",
		Summary:     "Render the summary as a plain-text digest",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		standupPath
		Audience          string `query:"audience" doc:"stakeholder, team-detailed or sprint-snapshot"`
		IncludeReferences string `query:"include_references" doc:"true or false; defaults to project config"`
		SprintName        string `query:"sprint_name"`
		SprintDate        string `query:"sprint_date"`
	}) (*struct {
		Body DigestResponse `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupRead); err != nil {
			return nil, handleError(err)
		}
		opts := engine.DigestOptions{
			ProjectID:  input.ProjectID,
			Date:       input.Date,
			Audience:   input.Audience,
			SprintName: input.SprintName,
			SprintDate: input.SprintDate,
		}
		if raw := strings.TrimSpace(input.IncludeReferences); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid include_references", map[string]any{"include_references": raw})
			}
			opts.IncludeReferences = &v
		}
		text, audience, err := e.RenderDigest(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		date, _ := engine.ParseDate(input.Date)
		return &struct {
			Body DigestResponse `json:"body"`
		}{Body: DigestResponse{ProjectID: input.ProjectID, Date: date, Audience: string(audience), Text: text}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "standup-quality",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/standups/{date}/quality",
		Summary:     "Score the day's entries",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *standupPath) (*struct {
		Body domain.QualitySignal `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupRead); err != nil {
			return nil, handleError(err)
		}
		q, err := e.Quality(ctx, input.ProjectID, input.Date)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.QualitySignal `json:"body"`
		}{Body: q}, nil
	})
}

func registerActions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-actions",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/standups/{date}/actions",
		Summary:     "List derived actions with their state",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		standupPath
		IncludeDismissed bool `query:"include_dismissed"`
	}) (*struct {
		Body ActionListResponse `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermStandupRead); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListActions(ctx, input.ProjectID, input.Date, input.IncludeDismissed)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActionListResponse `json:"body"`
		}{Body: ActionListResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-action-state",
		Method:      http.MethodPut,
		Path:        "/projects/{project_id}/actions/{action_id}/state",
		Summary:     "Mark an action open, read or dismissed",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string                `path:"project_id"`
		ActionID  string                `path:"action_id"`
		Body      SetActionStateRequest `json:"body"`
	}) (*struct {
		Body domain.ActionState `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.ProjectID, auth.PermActionsUpdate); err != nil {
			return nil, handleError(err)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.SetActionState(ctx, input.ProjectID, input.ActionID, input.Body.State, principal.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ActionState `json:"body"`
		}{Body: st}, nil
	})
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dailyline/internal/domain"
	"dailyline/internal/engine"
	"dailyline/internal/standup"
)

func entryCmd() *cobra.Command {
	ent := &cobra.Command{Use: "entry", Short: "Record and list standup entries"}
	ent.AddCommand(entryAddCmd())
	ent.AddCommand(entryListCmd())
	return ent
}

func entryAddCmd() *cobra.Command {
	var opts engine.EntrySubmitOptions
	var issues, research []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit one person's standup entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.Issues, err = parseLinkedWork(issues); err != nil {
				return fmt.Errorf("--issue: %w", err)
			}
			if opts.Research, err = parseLinkedWork(research); err != nil {
				return fmt.Errorf("--research: %w", err)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				opts.ProjectID = projectID
				opts.ActorID = viper.GetString("actor-id")
				if opts.Date == "" {
					opts.Date = e.Today()
				}
				if opts.AuthorID == "" {
					opts.AuthorID = opts.ActorID
				}
				ent, err := e.SubmitEntry(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(ent)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Date, "date", "", "standup date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "entry id (default generated)")
	cmd.Flags().StringVar(&opts.AuthorID, "author", "", "author user id (default --actor-id)")
	cmd.Flags().StringVar(&opts.AuthorName, "name", "", "author display name (default from team config)")
	cmd.Flags().StringVar(&opts.AuthorRole, "role", "", "author role (default from team config)")
	cmd.Flags().StringVar(&opts.Progress, "progress", "", "what was done")
	cmd.Flags().StringVar(&opts.Today, "today", "", "what is planned")
	cmd.Flags().StringVar(&opts.Blockers, "blockers", "", "what is in the way")
	cmd.Flags().BoolVar(&opts.Complete, "complete", false, "mark the entry complete")
	cmd.Flags().StringArrayVar(&issues, "issue", nil, "linked issue ID[:KEY[:ASSIGNEE]] (repeatable)")
	cmd.Flags().StringArrayVar(&research, "research", nil, "linked research ID[:KEY[:ASSIGNEE]] (repeatable)")
	return cmd
}

func entryListCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				if date == "" {
					date = e.Today()
				}
				items, err := e.ListEntries(ctx, projectID, date)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Author", "Role", "Complete", "Progress", "Blockers", "Linked")
				for _, ent := range items {
					tw.AppendRow([]any{ent.ID, ent.AuthorName, ent.AuthorRole, ent.Complete, standup.Truncate(standup.Collapse(ent.Progress), 40), standup.Truncate(standup.Collapse(ent.Blockers), 40), ent.LinkedWorkCount()})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "standup date YYYY-MM-DD (default today, UTC)")
	return cmd
}

// summaryInput is the JSON accepted by 'standup build --input', matching the API request body.
type summaryInput struct {
	OverallProgress string                `json:"overall_progress"`
	Achievements    []domain.Bullet       `json:"achievements"`
	Blockers        []domain.Bullet       `json:"blockers"`
	Dependencies    []domain.Bullet       `json:"dependencies"`
	AssignmentGaps  []domain.Bullet       `json:"assignment_gaps"`
	OpenQuestions   []domain.OpenQuestion `json:"open_questions"`
}

func standupCmd() *cobra.Command {
	st := &cobra.Command{Use: "standup", Short: "Build and show standup summaries"}
	st.AddCommand(standupBuildCmd())
	st.AddCommand(standupShowCmd())
	return st
}

func standupBuildCmd() *cobra.Command {
	var date, input string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the day's summary and derive actions",
		Long:  "Without --input the summary bullets are seeded from each entry's progress and blockers. With --input (a file, or - for stdin) the summarizer output is used as given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in summaryInput
			if input != "" {
				data, err := readInput(input)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &in); err != nil {
					return fmt.Errorf("invalid summary input: %w", err)
				}
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				if date == "" {
					date = e.Today()
				}
				s, err := e.BuildSummary(ctx, engine.BuildOptions{
					ProjectID:       projectID,
					Date:            date,
					OverallProgress: in.OverallProgress,
					Achievements:    in.Achievements,
					Blockers:        in.Blockers,
					Dependencies:    in.Dependencies,
					AssignmentGaps:  in.AssignmentGaps,
					OpenQuestions:   in.OpenQuestions,
					ActorID:         viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "standup date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&input, "input", "", "summarizer output JSON file, or - for stdin")
	return cmd
}

func standupShowCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				if date == "" {
					date = e.Today()
				}
				s, err := e.GetSummary(ctx, projectID, date)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "standup date YYYY-MM-DD (default today, UTC)")
	return cmd
}

func digestCmd() *cobra.Command {
	var opts engine.DigestOptions
	var refs bool
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Render the day's summary as a plain-text digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("refs") {
				opts.IncludeReferences = &refs
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				opts.ProjectID = projectID
				if opts.Date == "" {
					opts.Date = e.Today()
				}
				text, audience, err := e.RenderDigest(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"project_id": projectID, "date": opts.Date, "audience": audience, "text": text})
				}
				fmt.Print(text)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.Date, "date", "", "standup date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&opts.Audience, "audience", "", "stakeholder, team-detailed or sprint-snapshot (default from config)")
	cmd.Flags().BoolVar(&refs, "refs", false, "append source references to items")
	cmd.Flags().StringVar(&opts.SprintName, "sprint-name", "", "sprint name for sprint-snapshot")
	cmd.Flags().StringVar(&opts.SprintDate, "sprint-date", "", "sprint label date for sprint-snapshot")
	return cmd
}

func actionsCmd() *cobra.Command {
	act := &cobra.Command{Use: "actions", Short: "List and triage derived actions"}
	act.AddCommand(actionsListCmd())
	for _, st := range []struct{ use, state, short string }{
		{"read", domain.ActionStateRead, "Mark an action as read"},
		{"dismiss", domain.ActionStateDismissed, "Dismiss an action"},
		{"reopen", domain.ActionStateOpen, "Reopen an action"},
	} {
		act.AddCommand(actionStateCmd(st.use, st.state, st.short))
	}
	return act
}

func actionsListCmd() *cobra.Command {
	var date string
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the day's actions with their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				if date == "" {
					date = e.Today()
				}
				items, err := e.ListActions(ctx, projectID, date, all)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Severity", "Due", "Type", "Owner", "Title", "State")
				for _, a := range items {
					tw.AppendRow([]any{a.ID, a.Severity, a.Due, a.Type, a.OwnerUserID, a.Title, a.State})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "standup date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().BoolVar(&all, "all", false, "include dismissed actions")
	return cmd
}

func actionStateCmd(use, state, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <action-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				st, err := e.SetActionState(ctx, projectID, args[0], state, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(st)
			})
		},
	}
}

func qualityCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Score the day's entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				if date == "" {
					date = e.Today()
				}
				q, err := e.Quality(ctx, projectID, date)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(q)
				}
				tw := newTable("Metric", "Value")
				tw.AppendRow([]any{"quality score", q.QualityScore})
				tw.AppendRow([]any{"completion rate %", q.Metrics.CompletionRate})
				tw.AppendRow([]any{"missing linked work %", q.Metrics.MissingLinkedWorkRate})
				tw.AppendRow([]any{"missing blockers %", q.Metrics.MissingBlockersRate})
				tw.AppendRow([]any{"vague updates %", q.Metrics.VagueUpdateRate})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "standup date YYYY-MM-DD (default today, UTC)")
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, projectID string) error {
				events, err := e.Repo.LatestEvents(ctx, n, 0, projectID, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := newTable("ID", "TS", "Type", "Entity", "Actor")
				for _, evt := range events {
					tw.AppendRow([]any{evt.ID, evt.TS, evt.Type, evt.EntityKind + ":" + evt.EntityID, evt.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	return cmd
}

// parseLinkedWork reads ID[:KEY[:ASSIGNEE]] references.
func parseLinkedWork(values []string) ([]domain.LinkedWork, error) {
	var out []domain.LinkedWork
	for _, v := range values {
		parts := strings.SplitN(v, ":", 3)
		lw := domain.LinkedWork{ID: strings.TrimSpace(parts[0])}
		if lw.ID == "" {
			return nil, fmt.Errorf("invalid reference %q: id required", v)
		}
		if len(parts) > 1 {
			lw.Key = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			if assignee := strings.TrimSpace(parts[2]); assignee != "" {
				lw.AssigneeID = &assignee
			}
		}
		out = append(out, lw)
	}
	return out, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

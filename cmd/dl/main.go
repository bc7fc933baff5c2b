package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dailyline/internal/app"
	"dailyline/internal/db"
	"dailyline/internal/engine"
	"dailyline/internal/migrate"
	"dailyline/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "dl",
	Short: "Dailyline CLI",
	Long: `Dailyline turns daily standup entries into a structured summary, ranked follow-up actions,
a data quality score and plain-text digests.
- Workspace: the .dailyline directory holding the database; team and digest config live in the DB and are imported from dailyline.yml.
- Entry: one person's update for a day (progress, today, blockers, linked issues).
- Summary: the day's achievements, blockers, dependencies, gaps and open questions, built with 'dl standup build'.
- Actions: at most 15 follow-ups derived from the summary, each with a stable id you can mark read or dismissed.
- Digest: the summary rendered for stakeholders, the team, or a sprint snapshot.
- Event log: every write is recorded, view with 'dl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := filepath.Join(viper.GetString("workspace"), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: read %s: %v", envFile, err)
	}
	viper.SetEnvPrefix("DAILYLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("project", "", "project id (overrides DAILYLINE_DEFAULT_PROJECT)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(entryCmd())
	rootCmd.AddCommand(standupCmd())
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(actionsCmd())
	rootCmd.AddCommand(qualityCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- helpers ---

func activeProject() string {
	if p := strings.TrimSpace(viper.GetString("project")); p != "" {
		return p
	}
	return strings.TrimSpace(viper.GetString("default_project"))
}

func openEngine() (engine.Engine, func(), error) {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, err
	}
	return engine.New(conn, nil), func() { conn.Close() }, nil
}

// withEngine resolves the active project and hands fn an engine bound to its config.
func withEngine(ctx context.Context, fn func(context.Context, engine.Engine, string) error) error {
	e, closeFn, err := openEngine()
	if err != nil {
		return err
	}
	defer closeFn()
	projectID, cfg, err := app.ResolveProjectAndConfig(ctx, e, viper.GetString("workspace"), activeProject(), viper.GetString("actor-id"))
	if err != nil {
		return err
	}
	e.Config = cfg
	return fn(ctx, e, projectID)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	e, closeFn, err := openEngine()
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, e.Repo)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row(header))
	return tw
}

// setEnvValue writes key=value into a dotenv file, keeping other keys.
func setEnvValue(path, key, value string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		values = map[string]string{}
	}
	values[key] = value
	return godotenv.Write(values, path)
}

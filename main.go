package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fitleague/internal/chat"
	"fitleague/internal/config"
	"fitleague/internal/jsonbin"
	"fitleague/internal/logger"
	"fitleague/internal/service"
	"fitleague/internal/store"
	"fitleague/internal/transcript"
	"fitleague/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fitleague",
		Short:         "Workout log and monthly league for a fitness chat group",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.fitleague/config.json)")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newBackfillCmd(&configPath))
	root.AddCommand(newViewCmd(&configPath))
	root.AddCommand(newInitCmd(&configPath))
	return root
}

// app holds the wired services for one invocation
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	loc   *time.Location
	db    *store.Store
	daily *service.DailyService
	query *service.QueryService
}

func (a *app) Close() {
	_ = a.log.Sync()
	a.db.Close()
}

// loadApp reads the config and wires every service. Without a webhook
// nothing is posted. It returns nil, nil when there was no config and an
// example was written instead.
func loadApp(out io.Writer, configPath string, log *zap.Logger) (*app, error) {
	path, err := config.ResolvePath(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrNoConfig) {
		_, _ = fmt.Fprintln(out, "No config file found. Creating example config...")
		if err := config.CreateExample(path); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "\nPlease edit the config file at:\n  %s\n\n", path)
		_, _ = fmt.Fprintln(out, "You need the group name, the chat export path and your JSONBin credentials.")
		_, _ = fmt.Fprintln(out, "Create a bin at: https://jsonbin.io")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed (edit %s): %w", path, err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.New(cfg.Log.Env)
	}

	db, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var states service.StateStore = db
	if cfg.Storage.Backend == config.BackendJSONBin {
		states = jsonbin.NewClient(cfg.Storage.JSONBin.BaseURL, cfg.Storage.JSONBin.BinID, cfg.Storage.JSONBin.MasterKey, nil)
	}

	var poster chat.Poster
	if cfg.Chat.WebhookURL != "" {
		poster = chat.NewWebhookPoster(chat.Options{
			URL:          cfg.Chat.WebhookURL,
			Group:        cfg.Group.Name,
			AccessToken:  cfg.Chat.AccessToken,
			TokenURL:     cfg.Chat.TokenURL,
			ClientID:     cfg.Chat.ClientID,
			ClientSecret: cfg.Chat.ClientSecret,
			Timeout:      cfg.ChatTimeout(),
		}, log)
	}

	source := transcript.NewExportSource(cfg.Transcript.ExportPath, loc)
	ids := service.IDStrategy(cfg.Ingest.RecordIDs)

	log.Debug("services wired",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("record_ids", cfg.Ingest.RecordIDs),
		zap.Bool("webhook", cfg.Chat.WebhookURL != ""),
	)

	return &app{
		cfg:   cfg,
		log:   log,
		loc:   loc,
		db:    db,
		daily: service.NewDailyService(states, source, poster, db, ids, loc, log),
		query: service.NewQueryService(states, db, loc),
	}, nil
}

// parseDay parses a --date value, defaulting to today in the group's timezone
func parseDay(a *app, value string) (time.Time, error) {
	if value == "" {
		return a.daily.Today(), nil
	}
	return store.ParseDay(value, a.loc)
}

func newRunCmd(configPath *string) *cobra.Command {
	var date string
	var noPost, showLeague bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest one day, rebuild its month's league and post the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.OutOrStdout(), *configPath, nil)
			if err != nil || a == nil {
				return err
			}
			defer a.Close()

			day, err := parseDay(a, date)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			res, err := a.daily.RunDay(ctx, day, !noPost)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, res.Summary)
			if !noPost && !a.daily.CanPost() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "\nNo chat.webhook_url configured, summary not posted.")
			}
			if showLeague {
				_, _ = fmt.Fprintf(out, "\n%s\n", res.LeagueText)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to ingest as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&noPost, "no-post", false, "do not post the summary to the group")
	cmd.Flags().BoolVar(&showLeague, "league", false, "also print the month's league")
	return cmd
}

func newBackfillCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill [SINCE]",
		Short: "Ingest every day from SINCE to today without posting",
		Long: "Ingest every day from SINCE (YYYY-MM-DD) up to today, oldest first, without posting.\n" +
			"Without SINCE, resume after the last ingested day, or start 30 days ago.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.OutOrStdout(), *configPath, nil)
			if err != nil || a == nil {
				return err
			}
			defer a.Close()

			since := a.daily.DefaultSince()
			if len(args) == 1 {
				if since, err = store.ParseDay(args[0], a.loc); err != nil {
					return err
				}
			}
			until := a.daily.Today()
			if since.After(until) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing to backfill, already up to date.")
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			progress := make(chan service.BackfillProgress)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for p := range progress {
					_, _ = fmt.Fprintf(out, "[%d/%d] %s  %d messages, %d new workouts\n",
						p.Completed, p.Total, p.Day, p.Result.Messages, p.Result.RecordsAdded)
				}
			}()

			res, err := a.daily.Backfill(ctx, since, until, progress)
			<-done
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "\nBackfilled %d days, %d new workouts.\n", res.Days, res.RecordsAdded)
			return nil
		},
	}
}

func newViewCmd(configPath *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse days, leagues and run history in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Log lines would corrupt the alternate screen
			a, err := loadApp(cmd.OutOrStdout(), *configPath, zap.NewNop())
			if err != nil || a == nil {
				return err
			}
			defer a.Close()

			day, err := parseDay(a, date)
			if err != nil {
				return err
			}

			p := tea.NewProgram(tui.NewApp(a.query, a.daily, a.cfg.Group.Name, day), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running TUI: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to open as YYYY-MM-DD (default today)")
	return cmd
}

func newInitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.ResolvePath(*configPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
				return nil
			}
			if err := config.CreateExample(path); err != nil {
				return fmt.Errorf("creating example config: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Example config written to %s\n", path)
			return nil
		},
	}
}

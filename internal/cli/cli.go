package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/espn-tables/internal/config"
	"github.com/pfrederiksen/espn-tables/internal/espn"
	"github.com/pfrederiksen/espn-tables/internal/fetch"
	"github.com/pfrederiksen/espn-tables/internal/filter"
	"github.com/pfrederiksen/espn-tables/internal/logger"
	"github.com/pfrederiksen/espn-tables/internal/table"
	"github.com/pfrederiksen/espn-tables/internal/telemetry"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagLeague   string
	flagSeason   string
	flagBaseURL  string
	flagEnvFile  string
	flagFormat   string
	flagOutput   string
	flagSort     string
	flagWhere    []string
	flagDesc     bool
	flagVerbose  bool
	flagTeam     string
	flagPitchers bool
	flagStart    string
	flagEnd      string
	flagRange    string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "espn-tables",
		Short: "Extract tables from ESPN Fantasy Baseball league pages",
		Long: `A CLI tool to pull standings, draft results, active player stats and
transactions out of ESPN Fantasy Baseball league pages as clean tables.

Settings may also come from ESPN_* environment variables or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagLeague, "league", "", "League id (default $"+config.EnvLeagueID+")")
	pf.StringVar(&flagSeason, "season", "", "Season year (default $"+config.EnvSeason+" or the current year)")
	pf.StringVar(&flagBaseURL, "base-url", "", "Site root (default "+espn.BaseURL+")")
	pf.StringVar(&flagEnvFile, "env-file", "", "Environment file to load (default .env when present)")
	pf.StringVarP(&flagFormat, "format", "f", "text", "Output format: text, json, csv, markdown or xlsx")
	pf.StringVarP(&flagOutput, "output", "o", "", "Write output to a file (required for xlsx)")
	pf.StringVar(&flagSort, "sort", "", "Sort rows by this column")
	pf.BoolVar(&flagDesc, "desc", false, "Sort in descending order")
	pf.StringArrayVarP(&flagWhere, "where", "w", nil, "Keep rows matching COLUMN OP VALUE (=, !=, ~, >, >=, <, <=); repeatable")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging and print fetch metrics")

	cmd.AddCommand(
		newTeamsCmd(),
		newScoringCmd(),
		newStandingsCmd(),
		newDraftCmd(),
		newStatsCmd(),
		newTransactionsCmd(),
	)
	return cmd
}

func newTeamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List the league's teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			teams, err := s.league.Teams(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(teams))
			for i, t := range teams {
				rows[i] = []string{t.ID, t.Name}
			}
			out, err := table.New("teams", []string{"ID", "NAME"}, rows)
			if err != nil {
				return err
			}
			return s.emit(cmd, out)
		},
	}
}

func newScoringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scoring",
		Short: "Show the league's scoring type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			scoring, err := s.league.Scoring(cmd.Context())
			if err != nil {
				return err
			}
			out, err := table.New("scoring", []string{"LEAGUE", "SEASON", "SCORING"},
				[][]string{{s.league.ID, s.league.Season, scoring}})
			if err != nil {
				return err
			}
			return s.emit(cmd, out)
		},
	}
}

func newStandingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Show the official standings tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			ctx := cmd.Context()

			var tables []*table.Table
			if flagTeam != "" {
				team, err := s.league.Team(ctx, flagTeam)
				if err != nil {
					return err
				}
				tables, err = team.Standings(ctx)
				if err != nil {
					return err
				}
			} else {
				tables, err = s.league.Standings(ctx)
				if err != nil {
					return err
				}
			}
			return s.emit(cmd, tables...)
		},
	}
	cmd.Flags().StringVar(&flagTeam, "team", "", "Only rows for this team id")
	return cmd
}

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show draft results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			ctx := cmd.Context()

			var out *table.Table
			if flagTeam != "" {
				team, err := s.league.Team(ctx, flagTeam)
				if err != nil {
					return err
				}
				out, err = team.DraftResults(ctx)
				if err != nil {
					return err
				}
			} else {
				out, err = s.league.DraftResults(ctx)
				if err != nil {
					return err
				}
			}
			return s.emit(cmd, out)
		},
	}
	cmd.Flags().StringVar(&flagTeam, "team", "", "Only picks made by this team id")
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show active batter or pitcher stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			ctx := cmd.Context()
			batter := !flagPitchers

			var out *table.Table
			if flagTeam != "" {
				team, err := s.league.Team(ctx, flagTeam)
				if err != nil {
					return err
				}
				out, err = team.ActiveStats(ctx, batter)
				if err != nil {
					return err
				}
			} else {
				out, err = s.league.ActiveStats(ctx, batter)
				if err != nil {
					return err
				}
			}
			return s.emit(cmd, out)
		},
	}
	cmd.Flags().StringVar(&flagTeam, "team", "", "One team id instead of the whole league")
	cmd.Flags().BoolVar(&flagPitchers, "pitchers", false, "Pitcher stats instead of batter stats")
	return cmd
}

func newTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Show transactions between two dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			start, end, err := transactionWindow(s.league.Season)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var out *table.Table
			if flagTeam != "" {
				team, err := s.league.Team(ctx, flagTeam)
				if err != nil {
					return err
				}
				out, err = team.Transactions(ctx, start, end)
				if err != nil {
					return err
				}
			} else {
				out, err = s.league.Transactions(ctx, start, end)
				if err != nil {
					return err
				}
			}
			return s.emit(cmd, out)
		},
	}
	cmd.Flags().StringVar(&flagTeam, "team", "", "Only transactions of this team id")
	cmd.Flags().StringVar(&flagStart, "start", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&flagEnd, "end", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&flagRange, "range", "", "Days within the season, e.g. 'Apr 1-15' or 'June' (instead of --start/--end)")
	cmd.MarkFlagsMutuallyExclusive("range", "start")
	cmd.MarkFlagsMutuallyExclusive("range", "end")
	return cmd
}

// transactionWindow resolves --range or --start/--end into a date window.
func transactionWindow(season string) (time.Time, time.Time, error) {
	if flagRange != "" {
		year, err := strconv.Atoi(season)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("season must be a year, got %q", season)
		}
		return filter.ParseDateRange(flagRange, year)
	}
	if flagStart == "" || flagEnd == "" {
		return time.Time{}, time.Time{}, errors.New("either --range or both --start and --end are required")
	}
	start, err := parseDate("--start", flagStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("--end", flagEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q (want YYYY-MM-DD)", flag, value)
	}
	return t, nil
}

// session carries what every subcommand needs once flags and config are resolved.
type session struct {
	cfg      config.Config
	format   OutputFormat
	log      *logger.Logger
	league   *espn.League
	shutdown telemetry.ShutdownFunc
}

func newSession(cmd *cobra.Command) (*session, error) {
	format, err := ParseFormat(flagFormat)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX && flagOutput == "" {
		return nil, errors.New("--output is required for xlsx format")
	}

	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}
	if flagLeague != "" {
		cfg.LeagueID = strings.TrimSpace(flagLeague)
	}
	if flagSeason != "" {
		cfg.Season = strings.TrimSpace(flagSeason)
	}
	if flagBaseURL != "" {
		cfg.BaseURL = strings.TrimSpace(flagBaseURL)
	}
	if flagVerbose {
		cfg.LogLevel = logger.LevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cfg.LogLevel, cmd.ErrOrStderr())
	logger.SetDefault(log)

	shutdown, err := telemetry.Setup(cmd.Context(), cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	fetcher := cfg.Fetcher(fetch.New(append(cfg.FetchOptions(),
		fetch.WithLogger(log),
		fetch.WithMetrics(logger.DefaultMetrics()),
	)...))

	log.Debug("resolved configuration", logger.Fields{
		"league":   cfg.LeagueID,
		"season":   cfg.Season,
		"base_url": cfg.BaseURL,
		"timeout":  cfg.Timeout.String(),
		"cache":    cfg.CacheTTL.String(),
		"otlp":     cfg.OTLPEndpoint,
		"format":   string(format),
	})

	return &session{
		cfg:    cfg,
		format: format,
		log:    log,
		league: espn.NewLeague(cfg.LeagueID, cfg.Season,
			espn.WithBaseURL(cfg.BaseURL),
			espn.WithFetcher(fetcher),
			espn.WithLogger(log),
		),
		shutdown: shutdown,
	}, nil
}

// close flushes pending trace spans.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.shutdown(ctx); err != nil {
		s.log.Warn("flushing traces failed", logger.Fields{"error": err.Error()})
	}
}

// emit filters, sorts, writes and, in verbose mode, reports metrics.
func (s *session) emit(cmd *cobra.Command, tables ...*table.Table) (err error) {
	if len(flagWhere) > 0 {
		f, err := filter.Parse(flagWhere)
		if err != nil {
			return err
		}
		tables, err = filterTables(tables, f)
		if err != nil {
			return err
		}
	}
	if flagSort != "" {
		tables, err = sortTables(tables, flagSort, flagDesc)
		if err != nil {
			return err
		}
	}

	var w io.Writer = cmd.OutOrStdout()
	if flagOutput != "" {
		f, ferr := os.Create(flagOutput)
		if ferr != nil {
			return fmt.Errorf("creating output file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		w = f
	}

	if err := WriteOutput(w, tables, s.format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagVerbose {
		encoder := json.NewEncoder(cmd.ErrOrStderr())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(map[string]interface{}{"metrics": logger.GetMetricsSnapshot()}); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// filterTables applies f to every table that has all of its columns. It fails
// only when no table has them.
func filterTables(tables []*table.Table, f *filter.Filter) ([]*table.Table, error) {
	out := make([]*table.Table, len(tables))
	var firstErr error
	applied := false
	for i, t := range tables {
		filtered, err := f.Apply(t)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			out[i] = t
			continue
		}
		applied = true
		out[i] = filtered
	}
	if !applied && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}

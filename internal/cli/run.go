package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quredev/qure/internal/compiler"
	"github.com/quredev/qure/internal/query"
	"github.com/quredev/qure/internal/session"
	"github.com/quredev/qure/internal/store"
	"github.com/quredev/qure/internal/stream"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Token    string

	// TokenGenerator allows overriding token generation (for testing).
	// Defaults to UUIDv7Generator.
	TokenGenerator session.TokenGenerator
}

// RunResult is the JSON payload of a scenario run.
type RunResult struct {
	Scenario     string                `json:"scenario"`
	SessionToken string                `json:"session_token,omitempty"`
	Items        int                   `json:"items"`
	Defined      bool                  `json:"defined"`
	Value        float64               `json:"value,omitempty"`
	Groups       []session.GroupResult `json:"groups,omitempty"`
	Recorded     bool                  `json:"recorded"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario stream through its query",
		Long: `Run a scenario file: feed its items through the query and print the
final value.

With --db, every item and the value after it are recorded to a SQLite
trace log, keyed by the session token. Recorded runs can be checked
later with 'qure replay'. Grouped scenarios cannot be recorded.

Exit codes:
  0 - Query produced a defined value
  1 - Query is undefined after the full stream
  2 - Command error (bad scenario, compile failure, database error)

Examples:
  qure run ./scenarios/running_sum.yaml
  qure run ./scenarios/running_sum.yaml --db ./traces.db
  qure run ./scenarios/grouped.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")
	cmd.Flags().StringVar(&opts.Token, "token", "", "session token (default: scenario token, else UUIDv7)")

	return cmd
}

func runScenarioCmd(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := NewFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := commandLogger(opts.Verbose)

	scenario, err := stream.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E_SCENARIO", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	build, queryRef, err := scenarioQuery(scenario)
	if err != nil {
		_ = formatter.Error("E_QUERY", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to resolve query", err)
	}

	if scenario.GroupBySeries {
		if opts.Database != "" {
			return NewExitError(ExitCommandError, "grouped scenarios cannot be recorded with --db")
		}
		return runGroupedScenario(opts, formatter, scenario, build, logger)
	}

	token := opts.Token
	if token == "" {
		token = scenario.SessionToken
	}
	if token == "" {
		gen := opts.TokenGenerator
		if gen == nil {
			gen = session.UUIDv7Generator{}
		}
		token = gen.Generate()
	}

	sessOpts := []session.Option{session.WithLogger(logger)}

	ctx := context.Background()
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error("E_DB", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		sessOpts = append(sessOpts, session.WithRecorder(st))
	}

	sess := session.New(token, queryRef, build(), sessOpts...)
	if err := sess.Begin(ctx); err != nil {
		_ = formatter.Error("E_DB", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	for _, item := range scenario.Items {
		if err := sess.Feed(ctx, item); err != nil {
			_ = formatter.Error("E_DB", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record item", err)
		}
	}

	result := RunResult{
		Scenario:     scenario.Name,
		SessionToken: token,
		Items:        len(scenario.Items),
		Recorded:     opts.Database != "",
	}
	if v, err := sess.Value(); err == nil {
		result.Defined = true
		result.Value = v
	}

	return outputRunResult(opts, formatter, result)
}

func runGroupedScenario(opts *RunOptions, formatter *OutputFormatter, scenario *stream.Scenario, build query.Builder, logger *slog.Logger) error {
	g := session.NewGrouped(build, session.WithGroupedLogger(logger))
	for _, item := range scenario.Items {
		g.Feed(item)
	}

	groups := g.Results()
	result := RunResult{
		Scenario: scenario.Name,
		Items:    len(scenario.Items),
		Groups:   groups,
	}
	result.Defined = len(groups) > 0
	for _, gr := range groups {
		if !gr.Defined {
			result.Defined = false
		}
	}

	return outputRunResult(opts, formatter, result)
}

func outputRunResult(opts *RunOptions, formatter *OutputFormatter, result RunResult) error {
	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
		if !result.Defined {
			return NewExitError(ExitFailure, "query is undefined")
		}
		return nil
	}

	if len(result.Groups) > 0 {
		for _, gr := range result.Groups {
			if gr.Defined {
				formatter.Printf("%s: %v\n", gr.Series, gr.Value)
			} else {
				formatter.Printf("%s: undefined\n", gr.Series)
			}
		}
	} else if result.Defined {
		formatter.Printf("%v\n", result.Value)
	} else {
		formatter.Printf("undefined after %d item(s)\n", result.Items)
	}

	if result.Recorded {
		formatter.Printf("recorded session %s\n", result.SessionToken)
	}

	if !result.Defined {
		return NewExitError(ExitFailure, "query is undefined")
	}
	return nil
}

// scenarioQuery resolves a scenario's query source to a builder plus
// the reference string stored with recorded sessions.
func scenarioQuery(scenario *stream.Scenario) (query.Builder, string, error) {
	if scenario.Query != "" {
		b, err := query.Lookup(scenario.Query)
		return b, scenario.Query, err
	}
	expr, err := compiler.CompileFile(scenario.QueryFile)
	if err != nil {
		return nil, "", err
	}
	return func() query.Expr { return expr }, scenario.QueryFile, nil
}

// commandLogger builds the slog logger commands hand to sessions,
// writing to stderr at debug level when verbose.
func commandLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

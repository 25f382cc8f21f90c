package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quredev/qure/internal/session"
	"github.com/quredev/qure/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay outcome for one session.
type ReplaySessionResult struct {
	SessionToken  string `json:"session_token"`
	Query         string `json:"query"`
	Items         int    `json:"items"`
	Mismatches    int    `json:"mismatches"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay outcome.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded sessions and verify determinism",
		Long: `Re-feed recorded session items through a fresh solver and compare the
value after every item against the recorded snapshots.

Combinators are pure, so a mismatch means the query definition changed
since the recording, or an engine bug.

Exit codes:
  0 - All sessions replayed deterministically
  1 - Mismatches detected
  2 - Command error (database or session not found)

Examples:
  qure replay --db ./traces.db
  qure replay --db ./traces.db --session 0190f0a2-...
  qure replay --db ./traces.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay a specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := NewFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error("E_DB", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var tokens []string
	if opts.Session != "" {
		tokens = []string{opts.Session}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			_ = formatter.Error("E_DB", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			tokens = append(tokens, s.Token)
		}
	}

	if len(tokens) == 0 {
		if opts.Format == "json" {
			return formatter.Success(ReplayResult{
				Sessions:         []ReplaySessionResult{},
				AllDeterministic: true,
			})
		}
		fmt.Fprintln(formatter.Writer, "No sessions found in database.")
		return nil
	}

	// Recorded sessions store the same query reference the CLI accepts,
	// so replay resolves through the shared resolver.
	rebuild := func(queryRef string) (session.Expr, error) {
		build, err := resolveQuery(queryRef)
		if err != nil {
			return nil, err
		}
		return build(), nil
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(tokens)),
		TotalSessions:    len(tokens),
		AllDeterministic: true,
	}

	for _, token := range tokens {
		report, err := session.Replay(ctx, st, token, rebuild)
		if err != nil {
			_ = formatter.Error("E_REPLAY", err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", token), err)
		}

		result.Sessions = append(result.Sessions, ReplaySessionResult{
			SessionToken:  report.Token,
			Query:         report.Query,
			Items:         report.Items,
			Mismatches:    len(report.Mismatches),
			Deterministic: report.Deterministic(),
		})
		if !report.Deterministic() {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	formatter.Printf("Replay Summary: %d session(s)\n\n", result.TotalSessions)

	for _, s := range result.Sessions {
		status := "ok"
		if !s.Deterministic {
			status = "MISMATCH"
		}
		formatter.Printf("[%s] %s query=%s items=%d", status, s.SessionToken, s.Query, s.Items)
		if !s.Deterministic {
			formatter.Printf(" mismatches=%d", s.Mismatches)
		}
		formatter.Printf("\n")
	}

	formatter.Printf("\n")
	if result.AllDeterministic {
		formatter.Printf("All sessions verified deterministic\n")
		return nil
	}

	formatter.Printf("Determinism verification failed\n")
	return NewExitError(ExitFailure, "determinism verification failed")
}

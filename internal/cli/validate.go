package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quredev/qure/internal/compiler"
)

// ValidationIssue is one problem found in a query file.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results for one file.
type ValidationResult struct {
	File   string            `json:"file"`
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query.cue>",
		Short: "Compile a query file and report errors",
		Long: `Compile a CUE query definition without evaluating it, reporting any
syntax or structural errors with their field paths.

Exit codes:
  0 - Query compiles
  1 - Compile errors found
  2 - Command error (file not readable)

Examples:
  qure validate ./queries/mean.cue
  qure validate ./queries/mean.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := NewFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error("E_FILE", fmt.Sprintf("cannot read query file: %v", err), nil)
		return WrapExitError(ExitCommandError, "query file not readable", err)
	}

	_, err := compiler.CompileFile(path)
	if err == nil {
		if opts.Format == "json" {
			return formatter.Success(ValidationResult{File: path, Valid: true})
		}
		fmt.Fprintf(formatter.Writer, "%s: valid\n", path)
		return nil
	}

	result := ValidationResult{File: path}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		issue := ValidationIssue{Field: ce.Field, Message: ce.Message}
		if ce.Pos.IsValid() {
			issue.Line = ce.Pos.Line()
		}
		result.Issues = append(result.Issues, issue)
	} else {
		result.Issues = append(result.Issues, ValidationIssue{Message: err.Error()})
	}

	if opts.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    "E_COMPILE",
				Message: result.Issues[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if outErr := encoder.Encode(response); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "query validation failed")
	}

	fmt.Fprintf(formatter.Writer, "%s: invalid\n", path)
	for _, issue := range result.Issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "  line %d, %s: %s\n", issue.Line, issue.Field, issue.Message)
		} else if issue.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Field, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s\n", issue.Message)
		}
	}
	return NewExitError(ExitFailure, "query validation failed")
}

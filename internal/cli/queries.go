package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quredev/qure/internal/query"
)

// NewQueriesCommand creates the queries command, which lists the
// built-in query registry.
func NewQueriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "queries",
		Short:         "List built-in query names",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := NewFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			names := query.Names()

			if rootOpts.Format == "json" {
				return formatter.Success(names)
			}
			for _, name := range names {
				fmt.Fprintln(formatter.Writer, name)
			}
			return nil
		},
	}
}

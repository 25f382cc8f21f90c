package cli

import (
	"strings"

	"github.com/quredev/qure/internal/compiler"
	"github.com/quredev/qure/internal/query"
)

// resolveQuery maps a query reference to an expression builder. A
// reference ending in .cue is compiled from disk; anything else is
// looked up in the built-in registry. Recorded sessions store the same
// reference, so replay resolves through this function too.
func resolveQuery(ref string) (query.Builder, error) {
	if strings.HasSuffix(ref, ".cue") {
		expr, err := compiler.CompileFile(ref)
		if err != nil {
			return nil, err
		}
		return func() query.Expr { return expr }, nil
	}
	return query.Lookup(ref)
}

package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/quredev/qure/internal/query"
	"github.com/quredev/qure/internal/stream"
	"github.com/quredev/qure/pkg/qre"
)

// CompileFile loads a CUE file and compiles the expression declared
// under its top-level "query" field.
func CompileFile(path string) (query.Expr, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return CompileBytes(data, path)
}

// CompileBytes compiles CUE source. The filename is used in error
// positions only.
func CompileBytes(data []byte, filename string) (query.Expr, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("query"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "query",
			Message: "top-level query field is required",
			Pos:     v.Pos(),
		}
	}

	return CompileQuery(root)
}

// CompileQuery parses a CUE value into a QRE expression.
// The value is the query node itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`query: {kind: "item"}`)
//	expr, err := CompileQuery(v.LookupPath(cue.ParsePath("query")))
func CompileQuery(v cue.Value) (query.Expr, error) {
	return compileNode(v, "query")
}

// compileNode recursively compiles one node of the combinator tree.
// The field argument is the dotted path used in error messages.
func compileNode(v cue.Value, field string) (query.Expr, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	kind, err := stringField(v, field, "kind")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "const":
		return compileConst(v, field)
	case "item":
		return compileItem(v, field)
	case "choice":
		return compileChoice(v, field)
	case "seq":
		return compileBinary(v, field, qre.NewSplit[stream.Item, float64])
	case "both":
		return compileBinary(v, field, qre.NewCombine[stream.Item, float64])
	case "iter":
		return compileIter(v, field)
	case "map":
		return compileMap(v, field)
	default:
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown node kind %q", kind),
			Pos:     v.Pos(),
		}
	}
}

// compileConst parses {kind: "const", value: number} into Eps.
func compileConst(v cue.Value, field string) (query.Expr, error) {
	val := v.LookupPath(cue.ParsePath("value"))
	if !val.Exists() {
		return nil, &CompileError{
			Field:   field + ".value",
			Message: "const nodes require a value",
			Pos:     v.Pos(),
		}
	}
	c, err := val.Float64()
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".value",
			Message: "value must be a number",
			Pos:     val.Pos(),
		}
	}
	return qre.NewEps[stream.Item](c), nil
}

// compileItem parses an item node into Sat. Optional fields:
//
//	series:  exact series match
//	min/max: inclusive value bounds
//	extract: "value" (default) or "one"
func compileItem(v cue.Value, field string) (query.Expr, error) {
	pred := func(stream.Item) bool { return true }

	if seriesVal := v.LookupPath(cue.ParsePath("series")); seriesVal.Exists() {
		series, err := seriesVal.String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".series",
				Message: "series must be a string",
				Pos:     seriesVal.Pos(),
			}
		}
		prev := pred
		pred = func(it stream.Item) bool { return prev(it) && it.Series == series }
	}

	if minVal := v.LookupPath(cue.ParsePath("min")); minVal.Exists() {
		min, err := minVal.Float64()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".min",
				Message: "min must be a number",
				Pos:     minVal.Pos(),
			}
		}
		prev := pred
		pred = func(it stream.Item) bool { return prev(it) && it.Value >= min }
	}

	if maxVal := v.LookupPath(cue.ParsePath("max")); maxVal.Exists() {
		max, err := maxVal.Float64()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".max",
				Message: "max must be a number",
				Pos:     maxVal.Pos(),
			}
		}
		prev := pred
		pred = func(it stream.Item) bool { return prev(it) && it.Value <= max }
	}

	extract := func(it stream.Item) float64 { return it.Value }
	if extractVal := v.LookupPath(cue.ParsePath("extract")); extractVal.Exists() {
		name, err := extractVal.String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".extract",
				Message: "extract must be a string",
				Pos:     extractVal.Pos(),
			}
		}
		switch name {
		case "value":
			// default
		case "one":
			extract = func(stream.Item) float64 { return 1.0 }
		default:
			return nil, &CompileError{
				Field:   field + ".extract",
				Message: fmt.Sprintf("unknown extractor %q (want value or one)", name),
				Pos:     extractVal.Pos(),
			}
		}
	}

	return qre.NewSat(pred, extract), nil
}

// compileChoice parses {kind: "choice", alts: [...]} into Choice.
func compileChoice(v cue.Value, field string) (query.Expr, error) {
	altsVal := v.LookupPath(cue.ParsePath("alts"))
	if !altsVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".alts",
			Message: "choice nodes require an alts list",
			Pos:     v.Pos(),
		}
	}

	iter, err := altsVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".alts",
			Message: "alts must be a list",
			Pos:     altsVal.Pos(),
		}
	}

	var alts []query.Expr
	for i := 0; iter.Next(); i++ {
		alt, err := compileNode(iter.Value(), fmt.Sprintf("%s.alts[%d]", field, i))
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
	}
	if len(alts) == 0 {
		return nil, &CompileError{
			Field:   field + ".alts",
			Message: "choice nodes require at least one alternative",
			Pos:     altsVal.Pos(),
		}
	}

	return qre.NewChoice(alts...), nil
}

// compileBinary parses seq/both nodes: {op, left, right}.
func compileBinary(v cue.Value, field string, build func(l, r query.Expr, op func(float64, float64) float64) query.Expr) (query.Expr, error) {
	op, err := opField(v, field)
	if err != nil {
		return nil, err
	}
	left, err := childNode(v, field, "left")
	if err != nil {
		return nil, err
	}
	right, err := childNode(v, field, "right")
	if err != nil {
		return nil, err
	}
	return build(left, right, op), nil
}

// compileIter parses {kind: "iter", op, init, body}.
func compileIter(v cue.Value, field string) (query.Expr, error) {
	op, err := opField(v, field)
	if err != nil {
		return nil, err
	}
	init, err := childNode(v, field, "init")
	if err != nil {
		return nil, err
	}
	body, err := childNode(v, field, "body")
	if err != nil {
		return nil, err
	}
	return qre.NewIter[stream.Item, float64](init, body, op), nil
}

// compileMap parses {kind: "map", op, operand, inner}: the inner value
// x becomes op(x, operand).
func compileMap(v cue.Value, field string) (query.Expr, error) {
	op, err := opField(v, field)
	if err != nil {
		return nil, err
	}

	operandVal := v.LookupPath(cue.ParsePath("operand"))
	if !operandVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".operand",
			Message: "map nodes require an operand",
			Pos:     v.Pos(),
		}
	}
	operand, err := operandVal.Float64()
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".operand",
			Message: "operand must be a number",
			Pos:     operandVal.Pos(),
		}
	}

	inner, err := childNode(v, field, "inner")
	if err != nil {
		return nil, err
	}

	return qre.NewMap[stream.Item, float64](inner, func(x float64) float64 { return op(x, operand) }), nil
}

// childNode compiles a required child field.
func childNode(v cue.Value, field, name string) (query.Expr, error) {
	child := v.LookupPath(cue.ParsePath(name))
	if !child.Exists() {
		return nil, &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	return compileNode(child, field+"."+name)
}

// stringField reads a required string field.
func stringField(v cue.Value, field, name string) (string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " must be a string",
			Pos:     val.Pos(),
		}
	}
	return s, nil
}

// opField reads the node's binary combinator name.
func opField(v cue.Value, field string) (func(float64, float64) float64, error) {
	name, err := stringField(v, field, "op")
	if err != nil {
		return nil, err
	}
	op, ok := binaryOps[name]
	if !ok {
		return nil, &CompileError{
			Field:   field + ".op",
			Message: fmt.Sprintf("unknown op %q", name),
			Pos:     v.Pos(),
		}
	}
	return op, nil
}

// binaryOps is the fixed vocabulary of value combinators available to
// query files. All arithmetic the engine ever performs lives here or in
// Go-registered queries; the core stays numeric-free.
var binaryOps = map[string]func(a, b float64) float64{
	"add": func(a, b float64) float64 { return a + b },
	"sub": func(a, b float64) float64 { return a - b },
	"mul": func(a, b float64) float64 { return a * b },
	"div": func(a, b float64) float64 { return a / b },
	"avg": func(a, b float64) float64 { return (a + b) / 2 },
	"max": func(a, b float64) float64 {
		if a > b {
			return a
		}
		return b
	},
	"min": func(a, b float64) float64 {
		if a < b {
			return a
		}
		return b
	},
	"first": func(a, _ float64) float64 { return a },
	"last":  func(_, b float64) float64 { return b },
}

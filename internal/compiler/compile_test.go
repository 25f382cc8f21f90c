package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quredev/qure/internal/query"
	"github.com/quredev/qure/internal/stream"
	"github.com/quredev/qure/pkg/qre"
)

// evalOver compiles src and runs values through a fresh solver.
func evalOver(t *testing.T, src string, values ...float64) (float64, error) {
	t.Helper()

	expr, err := CompileBytes([]byte(src), "test.cue")
	require.NoError(t, err)

	s := qre.NewSolver[stream.Item, float64](expr)
	for _, v := range values {
		s.Advance(stream.Item{Series: "temp", Value: v})
	}
	return s.Value()
}

const runningSumCUE = `
query: {
	kind: "iter"
	op:   "add"
	init: {kind: "const", value: 0.0}
	body: {kind: "item"}
}
`

const runningMeanCUE = `
query: {
	kind: "both"
	op:   "div"
	left: {
		kind: "iter"
		op:   "add"
		init: {kind: "const", value: 0.0}
		body: {kind: "item"}
	}
	right: {
		kind: "iter"
		op:   "add"
		init: {kind: "const", value: 0.0}
		body: {kind: "item", extract: "one"}
	}
}
`

func TestCompileBytes_RunningSum(t *testing.T) {
	v, err := evalOver(t, runningSumCUE, 1, 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestCompileBytes_RunningMean(t *testing.T) {
	v, err := evalOver(t, runningMeanCUE, 2, 4, 6)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-9)
}

func TestCompileBytes_SeqWindow(t *testing.T) {
	// avg(max(first 2 items), min(last item)): 5,4 then 1.
	src := `
query: {
	kind: "seq"
	op:   "avg"
	left: {kind: "seq", op: "max", left: {kind: "item"}, right: {kind: "item"}}
	right: {kind: "item"}
}
`
	v, err := evalOver(t, src, 5, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestCompileBytes_ItemPredicates(t *testing.T) {
	// Only items in [0, 10] on series temp are accepted; anything else
	// kills the branch and the query goes undefined.
	src := `
query: {kind: "item", series: "temp", min: 0.0, max: 10.0}
`
	t.Run("within bounds", func(t *testing.T) {
		v, err := evalOver(t, src, 7)
		require.NoError(t, err)
		assert.Equal(t, 7.0, v)
	})

	t.Run("out of bounds", func(t *testing.T) {
		_, err := evalOver(t, src, 42)
		require.Error(t, err)
		assert.True(t, qre.IsUndefined(err))
	})

	t.Run("wrong series", func(t *testing.T) {
		expr, err := CompileBytes([]byte(src), "test.cue")
		require.NoError(t, err)

		s := qre.NewSolver[stream.Item, float64](expr)
		s.Advance(stream.Item{Series: "humidity", Value: 5})
		_, err = s.Value()
		assert.True(t, qre.IsUndefined(err))
	})
}

func TestCompileBytes_Choice(t *testing.T) {
	// Disjoint predicates keep the choice unambiguous.
	src := `
query: {
	kind: "choice"
	alts: [
		{kind: "item", max: 5.0},
		{kind: "map", op: "mul", operand: 10.0, inner: {kind: "item", min: 5.5}},
	]
}
`
	v, err := evalOver(t, src, 7)
	require.NoError(t, err)
	assert.Equal(t, 70.0, v)
}

func TestCompileBytes_Map(t *testing.T) {
	src := `
query: {kind: "map", op: "add", operand: 100.0, inner: {kind: "item"}}
`
	v, err := evalOver(t, src, 5)
	require.NoError(t, err)
	assert.Equal(t, 105.0, v)
}

func TestCompileQuery_FromValue(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(runningSumCUE)
	require.NoError(t, v.Err())

	expr, err := CompileQuery(v.LookupPath(cue.ParsePath("query")))
	require.NoError(t, err)

	s := qre.NewSolver[stream.Item, float64](expr)
	s.Advance(stream.Item{Series: "temp", Value: 41})
	s.Advance(stream.Item{Series: "temp", Value: 1})
	got, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)
}

func TestCompileBytes_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		src       string
		wantField string
	}{
		{
			name:      "missing query field",
			src:       `other: 1`,
			wantField: "query",
		},
		{
			name:      "missing kind",
			src:       `query: {op: "add"}`,
			wantField: "query.kind",
		},
		{
			name:      "unknown kind",
			src:       `query: {kind: "frobnicate"}`,
			wantField: "query.kind",
		},
		{
			name:      "const without value",
			src:       `query: {kind: "const"}`,
			wantField: "query.value",
		},
		{
			name:      "unknown op",
			src:       `query: {kind: "iter", op: "xor", init: {kind: "const", value: 0.0}, body: {kind: "item"}}`,
			wantField: "query.op",
		},
		{
			name:      "seq missing right",
			src:       `query: {kind: "seq", op: "add", left: {kind: "item"}}`,
			wantField: "query.right",
		},
		{
			name:      "empty choice",
			src:       `query: {kind: "choice", alts: []}`,
			wantField: "query.alts",
		},
		{
			name:      "bad alt nested field path",
			src:       `query: {kind: "choice", alts: [{kind: "const"}]}`,
			wantField: "query.alts[0].value",
		},
		{
			name:      "unknown extractor",
			src:       `query: {kind: "item", extract: "square"}`,
			wantField: "query.extract",
		},
		{
			name:      "map without operand",
			src:       `query: {kind: "map", op: "add", inner: {kind: "item"}}`,
			wantField: "query.operand",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileBytes([]byte(tc.src), "test.cue")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.wantField, ce.Field)
		})
	}
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sum.cue")
	require.NoError(t, os.WriteFile(path, []byte(runningSumCUE), 0o644))

	expr, err := CompileFile(path)
	require.NoError(t, err)

	s := qre.NewSolver[stream.Item, float64](expr)
	s.Advance(stream.Item{Series: "temp", Value: 1})
	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = CompileFile(filepath.Join(dir, "missing.cue"))
	require.Error(t, err)
}

// Compiled queries must be interchangeable with Go-registered ones.
func TestCompiledMatchesRegistered(t *testing.T) {
	compiled, err := CompileBytes([]byte(runningSumCUE), "test.cue")
	require.NoError(t, err)

	builder, err := query.Lookup("running_sum")
	require.NoError(t, err)

	a := qre.NewSolver[stream.Item, float64](compiled)
	b := qre.NewSolver[stream.Item, float64](builder())
	for i := 1; i <= 10; i++ {
		it := stream.Item{Series: "temp", Value: float64(i)}
		a.Advance(it)
		b.Advance(it)
	}

	va, erra := a.Value()
	vb, errb := b.Value()
	require.NoError(t, erra)
	require.NoError(t, errb)
	assert.Equal(t, vb, va)
}

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quredev/qure/internal/query"
	"github.com/quredev/qure/internal/store"
	"github.com/quredev/qure/internal/stream"
	"github.com/quredev/qure/pkg/qre"
)

func TestSession_FeedAndValue(t *testing.T) {
	s := New("tok-1", "running_sum", query.Sum())
	ctx := context.Background()

	for _, v := range []float64{1, 2, 3} {
		require.NoError(t, s.Feed(ctx, stream.Item{Series: "temp", Value: v}))
	}

	got, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)
	assert.Equal(t, int64(3), s.Clock().Current())
}

func TestSession_UndefinedPassesThrough(t *testing.T) {
	s := New("tok-1", "running_max", query.Max())

	_, err := s.Value()
	require.Error(t, err)
	assert.True(t, qre.IsUndefined(err))
}

func TestSession_RecordsItemsAndSnapshots(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	s := New("tok-1", "running_sum", query.Sum(), WithRecorder(st))
	require.NoError(t, s.Begin(ctx))

	for _, v := range []float64{5, 10} {
		require.NoError(t, s.Feed(ctx, stream.Item{Series: "temp", Value: v}))
	}

	items, err := st.ReadItems(ctx, "tok-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, stream.Item{Series: "temp", Value: 5, Seq: 1}, items[0])
	assert.Equal(t, stream.Item{Series: "temp", Value: 10, Seq: 2}, items[1])

	snaps, err := st.ReadSnapshots(ctx, "tok-1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, store.Snapshot{Seq: 1, Defined: true, Value: 5}, snaps[0])
	assert.Equal(t, store.Snapshot{Seq: 2, Defined: true, Value: 15}, snaps[1])
}

func TestSession_BeginWithoutRecorderIsNoop(t *testing.T) {
	s := New("tok-1", "running_sum", query.Sum())
	assert.NoError(t, s.Begin(context.Background()))
}

func TestSession_RecordErrorOnMissingSessionRow(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	// Feed without Begin: the items table's foreign key has no parent
	// session row.
	s := New("tok-1", "running_sum", query.Sum(), WithRecorder(st))
	err = s.Feed(context.Background(), stream.Item{Series: "temp", Value: 1})
	require.Error(t, err)
	assert.True(t, IsRecordError(err))
}

func TestGrouped_PartitionsBySeries(t *testing.T) {
	g := NewGrouped(query.Sum)

	feeds := []stream.Item{
		{Series: "a", Value: 1},
		{Series: "b", Value: 10},
		{Series: "a", Value: 2},
		{Series: "b", Value: 20},
		{Series: "a", Value: 3},
	}
	for _, item := range feeds {
		g.Feed(item)
	}

	results := g.Results()
	require.Len(t, results, 2)
	assert.Equal(t, GroupResult{Series: "a", Defined: true, Value: 6}, results[0])
	assert.Equal(t, GroupResult{Series: "b", Defined: true, Value: 30}, results[1])
	assert.Equal(t, []string{"a", "b"}, g.Series())
}

func TestGrouped_ValueForUnknownSeries(t *testing.T) {
	g := NewGrouped(query.Sum)

	_, err := g.Value("never-seen")
	require.Error(t, err)
	assert.True(t, qre.IsUndefined(err))
}

func TestGrouped_UndefinedGroup(t *testing.T) {
	// A two-item span fed a single item has not accepted yet.
	g := NewGrouped(func() Expr { return query.Span(2, func(a, b float64) float64 { return a + b }) })
	g.Feed(stream.Item{Series: "a", Value: 1})

	results := g.Results()
	require.Len(t, results, 1)
	assert.False(t, results[0].Defined)
}

func TestReplay_Deterministic(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	s := New("tok-1", "running_sum", query.Sum(), WithRecorder(st))
	require.NoError(t, s.Begin(ctx))
	for _, v := range []float64{1, 2, 3, 4} {
		require.NoError(t, s.Feed(ctx, stream.Item{Series: "temp", Value: v}))
	}

	report, err := Replay(ctx, st, "tok-1", func(name string) (Expr, error) {
		b, err := query.Lookup(name)
		if err != nil {
			return nil, err
		}
		return b(), nil
	})
	require.NoError(t, err)
	assert.True(t, report.Deterministic())
	assert.Equal(t, 4, report.Items)
	assert.Equal(t, "running_sum", report.Query)
}

func TestReplay_DetectsChangedQuery(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	s := New("tok-1", "running_sum", query.Sum(), WithRecorder(st))
	require.NoError(t, s.Begin(ctx))
	for _, v := range []float64{1, 2, 3} {
		require.NoError(t, s.Feed(ctx, stream.Item{Series: "temp", Value: v}))
	}

	// Replaying against a different query must surface mismatches.
	report, err := Replay(ctx, st, "tok-1", func(string) (Expr, error) {
		return query.Count(), nil
	})
	require.NoError(t, err)
	assert.False(t, report.Deterministic())
	assert.NotEmpty(t, report.Mismatches)
}

func TestReplay_UnknownSession(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	_, err = Replay(context.Background(), st, "missing", func(string) (Expr, error) {
		return query.Sum(), nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

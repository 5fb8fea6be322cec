package iterator

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/function"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

func rowsIterator(cols []ColumnInfo, rows []block.Row) *sliceIterator {
	return &sliceIterator{cols: cols, rows: rows}
}

func drain(t *testing.T, it RowIterator) []block.Row {
	t.Helper()
	var out []block.Row
	for {
		row, err := it.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, row)
	}
}

func TestCachingBlockIteratorReplaysAfterRewind(t *testing.T) {
	require := require.New(t)
	src := rowsIterator(nil, []block.Row{{types.NewInt(1)}, {types.NewInt(2)}})
	manager := block.NewBlockManager(0, 0)
	c := NewCachingBlockIterator(src, manager)

	require.NoError(c.Rewind())
	first := drain(t, c)
	require.Len(first, 2)

	require.NoError(c.Rewind())
	second := drain(t, c)
	require.Len(second, 2)
}

func TestSortingBlockIteratorOrdersByKey(t *testing.T) {
	require := require.New(t)
	src := rowsIterator(nil, []block.Row{
		{types.NewInt(3)}, {types.NewInt(1)}, {types.NewInt(2)},
	})
	s := NewSortingBlockIterator(src, []SortKey{{ColumnIndex: 0}})
	rows := drain(t, s)
	require.Len(rows, 3)
	v0, _ := rows[0][0].AsInt()
	v1, _ := rows[1][0].AsInt()
	v2, _ := rows[2][0].AsInt()
	require.Equal([]int64{1, 2, 3}, []int64{v0, v1, v2})
}

func TestGroupingBlockIteratorSumsPerGroup(t *testing.T) {
	require := require.New(t)
	src := rowsIterator(nil, []block.Row{
		{types.NewString("a"), types.NewInt(1)},
		{types.NewString("b"), types.NewInt(2)},
		{types.NewString("a"), types.NewInt(3)},
	})
	registry := function.NewRegistry("1.0")
	g := NewGroupingBlockIterator(src,
		func(r block.Row) []types.Variant { return []types.Variant{r[0]} },
		[]AggregateSpec{{Function: "SUM", ArgColumn: 1}},
		registry,
		[]ColumnInfo{{Name: "GROUP"}, {Name: "SUM"}},
	)
	rows := drain(t, g)
	require.Len(rows, 2)

	totals := map[string]int64{}
	for _, r := range rows {
		k, _ := r[0].AsString()
		v, _ := r[1].AsInt()
		totals[k] = v
	}
	require.Equal(int64(4), totals["a"])
	require.Equal(int64(2), totals["b"])
}

func TestHashingBlockIteratorLookup(t *testing.T) {
	require := require.New(t)
	src := rowsIterator(nil, []block.Row{
		{types.NewInt(1), types.NewString("x")},
		{types.NewInt(2), types.NewString("y")},
	})
	h := NewHashingBlockIterator(src, func(r block.Row) []types.Variant { return []types.Variant{r[0]} })

	matches, err := h.Lookup([]types.Variant{types.NewInt(1)})
	require.NoError(err)
	require.Len(matches, 1)
	s, _ := matches[0][1].AsString()
	require.Equal("x", s)
}

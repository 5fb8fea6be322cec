package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csvsqldb/csvsqldb/sql/types"
)

func TestBlockRoundTripPreservesRowsAndNulls(t *testing.T) {
	require := require.New(t)

	m := NewBlockManager(0, 0)
	b, err := m.CreateBlock()
	require.NoError(err)

	require.NoError(b.AddInt(1, false))
	require.NoError(b.AddString("Alice", false))
	b.NextRow()

	require.NoError(b.AddInt(0, true))
	require.NoError(b.AddString("Bob", false))
	b.NextRow()

	b.EndBlocks()

	rows := b.Rows()
	require.Len(rows, 2)

	id0, _ := rows[0][0].AsInt()
	require.Equal(int64(1), id0)
	name0, _ := rows[0][1].AsString()
	require.Equal("Alice", name0)

	require.True(rows[1][0].IsNull())
	name1, _ := rows[1][1].AsString()
	require.Equal("Bob", name1)

	require.True(b.IsEnd())
}

func TestBlockManagerEnforcesActiveBudget(t *testing.T) {
	require := require.New(t)

	m := NewBlockManager(2, 0)
	b1, err := m.CreateBlock()
	require.NoError(err)
	_, err = m.CreateBlock()
	require.NoError(err)

	_, err = m.CreateBlock()
	require.Error(err)
	require.Contains(err.Error(), "exceeded maximum number of active blocks")
	require.Equal(2, m.ActiveBlocks())

	require.NoError(m.Release(b1))
	require.Equal(1, m.ActiveBlocks())
	require.Equal(2, m.MaxUsedBlocks())
}

func TestBlockOverflowMarksContinuation(t *testing.T) {
	require := require.New(t)

	m := NewBlockManager(0, 64)
	b, err := m.CreateBlock()
	require.NoError(err)

	var n int
	for b.HasSizeFor(17) {
		require.NoError(b.AddInt(int64(n), false))
		b.NextRow()
		n++
	}
	require.Greater(n, 0)

	err = b.AddString("this value does not fit anymore in the remaining budget", false)
	require.Error(err)
	b.MarkNextBlock()
	require.True(b.IsContinued())
}

func TestBlockManagerReleaseOfUnknownBlock(t *testing.T) {
	require := require.New(t)
	m := NewBlockManager(0, 0)
	foreign := newBlock(999, DefaultBlockCapacity)
	err := m.Release(foreign)
	require.Error(err)
	require.Contains(err.Error(), "did not create")
}

func TestCellTypesRoundTrip(t *testing.T) {
	require := require.New(t)
	m := NewBlockManager(0, 0)
	b, _ := m.CreateBlock()

	require.NoError(b.AddBool(true, false))
	require.NoError(b.AddReal(3.5, false))
	b.NextRow()
	row := b.Rows()[0]
	require.Equal(types.Boolean, row[0].Type())
	require.Equal(types.Real, row[1].Type())
}

package plan

import (
	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/iterator"
)

// rowIteratorAdapter lets a plan.Operator (which additionally implements
// Dump) be consumed wherever an iterator.RowIterator is expected.
type rowIteratorAdapter struct {
	Operator
}

// SortOperatorNode wraps iterator.SortingBlockIterator, materializing its
// child fully before producing the first row in ORDER BY order: sort,
// group and hash operators all materialize their input fully before
// producing their first output row.
type SortOperatorNode struct {
	child Operator
	keys  []iterator.SortKey
	inner *iterator.SortingBlockIterator
}

// NewSortOperatorNode sorts child's rows by keys, resolved against
// child's schema at construction time.
func NewSortOperatorNode(child Operator, keys []iterator.SortKey) *SortOperatorNode {
	inner := iterator.NewSortingBlockIterator(rowIteratorAdapter{child}, keys)
	return &SortOperatorNode{child: child, keys: keys, inner: inner}
}

func (s *SortOperatorNode) Columns() []ColumnInfo { return s.child.Columns() }

func (s *SortOperatorNode) Next() (block.Row, error) { return s.inner.Next() }

func (s *SortOperatorNode) Close() error { return s.inner.Close() }

func (s *SortOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "Sort (%d keys)", len(s.keys)) + s.child.Dump(indent+1)
}

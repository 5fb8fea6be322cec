package plan

import (
	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/function"
	"github.com/csvsqldb/csvsqldb/sql/iterator"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// GroupingOperatorNode implements GROUP BY: it groups child's rows by a
// set of input column indices and projects the group-by columns followed
// by each aggregate's finalized result, one row per group.
// A bare aggregate query (no GROUP BY) is the degenerate case of zero
// group columns, which folds every row into a single group.
type GroupingOperatorNode struct {
	child     Operator
	groupCols []int
	cols      []ColumnInfo
	inner     *iterator.GroupingBlockIterator
}

// NewGroupingOperatorNode groups child by groupCols, computing
// aggregates via registry. outCols must list the group-by columns'
// ColumnInfo followed by one entry per aggregate, in that order.
func NewGroupingOperatorNode(child Operator, groupCols []int, aggregates []iterator.AggregateSpec, registry *function.Registry, outCols []ColumnInfo) *GroupingOperatorNode {
	keyFunc := func(row block.Row) []types.Variant {
		key := make([]types.Variant, len(groupCols))
		for i, idx := range groupCols {
			key[i] = row[idx]
		}
		return key
	}
	inner := iterator.NewGroupingBlockIterator(rowIteratorAdapter{child}, keyFunc, aggregates, registry, outCols)
	return &GroupingOperatorNode{child: child, groupCols: groupCols, cols: outCols, inner: inner}
}

func (g *GroupingOperatorNode) Columns() []ColumnInfo { return g.cols }

func (g *GroupingOperatorNode) Next() (block.Row, error) { return g.inner.Next() }

func (g *GroupingOperatorNode) Close() error { return g.inner.Close() }

func (g *GroupingOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "Grouping (%d keys, %d aggregates)", len(g.groupCols), len(g.cols)-len(g.groupCols)) +
		g.child.Dump(indent+1)
}

// AggregationOperatorNode is the bare-aggregate case with no GROUP BY:
// every row folds into one implicit group. It behaves exactly like a
// GroupingOperatorNode with no group columns and differs only in its
// EXPLAIN label. Non-aggregate expressions in the SELECT list are
// rejected before it is built, by the builder's checkBareAggregation,
// with "no aggregation on other than aggregation functions".
type AggregationOperatorNode struct {
	*GroupingOperatorNode
}

// NewAggregationOperatorNode wraps child with a single implicit group.
// It does not check the output expressions itself; the builder has
// already done so at plan time.
func NewAggregationOperatorNode(child Operator, aggregates []iterator.AggregateSpec, registry *function.Registry, outCols []ColumnInfo) *AggregationOperatorNode {
	return &AggregationOperatorNode{NewGroupingOperatorNode(child, nil, aggregates, registry, outCols)}
}

func (a *AggregationOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "Aggregation (%d aggregates)", len(a.cols)) + a.child.Dump(indent+1)
}

package plan

import (
	"io"

	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/iterator"
	"github.com/csvsqldb/csvsqldb/sql/types"
	"github.com/csvsqldb/csvsqldb/sql/vm"
)

// nullRow builds a row of SQL nulls shaped like cols, used by outer
// joins to pad the side that found no match.
func nullRow(cols []ColumnInfo) block.Row {
	row := make(block.Row, len(cols))
	for i, c := range cols {
		row[i] = types.NewNull(c.Type)
	}
	return row
}

func concatCols(left, right []ColumnInfo) []ColumnInfo {
	out := make([]ColumnInfo, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

func concatRows(left, right block.Row) block.Row {
	out := make(block.Row, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

// CrossJoinOperatorNode produces the Cartesian product of its two
// children: the right side is cached and rewound once per left row,
// since it may be read many times.
type CrossJoinOperatorNode struct {
	left  Operator
	right *iterator.CachingBlockIterator
	cols  []ColumnInfo

	leftRow block.Row
	started bool
}

// NewCrossJoinOperatorNode builds the unconditional join of left and
// right, caching right's rows in blocks checked out from manager.
func NewCrossJoinOperatorNode(left, right Operator, manager *block.BlockManager) *CrossJoinOperatorNode {
	cached := iterator.NewCachingBlockIterator(rowIteratorAdapter{right}, manager)
	return &CrossJoinOperatorNode{left: left, right: cached, cols: concatCols(left.Columns(), right.Columns())}
}

func (j *CrossJoinOperatorNode) Columns() []ColumnInfo { return j.cols }

func (j *CrossJoinOperatorNode) Next() (block.Row, error) {
	for {
		if !j.started {
			row, err := j.left.Next()
			if err != nil {
				return nil, err
			}
			j.leftRow = row
			if err := j.right.Rewind(); err != nil {
				return nil, err
			}
			j.started = true
		}

		rightRow, err := j.right.Next()
		if err == io.EOF {
			j.started = false
			continue
		}
		if err != nil {
			return nil, err
		}
		return concatRows(j.leftRow, rightRow), nil
	}
}

func (j *CrossJoinOperatorNode) Close() error {
	err1 := j.left.Close()
	err2 := j.right.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (j *CrossJoinOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "CrossJoin") + j.left.Dump(indent+1)
}

// JoinOuterKind distinguishes the three hash-join flavors sharing
// HashJoinOperatorNode's probe loop: inner, left-preserving, and
// right-preserving.
type JoinOuterKind int

const (
	InnerJoin JoinOuterKind = iota
	LeftOuterJoin
	RightOuterJoin
)

// HashJoinOperatorNode implements equi-join via a hash built on the
// build side the caller passes: the right-hand table for INNER and LEFT
// joins, the left-hand table for RIGHT joins. The sizes of the two sides
// are not compared. For LEFT/RIGHT OUTER the preserved side drives
// the probe loop so output ordering matches it.
type HashJoinOperatorNode struct {
	kind JoinOuterKind

	probe     Operator
	probeKey  int
	build     *iterator.HashingBlockIterator
	buildCols []ColumnInfo
	evaluator *vm.Evaluator
	cond      CompiledExpr
	swapped   bool // true if probe side is logically the right relation

	cols []ColumnInfo

	matched    []block.Row
	matchIdx   int
	probeRow   block.Row
	emittedAny bool
}

// NewHashJoinOperatorNode builds a hash on buildSide keyed by buildKey
// and probes it with probeSide's buildKey-equivalent probeKey. cond, if
// non-nil, is an extra residual predicate evaluated per candidate pair
// (the extra column equalities of a NATURAL or USING join). swapped indicates probeSide is
// the right-hand table textually, so output columns are re-ordered to
// (left, right) regardless of which side is the probe.
func NewHashJoinOperatorNode(kind JoinOuterKind, probeSide, buildSide Operator, probeKey, buildKey int, manager *block.BlockManager, swapped bool, cond CompiledExpr, evaluator *vm.Evaluator) *HashJoinOperatorNode {
	buildCols := buildSide.Columns()
	keyFunc := func(row block.Row) []types.Variant { return []types.Variant{row[buildKey]} }
	build := iterator.NewHashingBlockIterator(rowIteratorAdapter{buildSide}, keyFunc)

	var cols []ColumnInfo
	if swapped {
		cols = concatCols(buildCols, probeSide.Columns())
	} else {
		cols = concatCols(probeSide.Columns(), buildCols)
	}

	return &HashJoinOperatorNode{
		kind: kind, probe: probeSide, probeKey: probeKey, build: build, buildCols: buildCols,
		evaluator: evaluator, cond: cond, swapped: swapped, cols: cols,
	}
}

func (j *HashJoinOperatorNode) Columns() []ColumnInfo { return j.cols }

func (j *HashJoinOperatorNode) combine(probeRow, buildRow block.Row) block.Row {
	if j.swapped {
		return concatRows(buildRow, probeRow)
	}
	return concatRows(probeRow, buildRow)
}

func (j *HashJoinOperatorNode) checkCond(probeRow, buildRow block.Row) (bool, error) {
	if j.cond.Program == nil {
		return true, nil
	}
	combined := j.combine(probeRow, buildRow)
	v, err := eval(j.evaluator, j.cond, j.cols, combined)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	return v.AsBool()
}

func (j *HashJoinOperatorNode) Next() (block.Row, error) {
	for {
		if j.matchIdx < len(j.matched) {
			buildRow := j.matched[j.matchIdx]
			j.matchIdx++
			ok, err := j.checkCond(j.probeRow, buildRow)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			j.emittedAny = true
			return j.combine(j.probeRow, buildRow), nil
		}

		if j.probeRow != nil && !j.emittedAny && j.kind != InnerJoin {
			row := j.probeRow
			j.probeRow = nil
			return j.combine(row, nullRow(j.buildCols)), nil
		}

		row, err := j.probe.Next()
		if err != nil {
			return nil, err
		}
		j.probeRow = row
		j.emittedAny = false
		matched, err := j.build.Lookup([]types.Variant{row[j.probeKey]})
		if err != nil {
			return nil, err
		}
		j.matched = matched
		j.matchIdx = 0
	}
}

func (j *HashJoinOperatorNode) Close() error {
	err1 := j.probe.Close()
	err2 := j.build.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (j *HashJoinOperatorNode) Dump(indent int) string {
	name := "InnerHashJoin"
	switch j.kind {
	case LeftOuterJoin:
		name = "LeftJoin"
	case RightOuterJoin:
		name = "RightJoin"
	}
	return dumpLine(indent, name) + j.probe.Dump(indent+1)
}

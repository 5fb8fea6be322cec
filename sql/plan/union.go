package plan

import (
	"io"

	"github.com/mitchellh/hashstructure"

	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// UnionOperatorNode concatenates its children's rows in order; with
// Distinct set it hashes each row to drop duplicates, matching the SQL
// UNION (as opposed to UNION ALL) semantics. A hash match only narrows
// the candidate set: seen stores every row kept under a given hash, and
// a row is a true duplicate only if types.SameValues confirms it
// against one of them, so hash collisions can't drop distinct rows.
type UnionOperatorNode struct {
	children []Operator
	distinct bool
	cols     []ColumnInfo

	idx  int
	seen map[uint64][]block.Row
}

// NewUnionOperatorNode concatenates children, all of which must share
// the first child's column shape. Columns reports the first child's
// columns; neither this operator nor the symbol table checks that the
// other children match them.
func NewUnionOperatorNode(children []Operator, distinct bool) *UnionOperatorNode {
	u := &UnionOperatorNode{children: children, distinct: distinct}
	if len(children) > 0 {
		u.cols = children[0].Columns()
	}
	if distinct {
		u.seen = map[uint64][]block.Row{}
	}
	return u
}

func (u *UnionOperatorNode) Columns() []ColumnInfo { return u.cols }

func (u *UnionOperatorNode) Next() (block.Row, error) {
	for u.idx < len(u.children) {
		row, err := u.children[u.idx].Next()
		if err == io.EOF {
			u.idx++
			continue
		}
		if err != nil {
			return nil, err
		}

		if u.distinct {
			hash, err := hashstructure.Hash(row, nil)
			if err != nil {
				return nil, err
			}
			dup := false
			for _, candidate := range u.seen[hash] {
				if types.SameValues(candidate, row) {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			u.seen[hash] = append(u.seen[hash], row)
		}
		return row, nil
	}
	return nil, io.EOF
}

func (u *UnionOperatorNode) Close() error {
	var first error
	for _, c := range u.children {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (u *UnionOperatorNode) Dump(indent int) string {
	out := dumpLine(indent, "Union (distinct=%v)", u.distinct)
	for _, c := range u.children {
		out += c.Dump(indent + 1)
	}
	return out
}

// setOpOperatorNode implements INTERSECT and EXCEPT: it materializes
// right's row hashes up front, then streams left, keeping a row only if
// its hash is (for INTERSECT) or is not (for EXCEPT) present on the
// right side. Per standard SQL semantics both set operators imply
// DISTINCT, so a left-side hash is also consumed after its first match.
// As in UnionOperatorNode, a hash match is only a candidate: the actual
// right-side/seen rows are kept per hash bucket and re-checked with
// types.SameValues before being trusted.
type setOpOperatorNode struct {
	left, right Operator
	keep        bool // true = INTERSECT semantics, false = EXCEPT
	cols        []ColumnInfo

	rightHashes map[uint64][]block.Row
	seenLeft    map[uint64][]block.Row
	built       bool
}

func newSetOpOperatorNode(left, right Operator, keep bool) *setOpOperatorNode {
	return &setOpOperatorNode{left: left, right: right, keep: keep, cols: left.Columns(), seenLeft: map[uint64][]block.Row{}}
}

func (s *setOpOperatorNode) Columns() []ColumnInfo { return s.cols }

func (s *setOpOperatorNode) materializeRight() error {
	s.rightHashes = map[uint64][]block.Row{}
	for {
		row, err := s.right.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		hash, err := hashstructure.Hash(row, nil)
		if err != nil {
			return err
		}
		s.rightHashes[hash] = append(s.rightHashes[hash], row)
	}
}

func rowInBucket(bucket []block.Row, row block.Row) bool {
	for _, candidate := range bucket {
		if types.SameValues(candidate, row) {
			return true
		}
	}
	return false
}

func (s *setOpOperatorNode) Next() (block.Row, error) {
	if !s.built {
		if err := s.materializeRight(); err != nil {
			return nil, err
		}
		s.built = true
	}

	for {
		row, err := s.left.Next()
		if err != nil {
			return nil, err
		}
		hash, err := hashstructure.Hash(row, nil)
		if err != nil {
			return nil, err
		}
		if rowInBucket(s.seenLeft[hash], row) {
			continue
		}
		onRight := rowInBucket(s.rightHashes[hash], row)
		if onRight != s.keep {
			continue
		}
		s.seenLeft[hash] = append(s.seenLeft[hash], row)
		return row, nil
	}
}

func (s *setOpOperatorNode) Close() error {
	err1 := s.left.Close()
	err2 := s.right.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *setOpOperatorNode) Dump(indent int) string {
	name := "Except"
	if s.keep {
		name = "Intersect"
	}
	return dumpLine(indent, name) + s.left.Dump(indent+1) + s.right.Dump(indent+1)
}

// LimitOperatorNode skips Offset rows then passes through up to Limit
// rows. A negative Limit means unbounded.
type LimitOperatorNode struct {
	child  Operator
	limit  int64
	offset int64

	skipped bool
	emitted int64
}

// NewLimitOperatorNode wraps child with a LIMIT/OFFSET window.
func NewLimitOperatorNode(child Operator, limit, offset int64) *LimitOperatorNode {
	return &LimitOperatorNode{child: child, limit: limit, offset: offset}
}

func (l *LimitOperatorNode) Columns() []ColumnInfo { return l.child.Columns() }

func (l *LimitOperatorNode) Next() (block.Row, error) {
	if !l.skipped {
		for i := int64(0); i < l.offset; i++ {
			if _, err := l.child.Next(); err != nil {
				return nil, err
			}
		}
		l.skipped = true
	}
	if l.limit >= 0 && l.emitted >= l.limit {
		return nil, io.EOF
	}
	row, err := l.child.Next()
	if err != nil {
		return nil, err
	}
	l.emitted++
	return row, nil
}

func (l *LimitOperatorNode) Close() error { return l.child.Close() }

func (l *LimitOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "Limit (limit=%d offset=%d)", l.limit, l.offset) + l.child.Dump(indent+1)
}

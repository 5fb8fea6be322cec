package plan

import (
	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/vm"
)

// SelectOperatorNode evaluates a single boolean expression per input row
// and passes through only the rows where it is true; a NULL result is
// treated as false, per's three-valued short-circuit.
type SelectOperatorNode struct {
	child     Operator
	predicate CompiledExpr
	evaluator *vm.Evaluator
}

// NewSelectOperatorNode wraps child, filtering by predicate.
func NewSelectOperatorNode(child Operator, predicate CompiledExpr, evaluator *vm.Evaluator) *SelectOperatorNode {
	return &SelectOperatorNode{child: child, predicate: predicate, evaluator: evaluator}
}

func (s *SelectOperatorNode) Columns() []ColumnInfo { return s.child.Columns() }

func (s *SelectOperatorNode) Next() (block.Row, error) {
	cols := s.child.Columns()
	for {
		row, err := s.child.Next()
		if err != nil {
			return nil, err
		}

		result, err := eval(s.evaluator, s.predicate, cols, row)
		if err != nil {
			return nil, err
		}
		if result.IsNull() {
			continue
		}
		pass, err := result.AsBool()
		if err != nil {
			return nil, err
		}
		if pass {
			return row, nil
		}
	}
}

func (s *SelectOperatorNode) Close() error { return s.child.Close() }

func (s *SelectOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "Select") + s.child.Dump(indent+1)
}

// Package plan implements the physical operator pipeline (C11 in the
// design): a tree of pull-based Operators, each reading rows from its
// children on demand and exposing the same RowIterator-shaped interface
// so operators compose without the planner needing special cases.
package plan

import (
	"fmt"
	"strings"

	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/iterator"
	"github.com/csvsqldb/csvsqldb/sql/types"
	"github.com/csvsqldb/csvsqldb/sql/vm"
)

// ColumnInfo is an alias of iterator.ColumnInfo so callers of this
// package need not import iterator directly for the common case.
type ColumnInfo = iterator.ColumnInfo

// Operator is the interface every physical plan node implements: a
// RowIterator that can additionally render itself for EXPLAIN EXEC.
type Operator interface {
	iterator.RowIterator
	Dump(indent int) string
}

func dumpLine(indent int, format string, args ...interface{}) string {
	return strings.Repeat("  ", indent) + fmt.Sprintf(format, args...) + "\n"
}

// CompiledExpr pairs a compiled program with the variable slots the
// builder allocated for it, ready to evaluate against any row via
// operatorRow.
type CompiledExpr struct {
	Program []vm.Instruction
	Vars    []vm.VarRef
}

// operatorRow adapts a block.Row plus its ColumnInfo slice to vm.Row so
// compiled programs can resolve PUSHVAR by table/column name.
type operatorRow struct {
	cols []ColumnInfo
	row  block.Row
}

func (r operatorRow) Value(ref vm.VarRef) (types.Variant, error) {
	for i, c := range r.cols {
		if c.Name == ref.Column && (ref.Table == "" || c.Table == ref.Table) {
			return r.row[i], nil
		}
	}
	return types.Variant{}, fmt.Errorf("column '%s.%s' not found in row", ref.Table, ref.Column)
}

// eval runs expr.Program against row (described by cols) using evaluator,
// binding its variable slots first.
func eval(evaluator *vm.Evaluator, expr CompiledExpr, cols []ColumnInfo, row block.Row) (types.Variant, error) {
	evaluator.BindVariables(expr.Vars)
	return evaluator.Eval(expr.Program, operatorRow{cols: cols, row: row})
}

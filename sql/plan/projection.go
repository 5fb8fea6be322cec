package plan

import (
	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/vm"
)

// ProjectionOperatorNode is the plain column reorder/subset case of a
// SELECT list: no expressions, just a list of input column indices to
// copy into the output row.
type ProjectionOperatorNode struct {
	child   Operator
	indices []int
	cols    []ColumnInfo
}

// NewProjectionOperatorNode projects child's columns at indices, in
// order.
func NewProjectionOperatorNode(child Operator, indices []int) *ProjectionOperatorNode {
	childCols := child.Columns()
	cols := make([]ColumnInfo, len(indices))
	for i, idx := range indices {
		cols[i] = childCols[idx]
	}
	return &ProjectionOperatorNode{child: child, indices: indices, cols: cols}
}

func (p *ProjectionOperatorNode) Columns() []ColumnInfo { return p.cols }

func (p *ProjectionOperatorNode) Next() (block.Row, error) {
	row, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	out := make(block.Row, len(p.indices))
	for i, idx := range p.indices {
		out[i] = row[idx]
	}
	return out, nil
}

func (p *ProjectionOperatorNode) Close() error { return p.child.Close() }

func (p *ProjectionOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "Projection") + p.child.Dump(indent+1)
}

// ProjectionItemKind distinguishes the three SELECT-list item shapes
// ExtendedProjectionOperatorNode supports.
type ProjectionItemKind int

const (
	// CopyColumn copies one input column verbatim (plain identifier).
	CopyColumn ProjectionItemKind = iota
	// TableStar expands every column of one input table (T.*).
	TableStar
	// EvalExpr evaluates a compiled expression program.
	EvalExpr
)

// ProjectionItem is one entry of the compiled SELECT list.
type ProjectionItem struct {
	Kind       ProjectionItemKind
	SrcIndex   int    // CopyColumn
	TableAlias string // TableStar
	Expr       CompiledExpr
	Output     ColumnInfo
}

// ExtendedProjectionOperatorNode implements the general SELECT list:
// identifiers, qualified T.* expansion, and compiled expressions mixed
// freely, in SELECT-list order.
type ExtendedProjectionOperatorNode struct {
	child     Operator
	items     []ProjectionItem
	cols      []ColumnInfo
	evaluator *vm.Evaluator
}

// NewExtendedProjectionOperatorNode builds the operator, expanding any
// TableStar items against child's current schema so Columns() reflects
// every output column up front.
func NewExtendedProjectionOperatorNode(child Operator, items []ProjectionItem, evaluator *vm.Evaluator) *ExtendedProjectionOperatorNode {
	childCols := child.Columns()
	var cols []ColumnInfo
	var expanded []ProjectionItem
	for _, item := range items {
		if item.Kind == TableStar {
			for idx, c := range childCols {
				if c.Table == item.TableAlias {
					expanded = append(expanded, ProjectionItem{Kind: CopyColumn, SrcIndex: idx, Output: c})
					cols = append(cols, c)
				}
			}
			continue
		}
		expanded = append(expanded, item)
		cols = append(cols, item.Output)
	}
	return &ExtendedProjectionOperatorNode{child: child, items: expanded, cols: cols, evaluator: evaluator}
}

func (e *ExtendedProjectionOperatorNode) Columns() []ColumnInfo { return e.cols }

func (e *ExtendedProjectionOperatorNode) Next() (block.Row, error) {
	row, err := e.child.Next()
	if err != nil {
		return nil, err
	}
	childCols := e.child.Columns()

	out := make(block.Row, len(e.items))
	for i, item := range e.items {
		switch item.Kind {
		case CopyColumn:
			out[i] = row[item.SrcIndex]
		case EvalExpr:
			v, err := eval(e.evaluator, item.Expr, childCols, row)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
	}
	return out, nil
}

func (e *ExtendedProjectionOperatorNode) Close() error { return e.child.Close() }

func (e *ExtendedProjectionOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "ExtendedProjection (%d columns)", len(e.items)) + e.child.Dump(indent+1)
}

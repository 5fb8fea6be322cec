package plan

import (
	"fmt"
	"os"

	"github.com/csvsqldb/csvsqldb/catalog"
	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/csv"
	"github.com/csvsqldb/csvsqldb/sql/ast"
	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/function"
	"github.com/csvsqldb/csvsqldb/sql/iterator"
	"github.com/csvsqldb/csvsqldb/sql/vm"
)

// Builder lowers a validated *ast.SelectStatement into a physical
// Operator tree (C11), resolving FROM-clause tables against Catalog and
// compiling every expression through a fresh vm.Compiler per
// sub-expression (plan.go's eval rebinds a CompiledExpr's own variable
// slots on every call, so compilers never need to be shared).
type Builder struct {
	catalog   *catalog.Catalog
	registry  *function.Registry
	manager   *block.BlockManager
	evaluator *vm.Evaluator
	files     []string

	readers []*csv.BlockReader
}

// NewBuilder creates a Builder that resolves table scans against
// catalog, using files as the candidate file list mapping patterns are
// matched against.
func NewBuilder(cat *catalog.Catalog, registry *function.Registry, manager *block.BlockManager, files []string) *Builder {
	return &Builder{
		catalog:   cat,
		registry:  registry,
		manager:   manager,
		evaluator: vm.NewEvaluator(registry),
		files:     files,
	}
}

// Cancel stops every table scan's producer goroutine this Builder has
// created so far; each producer stops before it parses its next CSV
// line.
func (b *Builder) Cancel() {
	for _, r := range b.readers {
		r.Cancel()
	}
}

func (b *Builder) compile(e ast.Expr) (CompiledExpr, error) {
	c := vm.NewCompiler()
	prog, err := c.Compile(e)
	if err != nil {
		return CompiledExpr{}, err
	}
	return CompiledExpr{Program: prog, Vars: c.Variables()}, nil
}

// Build lowers stmt, including any UNION/INTERSECT/EXCEPT continuations
// chained through Next, into a single Operator.
func (b *Builder) Build(stmt *ast.SelectStatement) (Operator, error) {
	op, err := b.buildCore(stmt)
	if err != nil {
		return nil, err
	}
	for s := stmt; s.Next != nil; s = s.Next {
		rest, err := b.buildCore(s.Next)
		if err != nil {
			return nil, err
		}
		switch s.SetOperator {
		case ast.Union:
			op = NewUnionOperatorNode([]Operator{op, rest}, true)
		case ast.Intersect:
			op = newSetOpOperatorNode(op, rest, true)
		case ast.Except:
			op = newSetOpOperatorNode(op, rest, false)
		default:
			return nil, csverrors.Internal.New(fmt.Sprintf("unknown set operator %v", s.SetOperator))
		}
	}
	return op, nil
}

// buildCore lowers one SELECT (no set-operator continuation): FROM,
// WHERE, GROUP BY/aggregates, HAVING, SELECT list, ORDER BY, LIMIT.
func (b *Builder) buildCore(stmt *ast.SelectStatement) (Operator, error) {
	op, err := b.buildFrom(stmt.From)
	if err != nil {
		return nil, err
	}

	if stmt.Where != nil {
		pred, err := b.compile(stmt.Where)
		if err != nil {
			return nil, err
		}
		op = NewSelectOperatorNode(op, pred, b.evaluator)
	}

	aggregates := collectAggregateCalls(b.registry, stmt.Columns)
	if stmt.Having != nil {
		aggregates = append(aggregates, collectAggregateCalls(b.registry, []ast.Expr{stmt.Having})...)
	}
	aggregating := len(stmt.GroupBy) > 0 || len(aggregates) > 0

	var replacements map[ast.Expr]ast.Expr
	if aggregating {
		op, replacements, err = b.buildGrouping(op, stmt, aggregates)
		if err != nil {
			return nil, err
		}
	}

	selectCols := stmt.Columns
	having := stmt.Having
	if replacements != nil {
		selectCols = make([]ast.Expr, len(stmt.Columns))
		for i, c := range stmt.Columns {
			selectCols[i] = substitute(c, replacements)
		}
		if having != nil {
			having = substitute(having, replacements)
		}
	}

	op, err = b.buildProjection(op, selectCols)
	if err != nil {
		return nil, err
	}

	if having != nil {
		pred, err := b.compile(having)
		if err != nil {
			return nil, err
		}
		op = NewSelectOperatorNode(op, pred, b.evaluator)
	}

	if stmt.Distinct {
		op = NewUnionOperatorNode([]Operator{op}, true)
	}

	if len(stmt.OrderBy) > 0 {
		op, err = b.buildSort(op, stmt.OrderBy)
		if err != nil {
			return nil, err
		}
	}

	if stmt.Limit != nil || stmt.Offset != nil {
		op, err = b.buildLimit(op, stmt.Limit, stmt.Offset)
		if err != nil {
			return nil, err
		}
	}

	return op, nil
}

// buildFrom lowers the FROM clause: the first table ref (plus any joins
// chained off it) forms the left side; additional comma-separated refs
// cross-join in left to right.
func (b *Builder) buildFrom(refs []*ast.TableRef) (Operator, error) {
	var op Operator
	for _, ref := range refs {
		next, err := b.buildTableRef(ref)
		if err != nil {
			return nil, err
		}
		if op == nil {
			op = next
			continue
		}
		op = NewCrossJoinOperatorNode(op, next, b.manager)
	}
	if op == nil {
		return nil, csverrors.Sql.New("SELECT statement has no FROM clause")
	}
	return op, nil
}

func (b *Builder) buildTableRef(ref *ast.TableRef) (Operator, error) {
	var op Operator
	var err error
	switch {
	case ref.Subquery != nil:
		op, err = b.Build(ref.Subquery)
	default:
		op, err = b.buildScan(ref.Table, ref.Alias)
	}
	if err != nil {
		return nil, err
	}

	for _, j := range ref.Joins {
		op, err = b.buildJoin(op, j)
		if err != nil {
			return nil, err
		}
	}
	return op, nil
}

func (b *Builder) buildScan(table, alias string) (Operator, error) {
	if catalog.IsSystemTable(table) {
		cols, err := catalog.SystemTableColumns(table)
		if err != nil {
			return nil, err
		}
		rows, err := b.catalog.SystemTableRows(table, b.registry)
		if err != nil {
			return nil, err
		}
		return NewSystemTableScanOperatorNode(table, cols, rows), nil
	}

	t, err := b.catalog.GetTable(table)
	if err != nil {
		return nil, err
	}
	file, rule, err := b.catalog.ResolveFile(table, b.files)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, csverrors.Filesystem.New(fmt.Sprintf("could not open %q: %s", file, err))
	}

	specs := make([]csv.ColumnSpec, len(t.Columns))
	cols := make([]ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		specs[i] = csv.ColumnSpec{Name: c.Name, Type: c.Type, NotNull: c.NotNull}
		cols[i] = ColumnInfo{Name: c.Name, Type: c.Type}
	}

	parser := csv.NewParser(f, rule.Delimiter, rule.SkipFirstLine)
	reader := csv.NewBlockReader(parser, specs, b.manager, nil)
	b.readers = append(b.readers, reader)
	rowReader := csv.NewRowReader(reader, b.manager)
	return NewTableScanOperatorNode(table, alias, cols, &closingRowReader{rowReader, f}), nil
}

// closingRowReader makes sure the scan's backing os.File closes together
// with its RowReader.
type closingRowReader struct {
	*csv.RowReader
	f *os.File
}

func (c *closingRowReader) Close() error {
	err := c.RowReader.Close()
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (b *Builder) buildJoin(left Operator, j ast.Join) (Operator, error) {
	right, err := b.buildTableRef(j.Right)
	if err != nil {
		return nil, err
	}

	if j.Kind == ast.CrossJoin || (j.On == nil && len(j.Using) == 0 && !j.Natural) {
		return NewCrossJoinOperatorNode(left, right, b.manager), nil
	}

	leftKey, rightKey, residual, err := b.resolveJoinKeys(left, right, j)
	if err != nil {
		return nil, err
	}

	var cond CompiledExpr
	if residual != nil {
		cond, err = b.compile(residual)
		if err != nil {
			return nil, err
		}
	}

	switch j.Kind {
	case ast.LeftJoin:
		return NewHashJoinOperatorNode(LeftOuterJoin, left, right, leftKey, rightKey, b.manager, false, cond, b.evaluator), nil
	case ast.RightJoin:
		// Swap sides so the preserved (right) table drives the probe loop.
		return NewHashJoinOperatorNode(RightOuterJoin, right, left, rightKey, leftKey, b.manager, true, cond, b.evaluator), nil
	case ast.FullJoin:
		return nil, csverrors.Sql.New("FULL OUTER JOIN is not supported")
	default:
		return NewHashJoinOperatorNode(InnerJoin, left, right, leftKey, rightKey, b.manager, false, cond, b.evaluator), nil
	}
}

// resolveJoinKeys extracts the single equi-join column pair driving the
// hash join from an ON clause of the form "left.col = right.col" (in
// either order), a NATURAL join (matches every same-named column, using
// only the first for the hash key and the rest as residual predicate),
// or a USING list (the first column is the hash key, the rest become the
// residual predicate evaluated per candidate pair). An ON clause must be
// exactly one column equality; any other ON clause is rejected.
func (b *Builder) resolveJoinKeys(left, right Operator, j ast.Join) (leftKey, rightKey int, residual ast.Expr, err error) {
	leftCols, rightCols := left.Columns(), right.Columns()

	switch {
	case j.Natural:
		var names []string
		for _, lc := range leftCols {
			for _, rc := range rightCols {
				if lc.Name == rc.Name {
					names = append(names, lc.Name)
				}
			}
		}
		if len(names) == 0 {
			return 0, 0, nil, csverrors.Sql.New("NATURAL JOIN found no common columns")
		}
		return findColumn(leftCols, "", names[0]), findColumn(rightCols, "", names[0]), natJoinResidual(leftCols, rightCols, names[1:]), nil

	case len(j.Using) > 0:
		return findColumn(leftCols, "", j.Using[0]), findColumn(rightCols, "", j.Using[0]), natJoinResidual(leftCols, rightCols, j.Using[1:]), nil

	case j.On != nil:
		eq, ok := j.On.(*ast.BinaryOp)
		if ok && eq.Op == "=" {
			if lc, ok := eq.Left.(*ast.ColumnRef); ok {
				if rc, ok := eq.Right.(*ast.ColumnRef); ok {
					li, ri := findColumn(leftCols, lc.Table, lc.Column), findColumn(rightCols, rc.Table, rc.Column)
					if li < 0 || ri < 0 {
						li, ri = findColumn(leftCols, rc.Table, rc.Column), findColumn(rightCols, lc.Table, lc.Column)
					}
					if li >= 0 && ri >= 0 {
						return li, ri, nil, nil
					}
				}
			}
		}
		return 0, 0, nil, csverrors.Sql.New("ON clause must be a simple column equality for a hash join")

	default:
		return 0, 0, nil, csverrors.Sql.New("join has no ON, USING, or NATURAL condition")
	}
}

func natJoinResidual(leftCols, rightCols []ColumnInfo, names []string) ast.Expr {
	var residual ast.Expr
	for _, n := range names {
		li, ri := findColumn(leftCols, "", n), findColumn(rightCols, "", n)
		if li < 0 || ri < 0 {
			continue
		}
		eq := &ast.BinaryOp{
			Op:    "=",
			Left:  &ast.ColumnRef{Table: leftCols[li].Table, Column: leftCols[li].Name},
			Right: &ast.ColumnRef{Table: rightCols[ri].Table, Column: rightCols[ri].Name},
		}
		if residual == nil {
			residual = eq
		} else {
			residual = &ast.BinaryOp{Op: "AND", Left: residual, Right: eq}
		}
	}
	return residual
}

func findColumn(cols []ColumnInfo, table, name string) int {
	for i, c := range cols {
		if c.Name == name && (table == "" || c.Table == table) {
			return i
		}
	}
	return -1
}

// buildGrouping wraps op with an ExtendedProjectionOperatorNode exposing
// one synthetic column per aggregate's argument expression, then a
// Grouping/AggregationOperatorNode over it. It returns a replacement map
// from each aggregate FunctionCall node to a ColumnRef for its finalized
// result column, so the caller can rewrite the SELECT list and HAVING
// clause to reference the already-computed value instead of recompiling
// the call.
func (b *Builder) buildGrouping(op Operator, stmt *ast.SelectStatement, aggregates []*ast.FunctionCall) (Operator, map[ast.Expr]ast.Expr, error) {
	childCols := op.Columns()

	groupCols := make([]int, len(stmt.GroupBy))
	for i, g := range stmt.GroupBy {
		ref, ok := g.(*ast.ColumnRef)
		if !ok {
			return nil, nil, csverrors.Sql.New("GROUP BY only supports plain column references")
		}
		idx := findColumn(childCols, ref.Table, ref.Column)
		if idx < 0 {
			return nil, nil, csverrors.Sql.New(fmt.Sprintf("column '%s' not found", ref.Column))
		}
		groupCols[i] = idx
	}

	if len(groupCols) == 0 {
		for _, c := range stmt.Columns {
			if err := checkBareAggregation(b.registry, c, false); err != nil {
				return nil, nil, err
			}
		}
		if stmt.Having != nil {
			if err := checkBareAggregation(b.registry, stmt.Having, false); err != nil {
				return nil, nil, err
			}
		}
	}

	var items []ProjectionItem
	for i, c := range childCols {
		items = append(items, ProjectionItem{Kind: CopyColumn, SrcIndex: i, Output: c})
	}

	specs := make([]iterator.AggregateSpec, len(aggregates))
	replacements := map[ast.Expr]ast.Expr{}
	for i, call := range aggregates {
		outName := fmt.Sprintf("$agg%d", i)
		if call.Star {
			specs[i] = iterator.AggregateSpec{Function: call.Name, ArgColumn: -1}
		} else {
			argExpr := call.Args[0]
			argCompiled, err := b.compile(argExpr)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, ProjectionItem{
				Kind: EvalExpr, Expr: argCompiled,
				Output: ColumnInfo{Name: fmt.Sprintf("$aggarg%d", i), Type: argExpr.InferredType()},
			})
			specs[i] = iterator.AggregateSpec{Function: call.Name, ArgColumn: len(items) - 1}
		}
		replacements[call] = &ast.ColumnRef{Table: "", Column: outName}
	}

	extProj := NewExtendedProjectionOperatorNode(op, items, b.evaluator)

	// The extended projection's indices shift once TableStar items (none
	// here) are expanded, but groupCols/ArgColumn above were computed
	// against the pre-projection schema and plain CopyColumn items are
	// emitted 1:1 in order, so indices still line up with extProj's output.
	outCols := make([]ColumnInfo, 0, len(groupCols)+len(aggregates))
	for _, idx := range groupCols {
		outCols = append(outCols, childCols[idx])
	}
	for i, call := range aggregates {
		outCols = append(outCols, ColumnInfo{Name: fmt.Sprintf("$agg%d", i), Type: call.InferredType()})
	}

	var grouped Operator
	if len(groupCols) == 0 {
		grouped = NewAggregationOperatorNode(extProj, specs, b.registry, outCols)
	} else {
		grouped = NewGroupingOperatorNode(extProj, groupCols, specs, b.registry, outCols)
	}
	return grouped, replacements, nil
}

// collectAggregateCalls finds every aggregate FunctionCall reachable
// from exprs without descending into an aggregate's own arguments
// (nested aggregates are not valid SQL).
func collectAggregateCalls(registry *function.Registry, exprs []ast.Expr) []*ast.FunctionCall {
	var out []*ast.FunctionCall
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.FunctionCall:
			if registry.IsAggregate(n.Name) {
				out = append(out, n)
				return
			}
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.BinaryOp:
			walk(n.Left)
			walk(n.Right)
		case *ast.UnaryOp:
			walk(n.Operand)
		case *ast.IsNull:
			walk(n.Operand)
		case *ast.Between:
			walk(n.Operand)
			walk(n.Low)
			walk(n.High)
		case *ast.In:
			walk(n.Operand)
			for _, item := range n.List {
				walk(item)
			}
		case *ast.Like:
			walk(n.Operand)
			walk(n.Pattern)
		case *ast.Cast:
			walk(n.Operand)
		case *ast.AliasedExpr:
			walk(n.Expr)
		}
	}
	for _, e := range exprs {
		walk(e)
	}
	return out
}

// checkBareAggregation enforces "no aggregation on other than
// aggregation functions" for a bare-aggregate (no GROUP BY) query: every
// ColumnRef in a SELECT-list/HAVING expression must sit inside an
// aggregate call's arguments.
func checkBareAggregation(registry *function.Registry, e ast.Expr, insideAggregate bool) error {
	switch n := e.(type) {
	case *ast.ColumnRef:
		if !insideAggregate && n.Column != "*" {
			return csverrors.Sql.New("no aggregation on other than aggregation functions")
		}
	case *ast.FunctionCall:
		isAgg := registry.IsAggregate(n.Name)
		for _, a := range n.Args {
			if err := checkBareAggregation(registry, a, insideAggregate || isAgg); err != nil {
				return err
			}
		}
	case *ast.BinaryOp:
		if err := checkBareAggregation(registry, n.Left, insideAggregate); err != nil {
			return err
		}
		return checkBareAggregation(registry, n.Right, insideAggregate)
	case *ast.UnaryOp:
		return checkBareAggregation(registry, n.Operand, insideAggregate)
	case *ast.Cast:
		return checkBareAggregation(registry, n.Operand, insideAggregate)
	case *ast.AliasedExpr:
		return checkBareAggregation(registry, n.Expr, insideAggregate)
	}
	return nil
}

// substitute returns a copy of e with every node present as a key in
// replacements swapped for its mapped value; unmatched subtrees are
// returned unchanged (without copying) when nothing beneath them
// changed.
func substitute(e ast.Expr, replacements map[ast.Expr]ast.Expr) ast.Expr {
	if r, ok := replacements[e]; ok {
		return r
	}
	switch n := e.(type) {
	case *ast.BinaryOp:
		left, right := substitute(n.Left, replacements), substitute(n.Right, replacements)
		if left == n.Left && right == n.Right {
			return n
		}
		cp := *n
		cp.Left, cp.Right = left, right
		return &cp
	case *ast.UnaryOp:
		operand := substitute(n.Operand, replacements)
		if operand == n.Operand {
			return n
		}
		cp := *n
		cp.Operand = operand
		return &cp
	case *ast.IsNull:
		operand := substitute(n.Operand, replacements)
		if operand == n.Operand {
			return n
		}
		cp := *n
		cp.Operand = operand
		return &cp
	case *ast.Between:
		cp := *n
		cp.Operand = substitute(n.Operand, replacements)
		cp.Low = substitute(n.Low, replacements)
		cp.High = substitute(n.High, replacements)
		return &cp
	case *ast.In:
		cp := *n
		cp.Operand = substitute(n.Operand, replacements)
		list := make([]ast.Expr, len(n.List))
		for i, item := range n.List {
			list[i] = substitute(item, replacements)
		}
		cp.List = list
		return &cp
	case *ast.Like:
		cp := *n
		cp.Operand = substitute(n.Operand, replacements)
		cp.Pattern = substitute(n.Pattern, replacements)
		return &cp
	case *ast.Cast:
		cp := *n
		cp.Operand = substitute(n.Operand, replacements)
		return &cp
	case *ast.FunctionCall:
		cp := *n
		args := make([]ast.Expr, len(n.Args))
		changed := false
		for i, a := range n.Args {
			args[i] = substitute(a, replacements)
			changed = changed || args[i] != a
		}
		if !changed {
			return n
		}
		cp.Args = args
		return &cp
	case *ast.AliasedExpr:
		cp := *n
		cp.Expr = substitute(n.Expr, replacements)
		return &cp
	default:
		return e
	}
}

// buildProjection lowers the SELECT list into a Projection (the common
// plain-column case) or ExtendedProjection operator.
func (b *Builder) buildProjection(op Operator, columns []ast.Expr) (Operator, error) {
	plain := true
	for _, c := range columns {
		if _, aliased := c.(*ast.AliasedExpr); aliased {
			plain = false
			break
		}
		if ref, ok := c.(*ast.ColumnRef); !ok || ref.Column == "*" {
			plain = false
			break
		}
	}

	if plain {
		childCols := op.Columns()
		indices := make([]int, 0, len(columns))
		for _, c := range columns {
			ref := c.(*ast.ColumnRef)
			idx := findColumn(childCols, ref.Table, ref.Column)
			if idx < 0 {
				return nil, csverrors.Sql.New(fmt.Sprintf("column '%s' not found", ref.Column))
			}
			indices = append(indices, idx)
		}
		return NewProjectionOperatorNode(op, indices), nil
	}

	items := make([]ProjectionItem, 0, len(columns))
	for _, c := range columns {
		alias := ""
		e := c
		if a, ok := e.(*ast.AliasedExpr); ok {
			e = a.Expr
			alias = a.Alias
		}
		if ref, ok := e.(*ast.ColumnRef); ok && ref.Column == "*" {
			items = append(items, ProjectionItem{Kind: TableStar, TableAlias: ref.Table})
			continue
		}
		compiled, err := b.compile(e)
		if err != nil {
			return nil, err
		}
		name := alias
		if name == "" {
			name = e.SymbolName()
		}
		if name == "" {
			if ref, ok := e.(*ast.ColumnRef); ok {
				name = ref.Column
			}
		}
		items = append(items, ProjectionItem{
			Kind: EvalExpr, Expr: compiled,
			Output: ColumnInfo{Name: name, Type: e.InferredType()},
		})
	}
	return NewExtendedProjectionOperatorNode(op, items, b.evaluator), nil
}

func (b *Builder) buildSort(op Operator, items []ast.OrderItem) (Operator, error) {
	cols := op.Columns()
	keys := make([]iterator.SortKey, len(items))
	for i, item := range items {
		e := item.Expr
		if a, ok := e.(*ast.AliasedExpr); ok {
			e = a.Expr
		}
		ref, ok := e.(*ast.ColumnRef)
		if !ok {
			return nil, csverrors.Sql.New("ORDER BY only supports column references or output aliases")
		}
		idx := findColumn(cols, ref.Table, ref.Column)
		if idx < 0 {
			idx = findColumn(cols, "", ref.Column)
		}
		if idx < 0 {
			return nil, csverrors.Sql.New(fmt.Sprintf("column '%s' not found", ref.Column))
		}
		keys[i] = iterator.SortKey{ColumnIndex: idx, Descending: item.Descending}
	}
	return NewSortOperatorNode(op, keys), nil
}

func (b *Builder) buildLimit(op Operator, limitExpr, offsetExpr ast.Expr) (Operator, error) {
	limit := int64(-1)
	offset := int64(0)
	if limitExpr != nil {
		v, err := literalInt(limitExpr)
		if err != nil {
			return nil, err
		}
		limit = v
	}
	if offsetExpr != nil {
		v, err := literalInt(offsetExpr)
		if err != nil {
			return nil, err
		}
		offset = v
	}
	return NewLimitOperatorNode(op, limit, offset), nil
}

func literalInt(e ast.Expr) (int64, error) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, csverrors.Sql.New("LIMIT/OFFSET must be an integer literal")
	}
	return lit.Value.AsInt()
}

// Package symbol implements the symbol table and validator (C7 in the
// design): it resolves every ColumnRef against the tables and subquery
// projections of its own FROM clause, assigns each expression its inferred type, and
// catches ambiguous references before planning begins.
package symbol

import (
	"fmt"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/ast"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// Kind classifies what a Symbol denotes.
type Kind int

const (
	Plain Kind = iota
	Calc
	Function
	Table
	Subquery
)

// Symbol is one resolvable name: a table column, a computed projection
// expression, a function result, or a table/subquery alias.
type Symbol struct {
	Name  string
	Table string
	Kind  Kind
	Type  types.Type
}

// TableInfo is what the Catalog interface exposes about one table's
// columns, enough for the validator to type ColumnRefs against it.
type TableInfo struct {
	Name    string
	Columns []ColumnInfo
}

// ColumnInfo is one catalog column's name and type.
type ColumnInfo struct {
	Name string
	Type types.Type
}

// Catalog is the subset of catalog.Catalog the validator needs: looking
// up a table's column list by name.
type Catalog interface {
	LookupTable(name string) (TableInfo, bool)
}

// Scope is one level of name resolution: the tables visible in a FROM
// clause (keyed by alias or table name) plus a link to the enclosing
// query's scope. Column resolution searches only the scope's own tables;
// the parent scope is not consulted.
type Scope struct {
	parent *Scope
	tables map[string]TableInfo
	// aliases maps a table alias to the underlying table name.
	aliases map[string]string
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, tables: map[string]TableInfo{}, aliases: map[string]string{}}
}

// NewScope builds a fresh, empty top-level scope.
func NewScope() *Scope { return newScope(nil) }

// Validator walks a SelectStatement, resolving and typing every
// expression against the Catalog.
type Validator struct {
	catalog Catalog
}

// New creates a Validator bound to the given Catalog.
func New(catalog Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate types every SELECT in the statement chain (including any
// UNION/INTERSECT/EXCEPT continuations) and resolves all column
// references, reporting an ambiguous or unknown reference as a SqlException.
func (v *Validator) Validate(stmt *ast.SelectStatement) error {
	for s := stmt; s != nil; s = s.Next {
		if err := v.validateOne(s, NewScope()); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateOne(stmt *ast.SelectStatement, parent *Scope) error {
	scope := newScope(parent)

	for _, ref := range stmt.From {
		if err := v.bindTableRef(scope, ref); err != nil {
			return err
		}
	}

	for _, col := range stmt.Columns {
		if err := v.typeExpr(scope, col); err != nil {
			return err
		}
	}
	if stmt.Where != nil {
		if err := v.typeExpr(scope, stmt.Where); err != nil {
			return err
		}
	}
	for _, g := range stmt.GroupBy {
		if err := v.typeExpr(scope, g); err != nil {
			return err
		}
	}
	if stmt.Having != nil {
		if err := v.typeExpr(scope, stmt.Having); err != nil {
			return err
		}
	}
	for _, o := range stmt.OrderBy {
		if err := v.typeExpr(scope, o.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) bindTableRef(scope *Scope, ref *ast.TableRef) error {
	if ref.Subquery != nil {
		if err := v.validateOne(ref.Subquery, scope); err != nil {
			return err
		}
		alias := ref.Alias
		if alias == "" {
			alias = "?subquery"
		}
		info := TableInfo{Name: alias}
		for _, c := range ref.Subquery.Columns {
			info.Columns = append(info.Columns, ColumnInfo{Name: columnLabel(c), Type: columnType(c)})
		}
		scope.tables[alias] = info
	} else {
		info, ok := v.catalog.LookupTable(ref.Table)
		if !ok {
			return csverrors.Sql.New(fmt.Sprintf("table '%s' not found", ref.Table))
		}
		scope.tables[ref.Table] = info
		if ref.Alias != "" {
			scope.aliases[ref.Alias] = ref.Table
			scope.tables[ref.Alias] = info
		}
	}

	for _, j := range ref.Joins {
		if err := v.bindTableRef(scope, j.Right); err != nil {
			return err
		}
	}
	return nil
}

func columnLabel(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.AliasedExpr:
		return n.Alias
	case *ast.ColumnRef:
		return n.Column
	default:
		return ""
	}
}

func columnType(e ast.Expr) types.Type { return e.InferredType() }

// typeExpr recursively types e and resolves any ColumnRef within it
// against scope, erroring on unknown or ambiguous names.
func (v *Validator) typeExpr(scope *Scope, e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Literal:
		n.SetInferredType(n.Value.Type())

	case *ast.ColumnRef:
		return v.resolveColumnRef(scope, n)

	case *ast.BinaryOp:
		if err := v.typeExpr(scope, n.Left); err != nil {
			return err
		}
		if err := v.typeExpr(scope, n.Right); err != nil {
			return err
		}
		n.SetInferredType(binaryResultType(n.Op, n.Left.InferredType(), n.Right.InferredType()))

	case *ast.UnaryOp:
		if err := v.typeExpr(scope, n.Operand); err != nil {
			return err
		}
		if n.Op == "NOT" {
			n.SetInferredType(types.Boolean)
		} else {
			n.SetInferredType(n.Operand.InferredType())
		}

	case *ast.IsNull:
		if err := v.typeExpr(scope, n.Operand); err != nil {
			return err
		}
		n.SetInferredType(types.Boolean)

	case *ast.Between:
		for _, sub := range []ast.Expr{n.Operand, n.Low, n.High} {
			if err := v.typeExpr(scope, sub); err != nil {
				return err
			}
		}
		n.SetInferredType(types.Boolean)

	case *ast.In:
		if err := v.typeExpr(scope, n.Operand); err != nil {
			return err
		}
		for _, sub := range n.List {
			if err := v.typeExpr(scope, sub); err != nil {
				return err
			}
		}
		n.SetInferredType(types.Boolean)

	case *ast.Like:
		if err := v.typeExpr(scope, n.Operand); err != nil {
			return err
		}
		if err := v.typeExpr(scope, n.Pattern); err != nil {
			return err
		}
		n.SetInferredType(types.Boolean)

	case *ast.Cast:
		if err := v.typeExpr(scope, n.Operand); err != nil {
			return err
		}
		n.SetInferredType(n.To)

	case *ast.FunctionCall:
		for _, a := range n.Args {
			if err := v.typeExpr(scope, a); err != nil {
				return err
			}
		}
		n.SetInferredType(functionResultType(n))

	case *ast.AliasedExpr:
		if err := v.typeExpr(scope, n.Expr); err != nil {
			return err
		}
		n.SetInferredType(n.Expr.InferredType())
		n.SetSymbolName(n.Alias)

	case *ast.SubqueryExpr:
		if err := v.validateOne(n.Query, scope); err != nil {
			return err
		}
		if len(n.Query.Columns) == 1 {
			n.SetInferredType(n.Query.Columns[0].InferredType())
		}
	}
	return nil
}

func (v *Validator) resolveColumnRef(scope *Scope, ref *ast.ColumnRef) error {
	if ref.Column == "*" {
		ref.SetInferredType(types.None)
		return nil
	}

	if ref.Table != "" {
		info, ok := scope.tables[ref.Table]
		if !ok {
			return csverrors.Sql.New(fmt.Sprintf("table '%s' not found", ref.Table))
		}
		for _, c := range info.Columns {
			if c.Name == ref.Column {
				ref.SetInferredType(c.Type)
				return nil
			}
		}
		return csverrors.Sql.New(fmt.Sprintf("column '%s.%s' not found", ref.Table, ref.Column))
	}

	var found *ColumnInfo
	var foundTable string
	for tname, info := range scope.tables {
		for i := range info.Columns {
			if info.Columns[i].Name == ref.Column {
				if found != nil && foundTable != tname {
					return csverrors.Sql.New(fmt.Sprintf("ambigous symbol '%s'", ref.Column))
				}
				found = &info.Columns[i]
				foundTable = tname
			}
		}
	}
	if found == nil {
		return csverrors.Sql.New(fmt.Sprintf("column '%s' not found", ref.Column))
	}
	ref.Table = foundTable
	ref.SetInferredType(found.Type)
	return nil
}

func binaryResultType(op string, l, r types.Type) types.Type {
	switch op {
	case "AND", "OR", "=", "<>", "<", "<=", ">", ">=":
		return types.Boolean
	case "||":
		return types.String
	default:
		if l == types.Real || r == types.Real {
			return types.Real
		}
		return l
	}
}

// functionResultType looks up the declared return type of a built-in
// function; unknown names default to the first argument's type so typing
// degrades gracefully ahead of the VM's own "function not found" error.
func functionResultType(call *ast.FunctionCall) types.Type {
	switch call.Name {
	case "COUNT":
		return types.Int
	case "AVG", "POW":
		return types.Real
	case "SUM", "MIN", "MAX", "ARBITRARY":
		if len(call.Args) > 0 {
			return call.Args[0].InferredType()
		}
		return types.Real
	case "UPPER", "LOWER", "DATE_FORMAT", "TIME_FORMAT", "TIMESTAMP_FORMAT", "VERSION":
		return types.String
	case "CHARACTER_LENGTH", "CHAR_LENGTH", "EXTRACT":
		return types.Int
	case "CURRENT_DATE":
		return types.Date
	case "CURRENT_TIME":
		return types.Time
	case "CURRENT_TIMESTAMP":
		return types.Timestamp
	case "DATE_TRUNC":
		return types.Date
	default:
		if len(call.Args) > 0 {
			return call.Args[0].InferredType()
		}
		return types.None
	}
}

// Package ast defines the syntax tree produced by the parser (C6 in the
// design). Every node is a plain struct; expression nodes additionally
// carry an inferred SQL type and, once the symbol table has run, a symbol
// name used to label computed columns in output.
package ast

import "github.com/csvsqldb/csvsqldb/sql/types"

// Node is implemented by every AST node, statement or expression.
type Node interface {
	node()
}

// Expr is implemented by expression nodes. InferredType is filled in by
// the symbol table validator; it is types.None until then.
type Expr interface {
	Node
	exprNode()
	InferredType() types.Type
	SetInferredType(types.Type)
	SymbolName() string
	SetSymbolName(string)
}

type exprBase struct {
	typ types.Type
	sym string
}

func (e *exprBase) InferredType() types.Type     { return e.typ }
func (e *exprBase) SetInferredType(t types.Type) { e.typ = t }
func (e *exprBase) SymbolName() string           { return e.sym }
func (e *exprBase) SetSymbolName(s string) { e.sym = s }
func (*exprBase) exprNode()                {}
func (*exprBase) node()                    {}

// Literal is a constant value of any scalar type, including NULL.
type Literal struct {
	exprBase
	Value types.Variant
}

// ColumnRef references a column, optionally qualified by a table name or
// alias (e.g. "t.id" or just "id").
type ColumnRef struct {
	exprBase
	Table  string
	Column string
}

// BinaryOp is any two-operand operator: arithmetic, comparison, AND/OR,
// string concatenation (||).
type BinaryOp struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

// UnaryOp is PLUS, MINUS or NOT applied to a single operand.
type UnaryOp struct {
	exprBase
	Op      string
	Operand Expr
}

// IsNull implements IS [NOT] NULL. It is never compiled via the `=`
// opcode, per the resolved open question in the design notes.
type IsNull struct {
	exprBase
	Operand Expr
	Negated bool
}

// Between implements `expr BETWEEN low AND high`.
type Between struct {
	exprBase
	Operand Expr
	Low     Expr
	High    Expr
}

// In implements `expr IN (list...)`.
type In struct {
	exprBase
	Operand Expr
	List    []Expr
}

// Like implements `expr LIKE pattern`, pattern using SQL % and _
// wildcards; the evaluator compiles the pattern to a regular expression
// the first time it evaluates it and caches it by pattern text.
type Like struct {
	exprBase
	Operand Expr
	Pattern Expr
}

// Cast implements `CAST(expr AS type)`.
type Cast struct {
	exprBase
	Operand Expr
	To      types.Type
}

// FunctionCall is a scalar or aggregate function invocation. Star is set
// for the COUNT(*) special case.
type FunctionCall struct {
	exprBase
	Name     string
	Args     []Expr
	Star     bool
	Distinct bool
}

// AliasedExpr gives a projection expression an output name via AS.
type AliasedExpr struct {
	exprBase
	Expr  Expr
	Alias string
}

// SubqueryExpr wraps a nested SELECT used as a scalar expression.
type SubqueryExpr struct {
	exprBase
	Query *SelectStatement
}

// OrderItem is one ORDER BY clause element.
type OrderItem struct {
	Expr       Expr
	Descending bool
}

// TableRef is a single table (or subquery) reference in a FROM clause,
// possibly joined to further refs via Joins.
type TableRef struct {
	Table    string
	Alias    string
	Subquery *SelectStatement
	Joins    []Join
}

func (*TableRef) node() {}

// JoinKind enumerates the five supported join kinds.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

// Join is one join step applied to the table chain being built up left to
// right; natural joins carry no explicit On/Using.
type Join struct {
	Kind    JoinKind
	Natural bool
	Right   *TableRef
	On      Expr
	Using   []string
}

// SetOp enumerates UNION/INTERSECT/EXCEPT.
type SetOp int

const (
	NoSetOp SetOp = iota
	Union
	Intersect
	Except
)

// SelectStatement is a single SELECT, optionally combined with a further
// SELECT via a set operator (Next), forming a left-associative chain.
type SelectStatement struct {
	Distinct  bool
	Columns   []Expr
	From      []*TableRef
	Where     Expr
	GroupBy   []Expr
	Having    Expr
	OrderBy   []OrderItem
	Limit     Expr
	Offset    Expr

	SetOperator SetOp
	Next        *SelectStatement
}

func (*SelectStatement) node() {}

// ColumnDef is one column in a CREATE TABLE statement.
type ColumnDef struct {
	Name       string
	Type       types.Type
	Length     int
	NotNull    bool
	PrimaryKey bool
	Unique     bool
	Default    Expr
}

// CreateTableStatement implements CREATE TABLE.
type CreateTableStatement struct {
	Table   string
	Columns []ColumnDef
}

func (*CreateTableStatement) node() {}

// DropTableStatement implements DROP TABLE.
type DropTableStatement struct {
	Table string
}

func (*DropTableStatement) node() {}

// AlterTableAction enumerates ADD/DROP COLUMN kinds.
type AlterTableAction int

const (
	AddColumn AlterTableAction = iota
	DropColumn
)

// AlterTableStatement implements ALTER TABLE ... ADD|DROP COLUMN.
type AlterTableStatement struct {
	Table  string
	Action AlterTableAction
	Column ColumnDef
}

func (*AlterTableStatement) node() {}

// CreateMappingStatement implements CREATE MAPPING, binding a table name
// to one or more CSV file path patterns.
type CreateMappingStatement struct {
	Table string
	Files []string
}

func (*CreateMappingStatement) node() {}

// DropMappingStatement implements DROP MAPPING.
type DropMappingStatement struct {
	Table string
}

func (*DropMappingStatement) node() {}

// ExplainMode selects between AST and EXEC plan dumps.
type ExplainMode int

const (
	ExplainAST ExplainMode = iota
	ExplainExec
)

// ExplainStatement implements EXPLAIN AST|EXEC <statement>.
type ExplainStatement struct {
	Mode      ExplainMode
	Statement Node
}

func (*ExplainStatement) node() {}

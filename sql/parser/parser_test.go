package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csvsqldb/csvsqldb/sql/ast"
)

func parseSelect(t *testing.T, sql string) *ast.SelectStatement {
	t.Helper()
	p, err := New(sql)
	require.NoError(t, err)
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel, ok := stmt.(*ast.SelectStatement)
	require.True(t, ok)
	return sel
}

func TestParseSimpleSelect(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT id, name FROM customers WHERE id = 1")
	require.Len(sel.Columns, 2)
	require.Len(sel.From, 1)
	require.Equal("CUSTOMERS", sel.From[0].Table)
	require.NotNil(sel.Where)
}

func TestParseJoinChain(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT a.id FROM a INNER JOIN b ON a.id = b.id LEFT JOIN c ON b.id = c.id")
	require.Len(sel.From[0].Joins, 2)
	require.Equal(ast.InnerJoin, sel.From[0].Joins[0].Kind)
	require.Equal(ast.LeftJoin, sel.From[0].Joins[1].Kind)
}

func TestParseUnionChain(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT a FROM x UNION SELECT b FROM y")
	require.Equal(ast.Union, sel.SetOperator)
	require.NotNil(sel.Next)
}

func TestParseGroupByHavingOrderByLimit(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT a, COUNT(*) FROM t GROUP BY a HAVING COUNT(*) > 1 ORDER BY a DESC LIMIT 10 OFFSET 5")
	require.Len(sel.GroupBy, 1)
	require.NotNil(sel.Having)
	require.Len(sel.OrderBy, 1)
	require.True(sel.OrderBy[0].Descending)
	require.NotNil(sel.Limit)
	require.NotNil(sel.Offset)
}

func TestParseBetweenInLike(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT a FROM t WHERE a BETWEEN 1 AND 10 AND b IN (1,2,3) AND c LIKE 'x%'")
	require.NotNil(sel.Where)
}

func TestParseIsNull(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT a FROM t WHERE a IS NOT NULL")
	isNull, ok := sel.Where.(*ast.IsNull)
	require.True(ok)
	require.True(isNull.Negated)
}

func TestParseCastAndFunctionCall(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT CAST(a AS INT), UPPER(b) FROM t")
	require.Len(sel.Columns, 2)
	_, ok := sel.Columns[0].(*ast.Cast)
	require.True(ok)
	fn, ok := sel.Columns[1].(*ast.FunctionCall)
	require.True(ok)
	require.Equal("UPPER", fn.Name)
}

func TestParseCreateTable(t *testing.T) {
	require := require.New(t)
	p, err := New("CREATE TABLE t (id INT PRIMARY KEY, name STRING NOT NULL)")
	require.NoError(err)
	stmt, err := p.ParseStatement()
	require.NoError(err)
	ct, ok := stmt.(*ast.CreateTableStatement)
	require.True(ok)
	require.Equal("T", ct.Table)
	require.Len(ct.Columns, 2)
	require.True(ct.Columns[0].PrimaryKey)
	require.True(ct.Columns[1].NotNull)
}

func TestParseExplainAST(t *testing.T) {
	require := require.New(t)
	p, err := New("EXPLAIN AST SELECT a FROM t")
	require.NoError(err)
	stmt, err := p.ParseStatement()
	require.NoError(err)
	ex, ok := stmt.(*ast.ExplainStatement)
	require.True(ok)
	require.Equal(ast.ExplainAST, ex.Mode)
}

func TestParseErrorReportsPosition(t *testing.T) {
	require := require.New(t)
	p, err := New("SELECT FROM t")
	require.NoError(err)
	_, err = p.ParseStatement()
	require.Error(err)
	require.Contains(err.Error(), " at ")
}

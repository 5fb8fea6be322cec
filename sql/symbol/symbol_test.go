package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csvsqldb/csvsqldb/sql/ast"
	"github.com/csvsqldb/csvsqldb/sql/parser"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

type fakeCatalog struct {
	tables map[string]TableInfo
}

func (f fakeCatalog) LookupTable(name string) (TableInfo, bool) {
	t, ok := f.tables[name]
	return t, ok
}

func newFakeCatalog() fakeCatalog {
	return fakeCatalog{tables: map[string]TableInfo{
		"CUSTOMERS": {Name: "CUSTOMERS", Columns: []ColumnInfo{
			{Name: "ID", Type: types.Int},
			{Name: "NAME", Type: types.String},
		}},
		"ORDERS": {Name: "ORDERS", Columns: []ColumnInfo{
			{Name: "ID", Type: types.Int},
			{Name: "CUSTOMER_ID", Type: types.Int},
		}},
	}}
}

func parseSelect(t *testing.T, sql string) *ast.SelectStatement {
	t.Helper()
	p, err := parser.New(sql)
	require.NoError(t, err)
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	return stmt.(*ast.SelectStatement)
}

func TestValidateResolvesUnqualifiedColumn(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT ID, NAME FROM CUSTOMERS WHERE ID = 1")
	require.NoError(New(newFakeCatalog()).Validate(sel))
	ref := sel.Columns[0].(*ast.ColumnRef)
	require.Equal(types.Int, ref.InferredType())
	require.Equal("CUSTOMERS", ref.Table)
}

func TestValidateDetectsAmbiguousColumn(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT ID FROM CUSTOMERS, ORDERS")
	err := New(newFakeCatalog()).Validate(sel)
	require.Error(err)
	require.Contains(err.Error(), "ambigous symbol")
}

func TestValidateDetectsUnknownTable(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT ID FROM MISSING")
	err := New(newFakeCatalog()).Validate(sel)
	require.Error(err)
	require.Contains(err.Error(), "not found")
}

func TestValidateTypesBinaryComparisonAsBoolean(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT ID FROM CUSTOMERS WHERE ID = 1")
	require.NoError(New(newFakeCatalog()).Validate(sel))
	require.Equal(types.Boolean, sel.Where.InferredType())
}

func TestValidateAliasQualifiesColumn(t *testing.T) {
	require := require.New(t)
	sel := parseSelect(t, "SELECT c.ID FROM CUSTOMERS c")
	require.NoError(New(newFakeCatalog()).Validate(sel))
}

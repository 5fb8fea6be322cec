package catalog

import (
	"fmt"
	"strings"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/function"
	"github.com/csvsqldb/csvsqldb/sql/iterator"
	"github.com/csvsqldb/csvsqldb/sql/symbol"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// System table names.
const (
	SystemDual       = "SYSTEM_DUAL"
	SystemTables     = "SYSTEM_TABLES"
	SystemColumns    = "SYSTEM_COLUMNS"
	SystemFunctions  = "SYSTEM_FUNCTIONS"
	SystemParameters = "SYSTEM_PARAMETERS"
	SystemMappings   = "SYSTEM_MAPPINGS"
)

// systemTable describes one read-only virtual table: its schema plus a
// generator that reflects live catalog/registry state into rows on every
// scan.
type systemTable struct {
	name    string
	columns []symbol.ColumnInfo
	rows    func(c *Catalog, registry *function.Registry) []block.Row
}

func (s systemTable) tableInfo() symbol.TableInfo {
	return symbol.TableInfo{Name: s.name, Columns: s.columns}
}

var systemTables map[string]systemTable

func init() {
	systemTables = map[string]systemTable{
		SystemDual: {
			name: SystemDual,
			rows: func(c *Catalog, r *function.Registry) []block.Row {
				return []block.Row{{}}
			},
		},
		SystemTables: {
			name: SystemTables,
			columns: []symbol.ColumnInfo{
				{Name: "NAME", Type: types.String},
				{Name: "COLUMN_COUNT", Type: types.Int},
			},
			rows: func(c *Catalog, r *function.Registry) []block.Row {
				var rows []block.Row
				for _, t := range c.GetTables() {
					rows = append(rows, block.Row{
						types.NewString(t.Name),
						types.NewInt(int64(len(t.Columns))),
					})
				}
				return rows
			},
		},
		SystemColumns: {
			name: SystemColumns,
			columns: []symbol.ColumnInfo{
				{Name: "TABLE_NAME", Type: types.String},
				{Name: "NAME", Type: types.String},
				{Name: "TYPE", Type: types.String},
				{Name: "PRIMARY_KEY", Type: types.Boolean},
				{Name: "NOT_NULL", Type: types.Boolean},
				{Name: "UNIQUE", Type: types.Boolean},
			},
			rows: func(c *Catalog, r *function.Registry) []block.Row {
				var rows []block.Row
				for _, t := range c.GetTables() {
					for _, col := range t.Columns {
						rows = append(rows, block.Row{
							types.NewString(t.Name),
							types.NewString(col.Name),
							types.NewString(col.Type.String()),
							types.NewBoolean(col.PrimaryKey),
							types.NewBoolean(col.NotNull),
							types.NewBoolean(col.Unique),
						})
					}
				}
				return rows
			},
		},
		SystemFunctions: {
			name: SystemFunctions,
			columns: []symbol.ColumnInfo{
				{Name: "NAME", Type: types.String},
				{Name: "RETURN_TYPE", Type: types.String},
				{Name: "PARAMETER_COUNT", Type: types.Int},
				{Name: "AGGREGATE", Type: types.Boolean},
			},
			rows: func(c *Catalog, r *function.Registry) []block.Row {
				var rows []block.Row
				for _, fn := range function.Describe(r) {
					rows = append(rows, block.Row{
						types.NewString(fn.Name),
						types.NewString(fn.ReturnType),
						types.NewInt(int64(fn.ParamCount)),
						types.NewBoolean(fn.Aggregate),
					})
				}
				return rows
			},
		},
		SystemParameters: {
			name: SystemParameters,
			columns: []symbol.ColumnInfo{
				{Name: "NAME", Type: types.String},
				{Name: "VALUE", Type: types.String},
			},
			rows: func(c *Catalog, r *function.Registry) []block.Row {
				return nil
			},
		},
		SystemMappings: {
			name: SystemMappings,
			columns: []symbol.ColumnInfo{
				{Name: "TABLE_NAME", Type: types.String},
				{Name: "PATTERN", Type: types.String},
				{Name: "DELIMITER", Type: types.String},
				{Name: "SKIP_FIRST_LINE", Type: types.Boolean},
			},
			rows: func(c *Catalog, r *function.Registry) []block.Row {
				var rows []block.Row
				for _, m := range c.GetMappings() {
					for _, rule := range m.Mappings {
						rows = append(rows, block.Row{
							types.NewString(m.Name),
							types.NewString(rule.Pattern),
							types.NewString(string(rule.Delimiter)),
							types.NewBoolean(rule.SkipFirstLine),
						})
					}
				}
				return rows
			},
		},
	}
}

// IsSystemTable reports whether name is one of the fixed system tables.
func IsSystemTable(name string) bool {
	_, ok := systemTables[strings.ToUpper(name)]
	return ok
}

// SystemTableColumns returns a system table's schema as iterator
// ColumnInfo, labeled with the table's own name as every column's
// qualifier.
func SystemTableColumns(name string) ([]iterator.ColumnInfo, error) {
	sys, ok := systemTables[strings.ToUpper(name)]
	if !ok {
		return nil, csverrors.Sql.New(fmt.Sprintf("system table '%s' not found", name))
	}
	out := make([]iterator.ColumnInfo, len(sys.columns))
	for i, c := range sys.columns {
		out[i] = iterator.ColumnInfo{Table: sys.name, Name: c.Name, Type: c.Type}
	}
	return out, nil
}

// SystemTableRows regenerates a system table's rows from live catalog and
// function registry state.
func (c *Catalog) SystemTableRows(name string, registry *function.Registry) ([]block.Row, error) {
	sys, ok := systemTables[strings.ToUpper(name)]
	if !ok {
		return nil, csverrors.Sql.New(fmt.Sprintf("system table '%s' not found", name))
	}
	return sys.rows(c, registry), nil
}

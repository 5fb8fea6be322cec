// Package catalog implements the table/mapping catalog (C4 in the
// design): in-memory TableData and Mapping records, JSON persistence
// under a database directory, and the read-only system tables that
// reflect the catalog's own state.
package catalog

import "github.com/csvsqldb/csvsqldb/sql/types"

// Column is one column of a TableData: its scalar type plus the
// constraint flags and optional default/check/length.
type Column struct {
	Name       string
	Type       types.Type
	PrimaryKey bool
	Unique     bool
	NotNull    bool
	Default    string // empty string means "no default"
	Check      string // empty string means "no check expression"
	Length     int    // 0 means "unbounded" (only meaningful for STRING)
}

// Constraint is one table-level constraint: a composite primary key, a
// composite unique key, or a check expression. TableData may carry any
// number of these in addition to the per-column flags.
type Constraint struct {
	PrimaryKeys []string
	UniqueKeys  []string
	Check       string
}

// TableData is one catalog entry: a table name and its ordered column
// list plus table-level constraints.
type TableData struct {
	Name        string
	Columns     []Column
	Constraints []Constraint
}

// ColumnNames returns the table's column names in declaration order.
func (t TableData) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name, case-sensitively (names are always
// upper-cased on the way into the catalog, per).
func (t TableData) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Mapping binds a logical table name to the CSV files that back it: a
// list of (pattern, delimiter, skipFirstLine) rules, the first resolved
// against the engine's file list wins.
type Mapping struct {
	Name     string
	Mappings []MappingRule
}

// MappingRule is one `<regex> -> <delimiter, skipFirstLine>` rule within
// a Mapping.
type MappingRule struct {
	Pattern       string
	Delimiter     rune
	SkipFirstLine bool
}

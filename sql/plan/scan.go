package plan

import "github.com/csvsqldb/csvsqldb/sql/block"

// TableScanOperatorNode is the leaf operator reading rows from a mapped
// CSV file through any source that already produces block.Row values in
// the scanned table's column order (typically a csv.RowReader).
type TableScanOperatorNode struct {
	table  string
	alias  string
	cols   []ColumnInfo
	source iterator
}

// iterator is the minimal pull surface a scan source must provide; it is
// satisfied by csv.RowReader without that package needing to import
// plan.
type iterator interface {
	Next() (block.Row, error)
	Close() error
}

// NewTableScanOperatorNode creates a scan over source, labeling every
// output column with table (or alias, if set).
func NewTableScanOperatorNode(table, alias string, cols []ColumnInfo, source iterator) *TableScanOperatorNode {
	label := table
	if alias != "" {
		label = alias
	}
	labeled := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		labeled[i] = ColumnInfo{Table: label, Name: c.Name, Type: c.Type}
	}
	return &TableScanOperatorNode{table: table, alias: alias, cols: labeled, source: source}
}

func (t *TableScanOperatorNode) Columns() []ColumnInfo { return t.cols }

func (t *TableScanOperatorNode) Next() (block.Row, error) { return t.source.Next() }

func (t *TableScanOperatorNode) Close() error { return t.source.Close() }

func (t *TableScanOperatorNode) Dump(indent int) string {
	name := t.table
	if t.alias != "" {
		name += " AS " + t.alias
	}
	return dumpLine(indent, "TableScan %s", name)
}

// SystemTableScanOperatorNode scans an in-memory system table (catalog
// metadata such as SYSTEM_TABLES or SYSTEM_FUNCTIONS) rather than a CSV
// mapping; rows are produced up front by the catalog, not pulled lazily.
type SystemTableScanOperatorNode struct {
	name string
	cols []ColumnInfo
	rows []block.Row
	pos  int
}

// NewSystemTableScanOperatorNode creates a scan over a fixed row set.
func NewSystemTableScanOperatorNode(name string, cols []ColumnInfo, rows []block.Row) *SystemTableScanOperatorNode {
	return &SystemTableScanOperatorNode{name: name, cols: cols, rows: rows}
}

func (s *SystemTableScanOperatorNode) Columns() []ColumnInfo { return s.cols }

func (s *SystemTableScanOperatorNode) Next() (block.Row, error) {
	if s.pos >= len(s.rows) {
		return nil, errEOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *SystemTableScanOperatorNode) Close() error { return nil }

func (s *SystemTableScanOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "SystemTableScan %s", s.name)
}

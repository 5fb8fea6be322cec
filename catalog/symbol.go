package catalog

import "github.com/csvsqldb/csvsqldb/sql/symbol"

// LookupTable implements symbol.Catalog so the validator (C7) can type
// ColumnRefs directly against this catalog without an adapter type.
func (c *Catalog) LookupTable(name string) (symbol.TableInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[upper(name)]
	if !ok {
		if sys, ok := systemTables[upper(name)]; ok {
			return sys.tableInfo(), true
		}
		return symbol.TableInfo{}, false
	}

	info := symbol.TableInfo{Name: t.Name}
	for _, col := range t.Columns {
		info.Columns = append(info.Columns, symbol.ColumnInfo{Name: col.Name, Type: col.Type})
	}
	return info, true
}

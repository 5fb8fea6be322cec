package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/csvsqldb/csvsqldb/csverrors"
)

// Names of the sub-directories a database directory carries.
const (
	CatalogDir  = ".csvdb"
	TablesDir   = "tables"
	MappingsDir = "mappings"
)

// Catalog holds every TableData and Mapping known to one engine instance,
// optionally backed by a database directory for JSON persistence. A
// Catalog made by New (no Open call) is a valid in-memory-only catalog,
// useful for tests; a zero-value Catalog has no maps and cannot be used.
type Catalog struct {
	mu       sync.RWMutex
	dir      string
	tables   map[string]TableData
	mappings map[string]Mapping
}

// New creates an empty, memory-only Catalog.
func New() *Catalog {
	return &Catalog{
		tables:   map[string]TableData{},
		mappings: map[string]Mapping{},
	}
}

// Open creates a Catalog backed by <dir>/.csvdb, scanning and reloading
// every table and mapping file already present.
func Open(dir string) (*Catalog, error) {
	c := New()
	c.dir = filepath.Join(dir, CatalogDir)

	if err := os.MkdirAll(filepath.Join(c.dir, TablesDir), 0o755); err != nil {
		return nil, csverrors.Filesystem.New(errors.Wrap(err, "could not create tables directory").Error())
	}
	if err := os.MkdirAll(filepath.Join(c.dir, MappingsDir), 0o755); err != nil {
		return nil, csverrors.Filesystem.New(errors.Wrap(err, "could not create mappings directory").Error())
	}

	if err := c.reloadTables(); err != nil {
		return nil, err
	}
	if err := c.reloadMappings(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) reloadTables() error {
	entries, err := os.ReadDir(filepath.Join(c.dir, TablesDir))
	if err != nil {
		return csverrors.Filesystem.New(errors.Wrap(err, "could not list tables directory").Error())
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, TablesDir, e.Name()))
		if err != nil {
			return csverrors.Filesystem.New(errors.Wrapf(err, "could not read table file %q", e.Name()).Error())
		}
		t, err := TableFromJSON(data)
		if err != nil {
			return err
		}
		c.tables[t.Name] = t
	}
	return nil
}

func (c *Catalog) reloadMappings() error {
	entries, err := os.ReadDir(filepath.Join(c.dir, MappingsDir))
	if err != nil {
		return csverrors.Filesystem.New(errors.Wrap(err, "could not list mappings directory").Error())
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, MappingsDir, e.Name()))
		if err != nil {
			return csverrors.Filesystem.New(errors.Wrapf(err, "could not read mapping file %q", e.Name()).Error())
		}
		m, err := MappingFromJSON(data)
		if err != nil {
			return err
		}
		c.mappings[m.Name] = m
	}
	return nil
}

// AddTable registers t, upper-casing its name, and persists it
// if the catalog is disk-backed.
func (c *Catalog) AddTable(t TableData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t.Name = upper(t.Name)
	if _, exists := c.tables[t.Name]; exists {
		return csverrors.Sql.New("table '" + t.Name + "' already exists")
	}
	c.tables[t.Name] = t
	return c.persistTable(t)
}

// ReplaceTable overwrites an existing table entry (used by ALTER TABLE),
// erroring if the table does not yet exist.
func (c *Catalog) ReplaceTable(t TableData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t.Name = upper(t.Name)
	if _, exists := c.tables[t.Name]; !exists {
		return csverrors.Sql.New("table '" + t.Name + "' not found")
	}
	c.tables[t.Name] = t
	return c.persistTable(t)
}

func (c *Catalog) persistTable(t TableData) error {
	if c.dir == "" {
		return nil
	}
	data, err := TableToJSON(t)
	if err != nil {
		return err
	}
	path := filepath.Join(c.dir, TablesDir, t.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return csverrors.Filesystem.New(errors.Wrapf(err, "could not write table file %q", path).Error())
	}
	return nil
}

// DropTable removes a table entry and its backing file, if any.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = upper(name)
	if _, ok := c.tables[name]; !ok {
		return csverrors.Sql.New("table '" + name + "' not found")
	}
	delete(c.tables, name)

	if c.dir == "" {
		return nil
	}
	path := filepath.Join(c.dir, TablesDir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return csverrors.Filesystem.New(errors.Wrapf(err, "could not remove table file %q", path).Error())
	}
	return nil
}

// HasTable reports whether name is a registered table.
func (c *Catalog) HasTable(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[upper(name)]
	return ok
}

// GetTable looks up a table by name.
func (c *Catalog) GetTable(name string) (TableData, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[upper(name)]
	if !ok {
		return TableData{}, csverrors.Sql.New("table '" + upper(name) + "' not found")
	}
	return t, nil
}

// GetTables returns every registered table, sorted by name for stable
// iteration (used by SYSTEM_TABLES/SYSTEM_COLUMNS).
func (c *Catalog) GetTables() []TableData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]TableData, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddMapping registers a file mapping for a table, persisting it if the
// catalog is disk-backed.
func (c *Catalog) AddMapping(m Mapping) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m.Name = upper(m.Name)
	c.mappings[m.Name] = m
	if c.dir == "" {
		return nil
	}
	data, err := MappingToJSON(m)
	if err != nil {
		return err
	}
	path := filepath.Join(c.dir, MappingsDir, m.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return csverrors.Filesystem.New(errors.Wrapf(err, "could not write mapping file %q", path).Error())
	}
	return nil
}

// RemoveMapping drops a table's mapping.
func (c *Catalog) RemoveMapping(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = upper(name)
	if _, ok := c.mappings[name]; !ok {
		return csverrors.Mapping.New("mapping for '" + name + "' not found")
	}
	delete(c.mappings, name)

	if c.dir == "" {
		return nil
	}
	path := filepath.Join(c.dir, MappingsDir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return csverrors.Filesystem.New(errors.Wrapf(err, "could not remove mapping file %q", path).Error())
	}
	return nil
}

// GetMappings returns every registered mapping, sorted by table name.
func (c *Catalog) GetMappings() []Mapping {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Mapping, 0, len(c.mappings))
	for _, m := range c.mappings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetMappingForTable looks up the mapping registered for a table name.
func (c *Catalog) GetMappingForTable(name string) (Mapping, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.mappings[upper(name)]
	if !ok {
		return Mapping{}, csverrors.Mapping.New("no mapping registered for table '" + upper(name) + "'")
	}
	return m, nil
}

// ResolveFile picks the first entry of files whose full path matches
// `.*<pattern>` for some rule in the table's mapping.
func (c *Catalog) ResolveFile(table string, files []string) (string, MappingRule, error) {
	m, err := c.GetMappingForTable(table)
	if err != nil {
		return "", MappingRule{}, err
	}
	for _, rule := range m.Mappings {
		re, err := regexpCompileDotStar(rule.Pattern)
		if err != nil {
			return "", MappingRule{}, csverrors.Mapping.New(errors.Wrapf(err, "invalid mapping pattern %q", rule.Pattern).Error())
		}
		for _, f := range files {
			if re.MatchString(f) {
				return f, rule, nil
			}
		}
	}
	return "", MappingRule{}, csverrors.Mapping.New("no file matches mapping for table '" + upper(table) + "'")
}

func upper(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		out[i] = b
	}
	return string(out)
}

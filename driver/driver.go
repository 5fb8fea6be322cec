// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package driver exposes the execution engine as a stdlib database/sql
// driver. The DSN is the database directory: the path holding the CSV
// data files and the `.csvdb/` catalog sub-directory. There is no
// server and no network protocol — Open just loads the catalog and
// walks the directory for candidate data files.
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"
	"strconv"
	"sync"

	csvsqldb "github.com/csvsqldb/csvsqldb"
	"github.com/csvsqldb/csvsqldb/catalog"
)

func init() {
	sql.Register("csvsqldb", &Driver{})
}

// Driver implements database/sql/driver.Driver and driver.DriverContext.
// One Driver instance caches a *sharedEngine per resolved database
// directory so repeated Open calls against the same DSN (database/sql's
// connection pool does this routinely) reuse one Catalog rather than
// re-scanning the directory and re-parsing every table/mapping file per
// connection.
type Driver struct {
	mu      sync.Mutex
	engines map[string]*sharedEngine
}

// sharedEngine is the per-DSN state every Conn opened against the same
// directory shares: the Catalog (already internally synchronized) and
// the CSV file list it was opened with. Each Conn still gets its own
// csvsqldb.ExecutionEngine, since a BlockManager is not thread-safe and
// must be touched by one goroutine only.
type sharedEngine struct {
	catalog *catalog.Catalog
	files   []string
	cfg     csvsqldb.Config
}

// Open implements driver.Driver.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	dir, cfg, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.engines == nil {
		d.engines = map[string]*sharedEngine{}
	}
	se, ok := d.engines[dir]
	if !ok {
		cat, err := catalog.Open(dir)
		if err != nil {
			return nil, err
		}
		files, err := discoverDataFiles(dir)
		if err != nil {
			return nil, err
		}
		se = &sharedEngine{catalog: cat, files: files, cfg: cfg}
		d.engines[dir] = se
	}

	return &Connector{driver: d, shared: se}, nil
}

// parseDSN splits a DSN of the form `<directory>[?header=1&delimiter=;]`
// into the database directory and a Config. EmitHeader and
// OutputDelimiter are the only options a SELECT-over-CSV engine needs a
// connection string for; everything else uses csvsqldb.Config defaults.
func parseDSN(dsn string) (string, csvsqldb.Config, error) {
	var cfg csvsqldb.Config

	u, err := url.Parse(dsn)
	if err != nil {
		return dsn, cfg, nil
	}
	q := u.Query()
	if h := q.Get("header"); h != "" {
		emit, err := strconv.ParseBool(h)
		if err != nil {
			return "", cfg, err
		}
		cfg.EmitHeader = emit
	}
	if delim := q.Get("delimiter"); delim != "" {
		r := []rune(delim)
		cfg.OutputDelimiter = r[0]
	}

	dir := u.Path
	if dir == "" {
		dir = dsn
	}
	return dir, cfg, nil
}

// Connector implements driver.Connector: a fixed DSN configuration able
// to produce any number of Conns.
type Connector struct {
	driver *Driver
	shared *sharedEngine
}

// Driver implements driver.Connector.
func (c *Connector) Driver() driver.Driver { return c.driver }

// Connect implements driver.Connector: every Conn owns its own
// ExecutionEngine (its own BlockManager and function Registry) over the
// shared Catalog and file list.
func (c *Connector) Connect(context.Context) (driver.Conn, error) {
	id := nextConnID()
	engine := csvsqldb.New(c.shared.catalog, c.shared.files, c.shared.cfg)
	if l := c.shared.cfg.Logger; l != nil {
		l.WithField("conn", id).Debug("csvsqldb connection opened")
	}
	return &Conn{id: id, engine: engine}, nil
}

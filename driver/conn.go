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

package driver

import (
	"context"
	"database/sql/driver"

	csvsqldb "github.com/csvsqldb/csvsqldb"
	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/parser"
)

// Conn is one connection to a csvsqldb database directory: its own
// ExecutionEngine over the Connector's shared Catalog and file list.
type Conn struct {
	id     uint64 // distinguishes Conns from the same pool in engine logs
	engine *csvsqldb.ExecutionEngine
}

// Prepare parses query to catch a syntax error before Exec/Query runs,
// mirroring the teacher's AnalyzeQuery-on-Prepare behavior, but only as
// far as the grammar: full validation (symbol resolution against the
// catalog) happens lazily on Exec/Query, same as Execute does.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	p, err := parser.New(query)
	if err != nil {
		return nil, csverrors.SqlParser.New(err.Error())
	}
	if _, err := p.ParseStatement(); err != nil {
		return nil, err
	}
	return &Stmt{conn: c, query: query}, nil
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *Conn) PrepareContext(_ context.Context, query string) (driver.Stmt, error) {
	return c.Prepare(query)
}

// Close releases the connection's ExecutionEngine (its own block pool).
// The shared Catalog, owned by the Connector, outlives it.
func (c *Conn) Close() error {
	return c.engine.Close()
}

// Begin returns a no-op transaction: csvsqldb has no
// INSERT/UPDATE/DELETE and no transactions, so
// Commit/Rollback have nothing to do.
func (c *Conn) Begin() (driver.Tx, error) {
	return noopTx{}, nil
}

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

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
	"io"

	"github.com/csvsqldb/csvsqldb/csverrors"
)

// Stmt is a prepared statement. csvsqldb's SQL surface has no
// placeholder syntax, so NumInput is 0 and any args passed to Exec/Query
// are rejected rather than silently ignored.
type Stmt struct {
	conn  *Conn
	query string
}

// Close does nothing: the parsed AST isn't cached, only the query text.
func (s *Stmt) Close() error { return nil }

// NumInput reports that this driver accepts no bind parameters.
func (s *Stmt) NumInput() int { return 0 }

// Exec runs a statement that does not produce rows: DDL (CREATE/DROP/
// ALTER TABLE, CREATE/DROP MAPPING). SELECT goes through Query instead;
// EXPLAIN, and a SELECT passed here, run with their output discarded.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	if len(args) != 0 {
		return nil, csverrors.InvalidOperation.New("csvsqldb: statements take no parameters")
	}
	return s.exec(context.Background())
}

// ExecContext implements driver.StmtExecContext.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if len(args) != 0 {
		return nil, csverrors.InvalidOperation.New("csvsqldb: statements take no parameters")
	}
	return s.exec(ctx)
}

func (s *Stmt) exec(ctx context.Context) (driver.Result, error) {
	done := make(chan struct{})
	defer close(done)
	go s.watchCancel(ctx, done)

	stats, err := s.conn.engine.Execute(s.query, io.Discard)
	if err != nil {
		return nil, err
	}
	return &Result{rowsAffected: stats.RowCount}, nil
}

// Query runs a SELECT and streams its rows. Any other statement,
// EXPLAIN included, is rejected by ExecutionEngine.QuerySelect.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	if len(args) != 0 {
		return nil, csverrors.InvalidOperation.New("csvsqldb: statements take no parameters")
	}
	return s.query(context.Background())
}

// QueryContext implements driver.StmtQueryContext.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) != 0 {
		return nil, csverrors.InvalidOperation.New("csvsqldb: statements take no parameters")
	}
	return s.query(ctx)
}

func (s *Stmt) query(ctx context.Context) (driver.Rows, error) {
	op, _, err := s.conn.engine.QuerySelect(s.query)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go s.watchCancel(ctx, done)

	return &Rows{op: op, cols: op.Columns(), done: done}, nil
}

// watchCancel forwards ctx cancellation to the engine's cooperative
// cancel flag, so a caller that cancels its context
// stops a table scan's producer goroutine before its next CSV line
// instead of leaking it until the query finishes on its own.
func (s *Stmt) watchCancel(ctx context.Context, done chan struct{}) {
	select {
	case <-ctx.Done():
		s.conn.engine.Cancel()
	case <-done:
	}
}

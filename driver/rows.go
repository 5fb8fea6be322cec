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
	"database/sql/driver"
	"io"
	"sync"

	"github.com/csvsqldb/csvsqldb/sql/plan"
)

// Rows adapts a plan.Operator (the root of a physical plan, C11) to
// database/sql/driver.Rows, converting each C1 Variant to its native Go
// representation as it streams out.
type Rows struct {
	op   plan.Operator
	cols []plan.ColumnInfo
	done chan struct{}

	closeOnce sync.Once
}

// Columns implements driver.Rows.
func (r *Rows) Columns() []string {
	names := make([]string, len(r.cols))
	for i, c := range r.cols {
		names[i] = c.Name
	}
	return names
}

// Close implements driver.Rows.
func (r *Rows) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return r.op.Close()
}

// Next implements driver.Rows: it pulls the next row from the plan and
// converts every column, returning io.EOF once the plan is exhausted.
func (r *Rows) Next(dest []driver.Value) error {
	row, err := r.op.Next()
	if err != nil {
		return err
	}
	if len(row) != len(dest) {
		return io.ErrUnexpectedEOF
	}
	for i, v := range row {
		dv, err := variantToDriverValue(v)
		if err != nil {
			return err
		}
		dest[i] = dv
	}
	return nil
}

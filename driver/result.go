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

import "errors"

// Result is the outcome of a DDL statement (CREATE/DROP/ALTER TABLE,
// CREATE/DROP MAPPING). None of them produce an auto-generated id or a
// row count in the INSERT/UPDATE sense, so RowsAffected reports 0 for them
// and LastInsertId always errors.
type Result struct {
	rowsAffected int64
}

// LastInsertId always errors: csvsqldb has no auto-increment columns.
func (r *Result) LastInsertId() (int64, error) {
	return 0, errors.New("csvsqldb: no auto-generated ids")
}

// RowsAffected reports the statement's row count as ExecutionEngine
// counted it: 0 for DDL, the number of result rows for a SELECT passed to
// Exec.
func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// Copyright 2020-2023 Dolthub, Inc.
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

// Command example demonstrates the csvsqldb database/sql driver against
// a throwaway directory of CSV files. Run with `go run .` from this
// directory.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/csvsqldb/csvsqldb/driver"
)

func main() {
	dir, err := os.MkdirTemp("", "csvsqldb-example")
	must(err)
	defer os.RemoveAll(dir)

	must(os.WriteFile(filepath.Join(dir, "employees.csv"), []byte(
		"1,Alice,10\n2,Bob,20\n3,Carol,10\n"), 0o644))

	db, err := sql.Open("csvsqldb", dir+"?header=1")
	must(err)
	defer db.Close()

	must(exec(db, "CREATE TABLE EMPLOYEES(ID INT, NAME STRING, DEPT_ID INT)"))
	must(exec(db, "CREATE MAPPING EMPLOYEES 'employees\\.csv'"))

	rows, err := db.Query("SELECT NAME, DEPT_ID FROM EMPLOYEES ORDER BY DEPT_ID, NAME")
	must(err)
	defer rows.Close()

	var name string
	var deptID int64
	for rows.Next() {
		must(rows.Scan(&name, &deptID))
		fmt.Println(name, deptID)
	}
	must(rows.Err())
}

func exec(db *sql.DB, query string) error {
	_, err := db.Exec(query)
	return err
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

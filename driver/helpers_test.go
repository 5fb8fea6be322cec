package driver_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/csvsqldb/csvsqldb/driver"
)

// sqlOpen opens a *sql.DB against the csvsqldb driver registered by
// package driver's init(), pointed at dir.
func sqlOpen(t *testing.T, dir string) *sql.DB {
	t.Helper()
	db, err := sql.Open("csvsqldb", dir)
	require.NoError(t, err)
	return db
}

// mustExec runs a DDL statement and fails the test on error.
func mustExec(t *testing.T, db *sql.DB, query string) {
	t.Helper()
	_, err := db.Exec(query)
	require.NoError(t, err, query)
}

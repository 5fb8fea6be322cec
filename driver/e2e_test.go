package driver_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	dir := newPersonDatabase(t)
	db := sqlOpen(t, dir)
	defer db.Close()

	t.Run("select all ordered", func(t *testing.T) {
		rows, err := db.Query("SELECT ID, NAME, EMAIL FROM PERSON ORDER BY ID")
		require.NoError(t, err)
		defer rows.Close()

		var got []person
		for rows.Next() {
			var p person
			require.NoError(t, rows.Scan(&p.ID, &p.Name, &p.Email))
			got = append(got, p)
		}
		require.NoError(t, rows.Err())
		require.Equal(t, personRecords, got)
	})

	t.Run("select first via limit", func(t *testing.T) {
		var p person
		row := db.QueryRow("SELECT ID, NAME, EMAIL FROM PERSON ORDER BY ID LIMIT 1")
		require.NoError(t, row.Scan(&p.ID, &p.Name, &p.Email))
		require.Equal(t, personRecords[0], p)
	})

	t.Run("select one column with filter", func(t *testing.T) {
		rows, err := db.Query("SELECT NAME FROM PERSON WHERE NAME LIKE 'John%' ORDER BY ID")
		require.NoError(t, err)
		defer rows.Close()

		var names []string
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			names = append(names, name)
		}
		require.NoError(t, rows.Err())
		require.Equal(t, []string{"John Doe", "John Doe"}, names)
	})

	t.Run("count aggregate", func(t *testing.T) {
		var count int64
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM PERSON").Scan(&count))
		require.EqualValues(t, len(personRecords), count)
	})

	t.Run("system table reflects catalog", func(t *testing.T) {
		var name string
		require.NoError(t, db.QueryRow(
			"SELECT NAME FROM SYSTEM_TABLES WHERE NAME = 'PERSON'").Scan(&name))
		require.Equal(t, "PERSON", name)
	})
}

func TestExecDDL(t *testing.T) {
	dir := t.TempDir()
	db := sqlOpen(t, dir)
	defer db.Close()

	mustExec(t, db, "CREATE TABLE T(A INT PRIMARY KEY, B INT CHECK(B>0))")

	var name string
	require.NoError(t, db.QueryRow(
		"SELECT NAME FROM SYSTEM_TABLES WHERE NAME = 'T'").Scan(&name))
	require.Equal(t, "T", name)

	mustExec(t, db, "DROP TABLE T")

	err := db.QueryRow("SELECT NAME FROM SYSTEM_TABLES WHERE NAME = 'T'").Scan(&name)
	require.Error(t, err)
}

func TestStmtRejectsArguments(t *testing.T) {
	dir := newPersonDatabase(t)
	db := sqlOpen(t, dir)
	defer db.Close()

	_, err := db.Query("SELECT * FROM PERSON WHERE ID = ?", int64(1))
	require.Error(t, err)
}

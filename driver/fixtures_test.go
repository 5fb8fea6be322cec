package driver_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// person mirrors one row of the PERSON table the end-to-end tests query.
type person struct {
	ID    int64
	Name  string
	Email string
}

var personRecords = []person{
	{1, "John Doe", "john@doe.com"},
	{2, "John Doe", "johnalt@doe.com"},
	{3, "Jane Doe", "jane@doe.com"},
	{4, "Evil Bob", "evilbob@gmail.com"},
}

// newPersonDatabase writes personRecords to person.csv under a fresh
// temp directory, then uses the driver itself to register the PERSON
// table and its file mapping, the way a real
// caller would provision a database directory before querying it.
func newPersonDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	f, err := os.Create(filepath.Join(dir, "person.csv"))
	require.NoError(t, err)
	for _, p := range personRecords {
		_, err := fmt.Fprintf(f, "%d,%s,%s\n", p.ID, p.Name, p.Email)
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	db := sqlOpen(t, dir)
	defer db.Close()
	mustExec(t, db, "CREATE TABLE PERSON(ID INT, NAME STRING, EMAIL STRING)")
	mustExec(t, db, `CREATE MAPPING PERSON 'person\.csv'`)

	return dir
}

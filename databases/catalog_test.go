package databases_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-sqlite-browser/databases"
	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/stretchr/testify/require"
)

// fixtureRoot lays out
//
//	people.db           people(id, name, age) with 3 rows, empty(x)
//	nested/deep/inv.sqlite
//	.hidden/secret.db
//	.dot.db
//	notes.txt
//	folder.db/          a directory, not a database
func fixtureRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	createDB(t, filepath.Join(root, "people.db"),
		`CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)`,
		`INSERT INTO people (name, age) VALUES ('ada', 36), ('grace', 45), ('linus', 21)`,
		`CREATE TABLE empty (x TEXT)`,
	)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested", "deep"), 0o755))
	createDB(t, filepath.Join(root, "nested", "deep", "inv.sqlite"),
		`CREATE TABLE items (sku TEXT)`,
	)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".hidden"), 0o755))
	createDB(t, filepath.Join(root, ".hidden", "secret.db"), `CREATE TABLE s (x TEXT)`)
	createDB(t, filepath.Join(root, ".dot.db"), `CREATE TABLE s (x TEXT)`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "folder.db"), 0o755))
	return root
}

func createDB(t *testing.T, path string, statements ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func newCatalog(t *testing.T) (*databases.Catalog, string) {
	t.Helper()
	root := fixtureRoot(t)
	c, err := databases.NewCatalog(root)
	require.NoError(t, err)
	return c, root
}

func TestNewCatalogRequiresDirectory(t *testing.T) {
	_, err := databases.NewCatalog(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, errors.ErrInvalidConfig)

	file := filepath.Join(t.TempDir(), "file.db")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = databases.NewCatalog(file)
	require.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestListDatabases(t *testing.T) {
	c, _ := newCatalog(t)

	paths, err := c.ListDatabases(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"nested/deep/inv.sqlite", "people.db"}, paths)
}

func TestListDatabasesEmptyRoot(t *testing.T) {
	c, err := databases.NewCatalog(t.TempDir())
	require.NoError(t, err)

	paths, err := c.ListDatabases(context.Background())
	require.NoError(t, err)
	require.NotNil(t, paths)
	require.Empty(t, paths)
}

func TestListTables(t *testing.T) {
	c, _ := newCatalog(t)

	tables, err := c.ListTables(context.Background(), "people.db")
	require.NoError(t, err)
	require.ElementsMatch(t, []databases.Table{
		{Name: "people", RowCount: 3},
		{Name: "empty", RowCount: 0},
	}, tables)

	tables, err = c.ListTables(context.Background(), "nested/deep/inv.sqlite")
	require.NoError(t, err)
	require.Equal(t, []databases.Table{{Name: "items", RowCount: 0}}, tables)
}

func TestListTablesMissingDatabase(t *testing.T) {
	c, _ := newCatalog(t)

	for _, p := range []string{"nope.db", "folder.db", ""} {
		_, err := c.ListTables(context.Background(), p)
		require.ErrorIs(t, err, errors.ErrDatabaseNotFound, p)
	}
}

func TestRecords(t *testing.T) {
	c, _ := newCatalog(t)

	set, err := c.Records(context.Background(), "people.db", "people", "")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "age"}, set.Columns)
	require.Equal(t, 3, set.Count)
	require.Len(t, set.Records, 3)

	set, err = c.Records(context.Background(), "people.db", "people", "WHERE age > 30 ORDER BY age DESC")
	require.NoError(t, err)
	require.Equal(t, 2, set.Count)
	require.Equal(t, "grace", set.Records[0][1])
	require.EqualValues(t, 45, set.Records[0][2])

	set, err = c.Records(context.Background(), "people.db", "empty", "   ")
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, set.Columns)
	require.NotNil(t, set.Records)
	require.Zero(t, set.Count)
}

func TestRecordsInvalidTableName(t *testing.T) {
	c, _ := newCatalog(t)

	for _, name := range []string{"people; DROP TABLE people", "people--", "", "pe ople", `"people"`} {
		_, err := c.Records(context.Background(), "people.db", name, "")
		require.ErrorIs(t, err, errors.ErrInvalidTableName, name)
	}

	// a missing database wins over a bad table name
	_, err := c.Records(context.Background(), "nope.db", "bad name", "")
	require.ErrorIs(t, err, errors.ErrDatabaseNotFound)
}

func TestRecordsBadWhereClause(t *testing.T) {
	c, _ := newCatalog(t)

	_, err := c.Records(context.Background(), "people.db", "people", "WHERE nonsense ===")
	require.Error(t, err)
	require.False(t, errors.Is(err, errors.ErrInvalidTableName))
	require.False(t, errors.Is(err, errors.ErrDatabaseNotFound))
}

func TestRecordsCannotWrite(t *testing.T) {
	c, _ := newCatalog(t)

	_, _ = c.Records(context.Background(), "people.db", "people", "WHERE 1=1; DELETE FROM people")

	tables, err := c.ListTables(context.Background(), "people.db")
	require.NoError(t, err)
	for _, table := range tables {
		if table.Name == "people" {
			require.EqualValues(t, 3, table.RowCount)
		}
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	c, root := newCatalog(t)

	outside := filepath.Join(t.TempDir(), "outside.db")
	createDB(t, outside, `CREATE TABLE o (x TEXT)`)
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.db")))

	for _, p := range []string{"../outside.db", "nested/../../outside.db", outside, "link.db"} {
		_, err := c.Resolve(p)
		require.ErrorIs(t, err, errors.ErrPathOutsideRoot, p)
	}

	resolved, err := c.Resolve("nested/deep/../deep/inv.sqlite")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(c.Root(), "nested", "deep", "inv.sqlite"), resolved)
}

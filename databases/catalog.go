// Package databases discovers SQLite files under a root directory and reads
// their tables and rows. Every database is opened read-only.
package databases

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/internal/metrics"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	databaseExtensions = map[string]bool{
		".db":     true,
		".sqlite": true,
	}
)

// Table is one table of a database together with its row count
type Table struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

// RecordSet is the result of a record query
type RecordSet struct {
	Columns []string `json:"columns"`
	Records [][]any  `json:"records"`
	Count   int      `json:"count"`
}

// Catalog serves the databases found under a single root directory
type Catalog struct {
	root string
}

// NewCatalog returns a catalog rooted at dir, which must exist
func NewCatalog(dir string) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve database root %q", dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: database root %q: %v", errors.ErrInvalidConfig, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: database root %q is not a directory", errors.ErrInvalidConfig, dir)
	}
	return &Catalog{root: abs}, nil
}

// Root is the absolute directory the catalog serves
func (c *Catalog) Root() string {
	return c.root
}

// ListDatabases returns the slash-separated paths, relative to the root, of
// every regular *.db and *.sqlite file. Hidden files and directories are
// skipped.
func (c *Catalog) ListDatabases(ctx context.Context) (paths []string, err error) {
	defer func() { metrics.RecordQuery("list_databases", err) }()

	paths = []string{}
	err = filepath.WalkDir(c.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == c.root {
				return walkErr
			}
			log.Debug().Err(walkErr).Str("path", path).Msg("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == c.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !databaseExtensions[filepath.Ext(d.Name())] {
			return nil
		}
		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list databases")
	}
	sort.Strings(paths)
	return paths, nil
}

// ListTables returns every table of the database with its row count
func (c *Catalog) ListTables(ctx context.Context, dbPath string) (tables []Table, err error) {
	defer func() { metrics.RecordQuery("list_tables", err) }()

	db, err := c.open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	tables = make([]Table, 0, len(names))
	for _, name := range names {
		var count int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&count); err != nil {
			return nil, errors.Wrapf(err, "count rows of %s", name)
		}
		tables = append(tables, Table{Name: name, RowCount: count})
	}
	return tables, nil
}

// Records runs SELECT * against table with whereClause appended verbatim.
// The table name must be a bare identifier. Since the connection is
// read-only the clause cannot modify the file.
func (c *Catalog) Records(ctx context.Context, dbPath, table, whereClause string) (set *RecordSet, err error) {
	defer func() { metrics.RecordQuery("records", err) }()

	path, err := c.Resolve(dbPath)
	if err != nil {
		return nil, err
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidTableName, table)
	}

	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := "SELECT * FROM " + table
	if strings.TrimSpace(whereClause) != "" {
		query += " " + whereClause
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", table)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(err, "read columns")
	}

	set = &RecordSet{Columns: columns, Records: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(err, "scan row")
		}
		set.Records = append(set.Records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate rows")
	}
	set.Count = len(set.Records)
	return set, nil
}

// Resolve maps a root-relative database path to an absolute one. The path
// must name an existing regular file inside the root once symlinks are
// followed.
func (c *Catalog) Resolve(dbPath string) (string, error) {
	if strings.TrimSpace(dbPath) == "" {
		return "", fmt.Errorf("%w: empty path", errors.ErrDatabaseNotFound)
	}
	if filepath.IsAbs(dbPath) || !filepath.IsLocal(filepath.FromSlash(dbPath)) {
		return "", fmt.Errorf("%w: %q", errors.ErrPathOutsideRoot, dbPath)
	}

	path := filepath.Join(c.root, filepath.FromSlash(dbPath))
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", errors.ErrDatabaseNotFound, dbPath)
		}
		return "", errors.Wrapf(err, "resolve %q", dbPath)
	}
	if !within(c.root, resolved) {
		return "", fmt.Errorf("%w: %q", errors.ErrPathOutsideRoot, dbPath)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q", errors.ErrDatabaseNotFound, dbPath)
	}
	return resolved, nil
}

func (c *Catalog) open(dbPath string) (*sql.DB, error) {
	path, err := c.Resolve(dbPath)
	if err != nil {
		return nil, err
	}
	return openReadOnly(path)
}

func openReadOnly(path string) (*sql.DB, error) {
	dsn := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	db, err := sql.Open("sqlite", dsn.String())
	if err != nil {
		return nil, errors.Wrapf(err, "open database")
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, errors.Wrapf(err, "list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrapf(err, "scan table name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return filepath.IsLocal(rel)
}

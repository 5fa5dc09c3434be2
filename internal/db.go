package internal

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
)

const sqlitePragmas = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA synchronous=NORMAL;
PRAGMA temp_store=MEMORY;
`

// openSqlite opens (creating if needed) the SQLite database at path with a
// single connection, so statements from one run never interleave.
func openSqlite(path string) (*sqlx.DB, error) {
	if err := ensureParent(path); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driverName, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqlitePragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// sqliteDSN builds a file: URI for path. The path is escaped so names with
// '?', '#' or '%' are not read as URI syntax.
func sqliteDSN(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "_txlock=immediate&mode=rwc",
	}
	return u.String()
}

func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ensure parent directory: %w", err)
	}
	return nil
}

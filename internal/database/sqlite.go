package database

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDSN turns a sqlite:// URL into a go-sqlite3 DSN with foreign keys
// enforced. "sqlite:///./shipments.db" names ./shipments.db and
// "sqlite://:memory:" an in-memory database.
func SQLiteDSN(databaseURL string) string {
	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if strings.HasPrefix(path, "/./") {
		path = path[1:]
	}
	if path == "" || path == ":memory:" {
		return "file::memory:?cache=shared&_foreign_keys=on"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func openSQLite(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", SQLiteDSN(databaseURL))
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers; one connection keeps transactions from
	// tripping over "database is locked".
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

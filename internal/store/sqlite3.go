package store

import (
	"fmt"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqlite3Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);
`

// NewSQLite3 opens a SQLite database through the cgo driver and returns the
// scs sqlite3 store on top of it.
func NewSQLite3(dsn string) (*sqlite3store.SQLite3Store, func() error, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to sqlite3 session store: %w", err)
	}
	if _, err := db.Exec(sqlite3Schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create session schema: %w", err)
	}

	st := sqlite3store.New(db.DB)
	closer := func() error {
		st.StopCleanup()
		return db.Close()
	}
	return st, closer, nil
}

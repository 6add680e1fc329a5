package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps session data in a SQLite file using the pure-Go driver.
type SQLiteStore struct {
	db          *sqlx.DB
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewSQLite opens the SQLite database at the given file path and ensures the
// sessions table is created. With a positive cleanupInterval expired rows
// are swept in the background until StopCleanup or Close is called.
func NewSQLite(filePath string, cleanupInterval time.Duration) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite session store: %w", err)
	}

	// WAL lets readers proceed while a session is being committed.
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode on sqlite session store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);
	`
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session schema: %w", err)
	}

	st := &SQLiteStore{db: db}
	if cleanupInterval > 0 {
		st.stopCleanup = make(chan struct{})
		go st.startCleanup(cleanupInterval)
	}
	return st, nil
}

func (s *SQLiteStore) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.DeleteExpired(); err != nil {
				log.Error().Err(err).Msg("Session store cleanup failed")
			}
		case <-s.stopCleanup:
			return
		}
	}
}

// StopCleanup stops the background sweep of expired sessions.
func (s *SQLiteStore) StopCleanup() {
	if s.stopCleanup == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

// Find returns the data for a session token. Expired sessions are reported
// as not found.
func (s *SQLiteStore) Find(token string) ([]byte, bool, error) {
	var item struct {
		Data   []byte `db:"data"`
		Expiry int64  `db:"expiry"`
	}
	query := `SELECT data, expiry FROM sessions WHERE token = ?`
	err := s.db.Get(&item, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find session: %w", err)
	}

	if time.Now().UnixNano() > item.Expiry {
		// Expired rows are removed lazily (best effort).
		_ = s.Delete(token)
		return nil, false, nil
	}

	return item.Data, true, nil
}

// Commit adds or replaces a session.
func (s *SQLiteStore) Commit(token string, b []byte, expiry time.Time) error {
	query := `INSERT OR REPLACE INTO sessions (token, data, expiry) VALUES (?, ?, ?)`
	_, err := s.db.Exec(query, token, b, expiry.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *SQLiteStore) Delete(token string) error {
	query := `DELETE FROM sessions WHERE token = ?`
	_, err := s.db.Exec(query, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every expired session and returns how many were
// removed.
func (s *SQLiteStore) DeleteExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expiry < ?`, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the cleanup and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.StopCleanup()
	return s.db.Close()
}

package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentpilot/core"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_records (
	session_id TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore keeps one row per session keyed by session_id. Updates run
// inside a transaction; concurrent updates to the same id are additionally
// serialized through per-key locks (last writer wins after serialization,
// never interleaved), while different ids proceed independently.
type SQLiteStore struct {
	db   *sql.DB
	keys *keyLock
	opts Options
}

// NewSQLiteStore opens (and initializes) the database at path. Use ":memory:"
// for an ephemeral store in tests.
func NewSQLiteStore(path string, optFns ...func(o *Options)) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, &core.StorageError{Op: "open", Err: err}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &core.StorageError{Op: "init", Err: err}
	}
	return &SQLiteStore{db: db, keys: newKeyLock(), opts: applyOptions(optFns)}, nil
}

// NewSQLiteStoreFromDB wraps an already opened database handle.
func NewSQLiteStoreFromDB(db *sql.DB, optFns ...func(o *Options)) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, &core.StorageError{Op: "init", Err: err}
	}
	return &SQLiteStore{db: db, keys: newKeyLock(), opts: applyOptions(optFns)}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Get loads and decodes the payload row for the given id.
func (s *SQLiteStore) Get(sessionID string) (*core.Session, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM session_records WHERE session_id = ?`, sessionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewSessionNotFound(sessionID)
	}
	if err != nil {
		return nil, &core.StorageError{Op: "read", Err: err}
	}
	var sess core.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, &core.StorageError{Op: "decode", Err: fmt.Errorf("session %s: %w", sessionID, err)}
	}
	return &sess, nil
}

// Create allocates a session with a fresh unique id and persists its empty
// record.
func (s *SQLiteStore) Create() (*core.Session, error) {
	sess := core.NewSession(core.NewSessionID())
	if err := s.Update(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update upserts the session row inside a transaction.
func (s *SQLiteStore) Update(sess *core.Session) error {
	unlock := s.keys.Lock(sess.ID)
	defer unlock()

	sess.UpdatedAt = time.Now().UTC()
	sess.BoundHistory(s.opts.HistoryLimit)

	payload, err := json.Marshal(sess)
	if err != nil {
		return &core.StorageError{Op: "encode", Err: err}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &core.StorageError{Op: "begin", Err: err}
	}
	_, err = tx.Exec(`
		INSERT INTO session_records (session_id, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		sess.ID, string(payload), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		tx.Rollback()
		return &core.StorageError{Op: "write", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: "commit", Err: err}
	}
	return nil
}

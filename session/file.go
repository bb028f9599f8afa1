package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/agentpilot/core"
)

// FileStore persists one JSON document per session under a dedicated
// directory. Records are written to a temporary file first and then moved
// into place with an atomic rename, so a crash mid-write never leaves a
// partially written record observable.
type FileStore struct {
	dir  string
	keys *keyLock
	opts Options
}

// NewFileStore creates the base directory if needed and returns a file
// backed session store.
func NewFileStore(dir string, optFns ...func(o *Options)) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &core.StorageError{Op: "init", Err: err}
	}
	return &FileStore{dir: dir, keys: newKeyLock(), opts: applyOptions(optFns)}, nil
}

// path maps a session id to its record file, neutralizing separators so ids
// cannot escape the base directory.
func (s *FileStore) path(sessionID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(sessionID)
	return filepath.Join(s.dir, safe+".json")
}

// Get reads and decodes the session record for the given id.
func (s *FileStore) Get(sessionID string) (*core.Session, error) {
	unlock := s.keys.Lock(sessionID)
	defer unlock()
	return s.read(sessionID)
}

func (s *FileStore) read(sessionID string) (*core.Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NewSessionNotFound(sessionID)
	}
	if err != nil {
		return nil, &core.StorageError{Op: "read", Err: err}
	}
	var sess core.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &core.StorageError{Op: "decode", Err: fmt.Errorf("session %s: %w", sessionID, err)}
	}
	return &sess, nil
}

// Create allocates a session with a fresh unique id and persists its empty
// record.
func (s *FileStore) Create() (*core.Session, error) {
	sess := core.NewSession(core.NewSessionID())
	if err := s.Update(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update writes the snapshot via write-temporary-then-atomic-replace.
func (s *FileStore) Update(sess *core.Session) error {
	unlock := s.keys.Lock(sess.ID)
	defer unlock()

	sess.UpdatedAt = time.Now().UTC()
	sess.BoundHistory(s.opts.HistoryLimit)

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return &core.StorageError{Op: "encode", Err: err}
	}

	final := s.path(sess.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &core.StorageError{Op: "write", Err: err}
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return &core.StorageError{Op: "replace", Err: err}
	}
	return nil
}

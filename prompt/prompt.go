// Package prompt manages versioned prompt packs stored on disk.
//
// A pack directory looks like:
//
//	prompts/
//	  active_version        (single line naming the default version)
//	  versions/
//	    v1.json             {"version": "v1", "prompts": {"router": "...", ...}}
//	    v2.json
//
// Versions are immutable once loaded. The manager resolves a version to an
// immutable Snapshot per request, so concurrent requests can run against
// different prompt versions without interfering.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Snapshot is one immutable prompt pack version. It implements
// core.PromptSet.
type Snapshot struct {
	version string
	prompts map[string]string
}

// Lookup returns the prompt stored under key.
func (s *Snapshot) Lookup(key string) (string, bool) {
	v, ok := s.prompts[key]
	return v, ok
}

// Version returns the pack version identifier.
func (s *Snapshot) Version() string {
	return s.version
}

// NewSnapshot builds an in-memory snapshot. Intended for tests and embedded
// defaults; production packs come from a Manager.
func NewSnapshot(version string, prompts map[string]string) *Snapshot {
	copied := make(map[string]string, len(prompts))
	for k, v := range prompts {
		copied[k] = v
	}
	return &Snapshot{version: version, prompts: copied}
}

type packFile struct {
	Version string            `json:"version"`
	Prompts map[string]string `json:"prompts"`
}

// Manager loads prompt pack versions from a directory and caches them.
type Manager struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Snapshot
}

// NewManager creates a manager over the given pack directory.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		cache: make(map[string]*Snapshot),
	}
}

// ActiveVersion reads the active_version marker file.
func (m *Manager) ActiveVersion() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, "active_version"))
	if err != nil {
		return "", fmt.Errorf("read active version: %w", err)
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", fmt.Errorf("active_version file is empty")
	}
	return version, nil
}

// Resolve returns the snapshot for the requested version, or for the active
// version when override is empty. Loaded versions are cached; the files are
// treated as immutable.
func (m *Manager) Resolve(override string) (*Snapshot, error) {
	version := override
	if version == "" {
		active, err := m.ActiveVersion()
		if err != nil {
			return nil, err
		}
		version = active
	}

	m.mu.RLock()
	snap, ok := m.cache[version]
	m.mu.RUnlock()
	if ok {
		return snap, nil
	}

	snap, err := m.load(version)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[version] = snap
	m.mu.Unlock()
	return snap, nil
}

// Versions lists the pack versions available on disk.
func (m *Manager) Versions() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.dir, "versions"))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(name, ".json"))
	}
	return versions, nil
}

func (m *Manager) load(version string) (*Snapshot, error) {
	if strings.ContainsAny(version, "/\\") || strings.Contains(version, "..") {
		return nil, fmt.Errorf("invalid prompt version %q", version)
	}

	path := filepath.Join(m.dir, "versions", version+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load prompt version %q: %w", version, err)
	}

	var pf packFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse prompt version %q: %w", version, err)
	}
	if len(pf.Prompts) == 0 {
		return nil, fmt.Errorf("prompt version %q contains no prompts", version)
	}

	return NewSnapshot(version, pf.Prompts), nil
}

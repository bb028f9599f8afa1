package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, BackendFile, cfg.Session.Backend)
	assert.Equal(t, 20, cfg.Session.HistoryLimit)
	assert.Equal(t, "general_assistant", cfg.Engine.DefaultAgent)
	assert.Equal(t, 60*time.Second, cfg.Engine.CallTimeout.Std())
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
model:
  provider: openai
  name: gpt-4o-mini
session:
  backend: sqlite
  sqlite_path: /tmp/pilot.db
  history_limit: 5
engine:
  default_agent: analysis_assistant
  call_timeout: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, BackendSQLite, cfg.Session.Backend)
	assert.Equal(t, 5, cfg.Session.HistoryLimit)
	assert.Equal(t, "analysis_assistant", cfg.Engine.DefaultAgent)
	assert.Equal(t, 90*time.Second, cfg.Engine.CallTimeout.Std())
	// Untouched fields keep defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGENTPILOT_MODEL_PROVIDER", "openai")
	t.Setenv("AGENTPILOT_SESSION_BACKEND", "memory")
	t.Setenv("AGENTPILOT_HISTORY_LIMIT", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 7, cfg.Session.HistoryLimit)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Session.Backend = "redis"
	assert.ErrorContains(t, cfg.Validate(), "session backend")

	cfg = Default()
	cfg.Session.HistoryLimit = 0
	assert.ErrorContains(t, cfg.Validate(), "history_limit")

	cfg = Default()
	cfg.Engine.CallTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "call_timeout")

	cfg = Default()
	cfg.Engine.EventBufferSize = 0
	assert.ErrorContains(t, cfg.Validate(), "event_buffer_size")

	assert.NoError(t, Default().Validate())
}

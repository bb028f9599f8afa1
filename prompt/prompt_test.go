package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePack(t *testing.T, dir, version, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "versions"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "versions", version+".json"), []byte(body), 0o644))
}

func writeActive(t *testing.T, dir, version string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "active_version"), []byte(version+"\n"), 0o644))
}

func TestManagerResolveActiveVersion(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "v1", `{"version": "v1", "prompts": {"router": "route things"}}`)
	writeActive(t, dir, "v1")

	m := NewManager(dir)
	snap, err := m.Resolve("")
	require.NoError(t, err)

	assert.Equal(t, "v1", snap.Version())
	p, ok := snap.Lookup("router")
	require.True(t, ok)
	assert.Equal(t, "route things", p)

	_, ok = snap.Lookup("missing")
	assert.False(t, ok)
}

func TestManagerResolveOverride(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "v1", `{"prompts": {"router": "old"}}`)
	writePack(t, dir, "v2", `{"prompts": {"router": "new"}}`)
	writeActive(t, dir, "v1")

	m := NewManager(dir)
	snap, err := m.Resolve("v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", snap.Version())

	p, _ := snap.Lookup("router")
	assert.Equal(t, "new", p)
}

func TestManagerResolveUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "v1", `{"prompts": {"a": "b"}}`)
	writeActive(t, dir, "v1")

	m := NewManager(dir)
	_, err := m.Resolve("v9")
	assert.ErrorContains(t, err, "v9")
}

func TestManagerRejectsPathTraversal(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Resolve("../../etc/passwd")
	assert.ErrorContains(t, err, "invalid prompt version")
}

func TestManagerMissingActiveVersion(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Resolve("")
	assert.Error(t, err)
}

func TestManagerEmptyPackRejected(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "v1", `{"prompts": {}}`)

	m := NewManager(dir)
	_, err := m.Resolve("v1")
	assert.ErrorContains(t, err, "no prompts")
}

func TestManagerCachesLoadedVersions(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "v1", `{"prompts": {"a": "original"}}`)

	m := NewManager(dir)
	snap, err := m.Resolve("v1")
	require.NoError(t, err)

	// Rewriting the file does not affect the cached immutable snapshot.
	writePack(t, dir, "v1", `{"prompts": {"a": "changed"}}`)
	again, err := m.Resolve("v1")
	require.NoError(t, err)
	assert.Same(t, snap, again)

	p, _ := again.Lookup("a")
	assert.Equal(t, "original", p)
}

func TestManagerVersions(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "v1", `{"prompts": {"a": "b"}}`)
	writePack(t, dir, "v2", `{"prompts": {"a": "b"}}`)

	m := NewManager(dir)
	versions, err := m.Versions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "v2"}, versions)
}

func TestSnapshotCopiesInput(t *testing.T) {
	src := map[string]string{"k": "v"}
	snap := NewSnapshot("v1", src)
	src["k"] = "mutated"

	p, _ := snap.Lookup("k")
	assert.Equal(t, "v", p)
}

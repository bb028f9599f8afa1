package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpilot/core"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// storeFactories builds one fresh store per backend so shared behavior is
// verified uniformly.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store {
			return NewInMemoryStore()
		},
		"file": func() Store {
			s, err := NewFileStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreCreateGetUpdate(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()

			sess, err := store.Create()
			require.NoError(t, err)
			require.NotEmpty(t, sess.ID)

			got, err := store.Get(sess.ID)
			require.NoError(t, err)
			assert.Equal(t, sess.ID, got.ID)
			assert.Empty(t, got.RunHistory)

			sess.RecordRun(core.RunRecord{Input: "hello", ResponseSummary: "hi", Mode: core.ModeDirect})
			sess.Plan = &core.Plan{
				Objective: "obj",
				Steps:     []core.PlanStep{{Index: 0, Description: "a", Status: core.StepPending}},
			}
			require.NoError(t, store.Update(sess))

			got, err = store.Get(sess.ID)
			require.NoError(t, err)
			require.NotNil(t, got.LastRun)
			assert.Equal(t, "hello", got.LastRun.Input)
			require.NotNil(t, got.Plan)
			assert.Equal(t, "obj", got.Plan.Objective)
			assert.False(t, got.UpdatedAt.IsZero())
		})
	}
}

func TestStoreGetUnknownSession(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()

			_, err := store.Get("does-not-exist")
			var notFound *core.NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, "does-not-exist", notFound.ID)
		})
	}
}

func TestStoreBoundsHistoryOnUpdate(t *testing.T) {
	for name, factory := range map[string]func() Store{
		"memory": func() Store { return NewInMemoryStore(WithHistoryLimit(3)) },
		"file": func() Store {
			s, err := NewFileStore(t.TempDir(), WithHistoryLimit(3))
			require.NoError(t, err)
			return s
		},
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"), WithHistoryLimit(3))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	} {
		t.Run(name, func(t *testing.T) {
			store := factory()
			sess, err := store.Create()
			require.NoError(t, err)

			for i := 0; i < 4; i++ {
				sess.RecordRun(core.RunRecord{Input: fmt.Sprintf("run %d", i)})
			}
			require.NoError(t, store.Update(sess))

			got, err := store.Get(sess.ID)
			require.NoError(t, err)
			require.Len(t, got.RunHistory, 3)
			// Oldest entry evicted first.
			assert.Equal(t, "run 1", got.RunHistory[0].Input)
			assert.Equal(t, "run 3", got.RunHistory[2].Input)
		})
	}
}

func TestStoreConcurrentUpdatesSameSession(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			sess, err := store.Create()
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					snap, err := store.Get(sess.ID)
					if !assert.NoError(t, err) {
						return
					}
					snap.RecordRun(core.RunRecord{Input: fmt.Sprintf("run %d", i)})
					assert.NoError(t, store.Update(snap))
				}(i)
			}
			wg.Wait()

			got, err := store.Get(sess.ID)
			require.NoError(t, err)
			assert.NotEmpty(t, got.RunHistory)
		})
	}
}

func TestInMemoryStoreReturnsClones(t *testing.T) {
	store := NewInMemoryStore()
	sess, err := store.Create()
	require.NoError(t, err)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	got.RecordRun(core.RunRecord{Input: "local mutation"})

	again, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, again.RunHistory)
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	sess, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.Update(sess))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		// Atomic rename leaves no temp files behind.
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestFileStoreSanitizesSessionID(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	sess := core.NewSession("../escape/attempt")
	require.NoError(t, store.Update(sess))

	got, err := store.Get("../escape/attempt")
	require.NoError(t, err)
	assert.Equal(t, "../escape/attempt", got.ID)

	// Nothing may be written outside the store directory.
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape"))
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	sess, err := store.Create()
	require.NoError(t, err)
	sess.RecordRun(core.RunRecord{Input: "persisted"})
	require.NoError(t, store.Update(sess))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, "persisted", got.LastRun.Input)
}

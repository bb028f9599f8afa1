package session

import "sync"

// keyLock serializes operations per session id without a single global lock,
// so unrelated sessions never contend. Mutexes are allocated lazily and kept
// for the process lifetime; session id cardinality is low enough that this
// does not need eviction.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*sync.Mutex)}
}

func (k *keyLock) get(id string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	return l
}

// Lock acquires the per-id mutex and returns its unlock function.
func (k *keyLock) Lock(id string) func() {
	l := k.get(id)
	l.Lock()
	return l.Unlock
}

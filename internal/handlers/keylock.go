package handlers

import (
	"sync"
)

// KeyLocker hands out one mutex per natural key so read-modify-write
// cycles on the same record run one at a time while unrelated keys
// proceed in parallel. Mutexes are created on first use and kept for
// the life of the process.
type KeyLocker struct {
	keyLocks map[string]*sync.Mutex
	mapMutex sync.RWMutex // guards keyLocks
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for key, creating it if this is the first
// time the key is seen
func (kl *KeyLocker) Lock(key string) {
	kl.mapMutex.Lock()
	if kl.keyLocks[key] == nil {
		kl.keyLocks[key] = &sync.Mutex{}
	}
	keyMutex := kl.keyLocks[key]
	kl.mapMutex.Unlock()

	keyMutex.Lock()
}

// Unlock releases the mutex for key; a no-op if Lock was never called
func (kl *KeyLocker) Unlock(key string) {
	kl.mapMutex.RLock()
	keyMutex := kl.keyLocks[key]
	kl.mapMutex.RUnlock()

	if keyMutex != nil {
		keyMutex.Unlock()
	}
}

package storage

import (
	"sync"

	"github.com/mcoot/signedchess/internal/model"
)

// KeyedMutex provides one mutex per session id. Entries are dropped once
// nobody holds or waits on them. The zero value is ready to use.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[model.SessionID]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the lock for id is held and returns the matching unlock func
func (k *KeyedMutex) Lock(id model.SessionID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[model.SessionID]*keyedLock)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &keyedLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of ids currently locked or waited on
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

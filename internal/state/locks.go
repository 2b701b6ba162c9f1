package state

import (
	"sync"

	"github.com/goatnetwork/covered-call/internal/types"
)

type addressLock struct {
	mu   sync.Mutex
	refs int
}

type addressLocks struct {
	mu    sync.Mutex
	locks map[types.Pubkey]*addressLock
}

func newAddressLocks() *addressLocks {
	return &addressLocks{locks: make(map[types.Pubkey]*addressLock)}
}

// Lock blocks until address is free and returns the matching unlock. Entries
// are dropped once nobody holds or waits on them.
func (a *addressLocks) Lock(address types.Pubkey) func() {
	a.mu.Lock()
	l, ok := a.locks[address]
	if !ok {
		l = &addressLock{}
		a.locks[address] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, address)
		}
		a.mu.Unlock()
	}
}

func (a *addressLocks) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}

package server

import "sync"

// roomLocks serializes every mutation of a room. Entries are reference counted so
// idle rooms do not pin a mutex forever.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[string]*roomLock)}
}

// Lock blocks until roomID is free and returns its release func.
func (l *roomLocks) Lock(roomID string) func() {
	l.mu.Lock()
	lock := l.rooms[roomID]
	if lock == nil {
		lock = &roomLock{}
		l.rooms[roomID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.rooms, roomID)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}

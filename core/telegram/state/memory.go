package state

import "sync"

type memoryStore[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
}

// NewMemory constructs an in-memory Store.
func NewMemory[S any]() Store[S] {
	return &memoryStore[S]{sessions: make(map[int64]S)}
}

func (m *memoryStore[S]) Get(userID int64) (S, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[userID]
	return st, ok
}

func (m *memoryStore[S]) Put(userID int64, st S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = st
}

func (m *memoryStore[S]) Delete(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[userID]; !ok {
		return false
	}
	delete(m.sessions, userID)
	return true
}

func (m *memoryStore[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

package service

import (
	"sync"
)

// plateLocks serializes gate events per normalized plate. Events for
// different plates proceed independently; unreadable entries share the
// empty-key lock, which is harmless because they never match sessions.
type plateLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPlateLocks() *plateLocks {
	return &plateLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *plateLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

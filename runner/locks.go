package runner

import (
	"context"
	"sync"
)

// Locker serializes runs sharing a workspace key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is an in-process lock table. Entries are dropped once no
// caller holds or waits on them.
type MemoryLocker struct {
	locks *ConcurrentMap[string, *keyLock]
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: NewConcurrentMap[string, *keyLock]()}
}

func (m *MemoryLocker) acquire(key string) *keyLock {
	var l *keyLock
	m.locks.Update(key, func(cur *keyLock, ok bool) (*keyLock, bool) {
		if !ok {
			cur = &keyLock{ch: make(chan struct{}, 1)}
		}
		cur.refs++
		l = cur
		return cur, true
	})
	return l
}

func (m *MemoryLocker) release(key string) {
	m.locks.Update(key, func(cur *keyLock, ok bool) (*keyLock, bool) {
		if !ok {
			return nil, false
		}
		cur.refs--
		return cur, cur.refs > 0
	})
}

func (m *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l := m.acquire(key)
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key)
		return nil, ctx.Err()
	}

	once := sync.Once{}
	return func() {
		once.Do(func() {
			<-l.ch
			m.release(key)
		})
	}, nil
}

package lock

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Locker. Each key is a one-slot channel; entries
// are dropped once nobody holds or waits for them.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewMemory() *Memory { return &Memory{slots: map[string]*slot{}} }

func (m *Memory) Lock(ctx context.Context, keys ...string) (func(), error) {
	return acquireAll(keys, func(k string) (func(), error) { return m.take(ctx, k) })
}

func (m *Memory) take(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, s)
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.unref(key, s)
		})
	}, nil
}

func (m *Memory) unref(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

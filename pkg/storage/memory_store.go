package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Watchers are notified synchronously on
// the writing goroutine after the write is visible.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[string]map[uint64]func(Change)
	next     uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   map[string]string{},
		watchers: map[string]map[uint64]func(Change){},
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	old, existed := s.values[key]
	s.values[key] = value
	listeners := s.listeners(key)
	s.mu.Unlock()
	if existed && old == value {
		return nil
	}
	notify(listeners, Change{Key: key, Value: value, OldValue: old})
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	old, existed := s.values[key]
	delete(s.values, key)
	listeners := s.listeners(key)
	s.mu.Unlock()
	if !existed {
		return nil
	}
	notify(listeners, Change{Key: key, OldValue: old, Removed: true})
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, key string, fn func(Change)) (func(), error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if fn == nil {
		return func() {}, nil
	}
	s.mu.Lock()
	if s.watchers == nil {
		s.watchers = map[string]map[uint64]func(Change){}
	}
	s.next++
	id := s.next
	if s.watchers[key] == nil {
		s.watchers[key] = map[uint64]func(Change){}
	}
	s.watchers[key][id] = fn
	s.mu.Unlock()

	stopped := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers[key], id)
			if len(s.watchers[key]) == 0 {
				delete(s.watchers, key)
			}
			s.mu.Unlock()
			close(stopped)
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				stop()
			case <-stopped:
			}
		}()
	}
	return stop, nil
}

// listeners must be called with s.mu held.
func (s *MemoryStore) listeners(key string) []func(Change) {
	current := s.watchers[key]
	if len(current) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(current))
	for id := range current {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, current[id])
	}
	return out
}

func notify(listeners []func(Change), change Change) {
	for _, fn := range listeners {
		fn(change)
	}
}

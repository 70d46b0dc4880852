package statekit

import "sync"

// ProgramCache stores compiled expression programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a ProgramCache backed by a map.
type MemoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMemoryProgramCache returns an empty cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{programs: map[string]any{}}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = map[string]any{}
	}
	c.programs[key] = value
}

// Len returns the number of cached programs.
func (c *MemoryProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// WithProgramCache shares compiled programs across evaluations.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

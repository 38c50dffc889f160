package xplot

import (
	"strings"
	"sync"
)

// ProgramCache stores compiled expression programs. Keys combine the engine
// name with the expression, so one cache can serve several engines.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *modelConfig) {
		cfg.programCache = cache
	}
}

// MemoryProgramCache is an unbounded ProgramCache safe for concurrent use.
// Widgets opened through a Manager share one by default.
type MemoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMemoryProgramCache returns an empty cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{programs: make(map[string]any)}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = make(map[string]any)
	}
	c.programs[key] = value
}

// Len reports how many programs are cached.
func (c *MemoryProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

func cacheKey(engine string, parts ...string) string {
	return engine + "\x00" + strings.Join(parts, "\x00")
}

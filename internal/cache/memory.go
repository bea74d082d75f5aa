package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kidney-health-score-server/internal/interpret"
)

// InterpretationCache is a bounded in-process LRU for rendered narratives.
// Interpretations are pure text derived from a score and demographics, so a
// process-local cache needs no invalidation beyond eviction.
type InterpretationCache struct {
	lru *lru.Cache[string, interpret.Interpretation]
}

// NewInterpretationCache creates an interpretation cache bounded to maxItems.
func NewInterpretationCache(maxItems int) (*InterpretationCache, error) {
	cache, err := lru.New[string, interpret.Interpretation](maxItems)
	if err != nil {
		return nil, err
	}
	return &InterpretationCache{lru: cache}, nil
}

// Get retrieves a cached interpretation.
func (c *InterpretationCache) Get(key string) (interpret.Interpretation, bool) {
	return c.lru.Get(key)
}

// Set stores an interpretation.
func (c *InterpretationCache) Set(key string, interpretation interpret.Interpretation) {
	c.lru.Add(key, interpretation)
}

// Len returns the number of cached entries.
func (c *InterpretationCache) Len() int {
	return c.lru.Len()
}

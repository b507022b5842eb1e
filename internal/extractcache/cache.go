// Package extractcache memoizes rule extraction per definition. Entries are
// keyed by the definition's name, never by the definition pointer itself,
// so whatever owns definition lifetime can drop a definition and call
// Unregister without the cache pinning it.
package extractcache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vk/modelkit/internal/ctxlog"
	"github.com/vk/modelkit/internal/extract"
	"github.com/vk/modelkit/internal/rulesource"
)

// Cache memoizes extraction results. Safe for concurrent use: independent
// registries extracting the same definition at the same time converge on a
// single stored result, with losers blocking on the winner's extraction
// rather than re-running classification.
type Cache struct {
	extractor *extract.Extractor

	mu      sync.RWMutex
	entries map[string]entry

	inflight singleflight.Group
}

// entry holds one settled extraction: either the rule set or the
// validation failure, never both.
type entry struct {
	rules *extract.RuleSet
	err   error
}

// New creates an empty cache backed by the extractor.
func New(extractor *extract.Extractor) *Cache {
	return &Cache{
		extractor: extractor,
		entries:   make(map[string]entry),
	}
}

// Extract returns the extraction result for the definition, running the
// extractor on first request. Repeat requests for the same definition name
// return the identical stored *RuleSet. Validation failures are cached the
// same way; re-requesting a failed definition does not re-run extraction.
func (c *Cache) Extract(ctx context.Context, def *rulesource.Definition) (*extract.RuleSet, error) {
	key := def.Name()

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return cached.rules, cached.err
	}

	result, err, shared := c.inflight.Do(key, func() (any, error) {
		// Another goroutine may have settled the entry between the read
		// above and entering the flight group.
		c.mu.RLock()
		settled, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return settled.rules, settled.err
		}

		rules, err := c.extractor.Extract(def)
		c.mu.Lock()
		c.entries[key] = entry{rules: rules, err: err}
		c.mu.Unlock()
		return rules, err
	})
	if shared {
		ctxlog.FromContext(ctx).Debug("Joined in-flight rule extraction.", "definition", key)
	}

	rules, _ := result.(*extract.RuleSet)
	return rules, err
}

// Unregister drops the entry for a definition name. Callers that own
// definition lifetime use it on unload; a later Extract for the same name
// re-runs extraction with identical results for an identical definition.
func (c *Cache) Unregister(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
	c.inflight.Forget(name)
}

// Len reports how many settled entries the cache holds.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

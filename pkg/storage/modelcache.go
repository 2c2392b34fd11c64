package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/zkovac/bunplan/pkg/demand"
	"github.com/zkovac/bunplan/pkg/forest"
)

// ModelCache maps a training-batch fingerprint to the forest trained on it,
// so the daily tick skips retraining when the history has not changed.
//
// The cache is explicit: a key covers both the training rows and the
// hyperparameters, a data change yields a new key, and Invalidate drops
// everything. There is no implicit global model and no in-place retraining;
// a cached forest is immutable and safe to share across concurrent readers.
type ModelCache struct {
	mu     sync.RWMutex
	models map[string]*forest.Forest
}

// NewModelCache creates an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{
		models: make(map[string]*forest.Forest),
	}
}

// Key fingerprints a training batch and the hyperparameters it would be
// trained with. Identical data in identical order with identical
// hyperparameters produces an identical key.
func Key(records []demand.DailyRecord, cfg forest.Config) string {
	h := sha256.New()
	fmt.Fprintf(h, "trees=%d depth=%d leaf=%d seed=%d\n", cfg.Trees, cfg.MaxDepth, cfg.MinLeafSamples, cfg.Seed)
	for _, r := range records {
		fmt.Fprintf(h, "%s|%d", r.Date.Format("2006-01-02"), r.UnitsConsumed)
		if r.Temperature != nil {
			fmt.Fprintf(h, "|t=%g", *r.Temperature)
		}
		if r.Precipitation != nil {
			fmt.Fprintf(h, "|p=%g", *r.Precipitation)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached forest for a key, if any.
func (c *ModelCache) Get(key string) (*forest.Forest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.models[key]
	return f, ok
}

// Put stores a trained forest under its key.
func (c *ModelCache) Put(key string, f *forest.Forest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[key] = f
}

// Invalidate drops every cached model.
func (c *ModelCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = make(map[string]*forest.Forest)
}

// Len returns the number of cached models. Primarily useful for tests.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Package cache holds populated document views between requests. Entries are
// JSON objects keyed by model, id and populate depth.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	id "mugs/pkg/domain"
)

// Views caches rendered documents.
type Views interface {
	Get(ctx context.Context, key string) (map[string]any, bool, error)
	Set(ctx context.Context, key string, view map[string]any, ttl time.Duration) error
	// Invalidate drops every cached view of the document.
	Invalidate(ctx context.Context, model string, docID id.ID) error
}

// Key names the view of docID at depth.
func Key(model string, docID id.ID, depth int) string {
	return fmt.Sprintf("%s%d", prefix(model, docID), depth)
}

func prefix(model string, docID id.ID) string {
	return "mugs:view:" + model + ":" + docID.Hex() + ":"
}

type entry struct {
	view      map[string]any
	expiresAt time.Time
}

// InMemory is a process-local Views with lazy expiry.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]entry), now: time.Now}
}

func (c *InMemory) Get(_ context.Context, key string) (map[string]any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.view, true, nil
}

func (c *InMemory) Set(_ context.Context, key string, view map[string]any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{view: view}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *InMemory) Invalidate(_ context.Context, model string, docID id.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := prefix(model, docID)
	for key := range c.entries {
		if strings.HasPrefix(key, p) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) (map[string]any, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, map[string]any, time.Duration) error { return nil }
func (Nop) Invalidate(context.Context, string, id.ID) error                  { return nil }

// Package cache implements the read-through cache coordinator that sits in
// front of the note repository. The cache is never authoritative: every error
// from the backing store degrades to a miss (reads) or a no-op (writes and
// invalidation) and is logged, never propagated.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notevault/pkg/logger"

	"github.com/cockroachdb/errors"
)

// ErrMiss is returned by a Store when a key is absent.
var ErrMiss = errors.New("cache miss")

// Store is the minimal key-value contract the coordinator needs. A Redis
// client satisfies it in production; tests use an in-memory map.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPattern(ctx context.Context, pattern string) error
}

// Coordinator owns the key scheme and the invalidation policy. Callers must
// invalidate only after the underlying transaction commits; a brief stale
// window between commit and invalidation is accepted and bounded by the TTL.
type Coordinator struct {
	store Store
	ttl   time.Duration
}

// New builds a coordinator. A nil store disables caching: every read is a
// miss and writes are no-ops, which keeps the service fully functional when
// Redis is unreachable at startup.
func New(store Store, ttl time.Duration) *Coordinator {
	return &Coordinator{store: store, ttl: ttl}
}

func noteKey(ownerID, noteID string) string {
	return fmt.Sprintf("notes:note:%s:%s", ownerID, noteID)
}

func ownerPrefix(ownerID string) string {
	return fmt.Sprintf("notes:owner:%s:", ownerID)
}

func listKey(ownerID string) string {
	return ownerPrefix(ownerID) + "all"
}

func searchKey(ownerID, query string) string {
	return ownerPrefix(ownerID) + "search:" + query
}

// GetNote loads a cached note into dest, reporting whether it was a hit.
func (c *Coordinator) GetNote(ctx context.Context, ownerID, noteID string, dest any) bool {
	return c.get(ctx, noteKey(ownerID, noteID), dest)
}

func (c *Coordinator) SetNote(ctx context.Context, ownerID, noteID string, value any) {
	c.set(ctx, noteKey(ownerID, noteID), value, c.ttl)
}

func (c *Coordinator) GetList(ctx context.Context, ownerID string, dest any) bool {
	return c.get(ctx, listKey(ownerID), dest)
}

func (c *Coordinator) SetList(ctx context.Context, ownerID string, value any) {
	c.set(ctx, listKey(ownerID), value, c.ttl)
}

func (c *Coordinator) GetSearch(ctx context.Context, ownerID, query string, dest any) bool {
	return c.get(ctx, searchKey(ownerID, query), dest)
}

// SetSearch caches search results at half the base TTL; result sets go stale
// faster than single notes.
func (c *Coordinator) SetSearch(ctx context.Context, ownerID, query string, value any) {
	c.set(ctx, searchKey(ownerID, query), value, c.ttl/2)
}

// InvalidateNote drops the single-note key plus every list and search entry
// for the owner. Coarse per-owner invalidation is deliberate: tracking which
// queries a mutation affects is not worth it at these TTLs.
func (c *Coordinator) InvalidateNote(ctx context.Context, ownerID, noteID string) {
	if c.store == nil {
		return
	}
	if err := c.store.Del(ctx, noteKey(ownerID, noteID)); err != nil {
		logger.Sugar.Warnf("Cache invalidation failed for note %s: %v", noteID, err)
	}
	if err := c.store.DelPattern(ctx, ownerPrefix(ownerID)+"*"); err != nil {
		logger.Sugar.Warnf("Cache invalidation failed for owner %s: %v", ownerID, err)
	}
}

func (c *Coordinator) get(ctx context.Context, key string, dest any) bool {
	if c.store == nil {
		return false
	}
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false
	}
	if err != nil {
		logger.Sugar.Warnf("Cache read failed for %s, treating as miss: %v", key, err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Sugar.Warnf("Cache entry %s is corrupt, treating as miss: %v", key, err)
		return false
	}
	return true
}

func (c *Coordinator) set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Sugar.Warnf("Cache encode failed for %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, string(raw), ttl); err != nil {
		logger.Sugar.Warnf("Cache write failed for %s: %v", key, err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"finledger/internal/cache"
)

// memoryCache is an in-process ReportCache keyed by per-user generations,
// like the Redis store. It counts invalidations.
type memoryCache struct {
	mu            sync.Mutex
	entries       map[string][]byte
	invalidations map[string]int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, invalidations: map[string]int{}}
}

func memoryKey(userID string, version cache.Version, key string) string {
	return fmt.Sprintf("%s|%d|%s", userID, version, key)
}

func (c *memoryCache) Get(_ context.Context, userID, key string, dest any) (cache.Version, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version := cache.Version(c.invalidations[userID])
	b, ok := c.entries[memoryKey(userID, version, key)]
	if !ok {
		return version, false, nil
	}
	return version, true, json.Unmarshal(b, dest)
}

func (c *memoryCache) Set(_ context.Context, userID, key string, version cache.Version, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memoryKey(userID, version, key)] = b
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations[userID]++
	return nil
}

func (c *memoryCache) invalidated(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations[userID]
}

// interleavedCache runs beforeSet once, between a miss and the write that
// follows it.
type interleavedCache struct {
	*memoryCache
	beforeSet func()
}

func (c *interleavedCache) Set(ctx context.Context, userID, key string, version cache.Version, value any) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	return c.memoryCache.Set(ctx, userID, key, version, value)
}

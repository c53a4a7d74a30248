// Package cache stores computed reports so repeated statistics requests do
// not rescan the ledger. Entries are scoped per user and dropped as a group
// whenever that user's ledger changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Version identifies the state of a user's ledger as seen by a cache lookup.
type Version int64

// ReportCache is a per-user cache-aside store.
type ReportCache interface {
	// Get loads the entry under key into dest and reports whether it was
	// found, along with the version the lookup was made at.
	Get(ctx context.Context, userID, key string, dest any) (Version, bool, error)
	// Set stores value under the version returned by the Get that missed.
	// An entry written at a version older than the current one is never
	// served.
	Set(ctx context.Context, userID, key string, version Version, value any) error
	// Invalidate drops every entry of the user.
	Invalidate(ctx context.Context, userID string) error
}

const keyPrefix = "finledger"

// commander is the subset of the Redis client the cache needs.
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisCache keeps entries in Redis. Each user has a generation counter that
// is part of every entry key; Invalidate bumps the counter so stale entries
// become unreachable and expire on their own TTL.
type RedisCache struct {
	rdb commander
	ttl time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *RedisCache) Get(ctx context.Context, userID, key string, dest any) (Version, bool, error) {
	gen, err := c.generation(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	val, err := c.rdb.Get(ctx, entryKey(userID, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	} else if err != nil {
		return gen, false, err
	}
	return gen, true, json.Unmarshal(val, dest)
}

// Set stores value under the given generation with the cache TTL. If the
// user was invalidated since that generation was read, the entry lands on a
// key no reader looks up anymore.
func (c *RedisCache) Set(ctx context.Context, userID, key string, version Version, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, entryKey(userID, version, key), b, c.ttl).Err()
}

// Invalidate bumps the user's generation counter.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Incr(ctx, generationKey(userID)).Err()
}

func (c *RedisCache) generation(ctx context.Context, userID string) (Version, error) {
	raw, err := c.rdb.Get(ctx, generationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	return Version(gen), err
}

func generationKey(userID string) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, userID)
}

func entryKey(userID string, gen Version, key string) string {
	return fmt.Sprintf("%s:report:%s:%d:%s", keyPrefix, userID, gen, key)
}

// NopCache never stores anything. It is used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string, string, any) (Version, bool, error) { return 0, false, nil }
func (NopCache) Set(context.Context, string, string, Version, any) error        { return nil }
func (NopCache) Invalidate(context.Context, string) error                       { return nil }

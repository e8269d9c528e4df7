// Package cache keeps recently read tareas in Redis (cache-aside).
//
// Entries are JSON encoded under "<prefix>tarea:<id>" and expire after the
// configured TTL. Writers invalidate the entry for the id they touched.
//
// Every id also has a generation counter under "<prefix>tarea:<id>:gen".
// Invalidate bumps it, and a reader that missed the cache may only fill the
// entry if the generation it saw before reading the store is still current.
// A read that raced with a write therefore never caches the old document.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deppfellow/tareas/internal/model"
)

// generationTTL bounds how long a generation counter outlives its last
// invalidation when entries expire. It must exceed the longest store read.
const generationTTL = time.Hour

// fillScript sets KEYS[2] to ARGV[2] only while KEYS[1] (the generation)
// still equals ARGV[1]. ARGV[3] is the entry TTL in milliseconds, 0 for none.
var fillScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	current = ""
end
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1
`)

// Cache stores tareas in Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  stats
}

type stats struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	sets          atomic.Uint64
	staleFills    atomic.Uint64
	invalidations atomic.Uint64
	errors        atomic.Uint64
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Sets          uint64  `json:"sets"`
	StaleFills    uint64  `json:"stale_fills"`
	Invalidations uint64  `json:"invalidations"`
	Errors        uint64  `json:"errors"`
	HitRate       float64 `json:"hit_rate"`
}

// Lookup is the outcome of Get. On a miss it remembers the generation seen,
// which Fill checks before storing what the caller read from the store.
type Lookup struct {
	Tarea *model.Tarea
	Hit   bool

	id         string
	generation string
}

// New creates a cache on client. A zero ttl keeps entries until invalidated.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Cache) key(id string) string {
	return c.prefix + "tarea:" + id
}

func (c *Cache) generationKey(id string) string {
	return c.key(id) + ":gen"
}

// Get reads the entry for id together with its generation.
func (c *Cache) Get(ctx context.Context, id string) (Lookup, error) {
	values, err := c.client.MGet(ctx, c.key(id), c.generationKey(id)).Result()
	if err != nil {
		c.stats.errors.Add(1)
		return Lookup{}, fmt.Errorf("cache get error: %w", err)
	}

	lookup := Lookup{id: id}
	if generation, ok := values[1].(string); ok {
		lookup.generation = generation
	}

	data, ok := values[0].(string)
	if !ok {
		c.stats.misses.Add(1)
		return lookup, nil
	}

	var tarea model.Tarea
	if err := json.Unmarshal([]byte(data), &tarea); err != nil {
		c.stats.errors.Add(1)
		return Lookup{}, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.stats.hits.Add(1)
	lookup.Tarea = &tarea
	lookup.Hit = true
	return lookup, nil
}

// Fill stores tarea after a miss reported by lookup. It reports false, and
// stores nothing, when the id was invalidated after lookup was taken.
func (c *Cache) Fill(ctx context.Context, lookup Lookup, tarea *model.Tarea) (bool, error) {
	if lookup.id == "" || lookup.id != tarea.ID {
		return false, fmt.Errorf("cache fill error: lookup does not belong to tarea %s", tarea.ID)
	}

	data, err := json.Marshal(tarea)
	if err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache marshal error: %w", err)
	}

	stored, err := fillScript.Run(ctx, c.client,
		[]string{c.generationKey(tarea.ID), c.key(tarea.ID)},
		lookup.generation, data, strconv.FormatInt(c.ttl.Milliseconds(), 10),
	).Int()
	if err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache set error: %w", err)
	}

	if stored == 0 {
		c.stats.staleFills.Add(1)
		return false, nil
	}

	c.stats.sets.Add(1)
	return true, nil
}

// Invalidate drops the entry for id and bumps its generation so in-flight
// reads cannot fill it again. Invalidating a missing entry is not an error.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(id))
		if c.ttl > 0 {
			pipe.Expire(ctx, c.generationKey(id), max(c.ttl, generationTTL))
		}
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache invalidate error: %w", err)
	}

	c.stats.invalidations.Add(1)
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return Stats{
		Hits:          hits,
		Misses:        misses,
		Sets:          c.stats.sets.Load(),
		StaleFills:    c.stats.staleFills.Load(),
		Invalidations: c.stats.invalidations.Load(),
		Errors:        c.stats.errors.Load(),
		HitRate:       hitRate,
	}
}

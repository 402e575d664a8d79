// Package cache keeps recently read posts so repeated post lookups skip the
// store. Failures never surface to callers, a broken cache only means a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitwise74/blog-api/internal/events"
	"bitwise74/blog-api/internal/model"

	"github.com/jellydator/ttlcache/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultTTL = 30 * time.Second

type PostCache interface {
	Get(ctx context.Context, id string) (*model.Post, bool)
	Set(ctx context.Context, p *model.Post)
	Delete(ctx context.Context, ids ...string)
}

func key(id string) string {
	return "post:" + id
}

// Evictor returns an event handler dropping posts that were updated or
// deleted, possibly by another instance
func Evictor(c PostCache) func(events.PostEvent) {
	return func(e events.PostEvent) {
		if e.Action == events.PostCreated || e.PostID == "" {
			return
		}

		c.Delete(context.Background(), e.PostID)
	}
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string) (*model.Post, bool) { return nil, false }
func (Nop) Set(context.Context, *model.Post)                {}
func (Nop) Delete(context.Context, ...string)               {}

// Memory is an in-process cache
type Memory struct {
	c *ttlcache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	c.SkipTTLExtensionOnHit(true)

	return &Memory{c: c}
}

func (m *Memory) Get(_ context.Context, id string) (*model.Post, bool) {
	v, err := m.c.Get(key(id))
	if err != nil {
		if !errors.Is(err, ttlcache.ErrNotFound) {
			zap.L().Warn("Failed to read post from cache", zap.Error(err))
		}
		return nil, false
	}

	p, ok := v.(model.Post)
	if !ok {
		return nil, false
	}

	return clone(&p), true
}

func (m *Memory) Set(_ context.Context, p *model.Post) {
	if err := m.c.Set(key(p.ID), *clone(p)); err != nil {
		zap.L().Warn("Failed to cache post", zap.Error(err))
	}
}

func (m *Memory) Delete(_ context.Context, ids ...string) {
	for _, id := range ids {
		if err := m.c.Remove(key(id)); err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
			zap.L().Warn("Failed to evict post from cache", zap.Error(err))
		}
	}
}

func (m *Memory) Close() error {
	return m.c.Close()
}

// clone copies p and its creator so cached values can't be mutated by callers
func clone(p *model.Post) *model.Post {
	cp := *p
	if p.Creator != nil {
		c := *p.Creator
		c.PostIDs = append(model.StringSlice(nil), p.Creator.PostIDs...)
		cp.Creator = &c
	}

	return &cp
}

// Redis shares cached posts between instances
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, id string) (*model.Post, bool) {
	b, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("Failed to read post from Redis", zap.Error(err))
		}
		return nil, false
	}

	var p model.Post
	if err := json.Unmarshal(b, &p); err != nil {
		zap.L().Warn("Failed to decode cached post", zap.Error(err))
		return nil, false
	}

	return &p, true
}

func (r *Redis) Set(ctx context.Context, p *model.Post) {
	b, err := json.Marshal(p)
	if err != nil {
		zap.L().Warn("Failed to encode post for cache", zap.Error(err))
		return
	}

	if err := r.rdb.Set(ctx, key(p.ID), b, r.ttl).Err(); err != nil {
		zap.L().Warn("Failed to cache post in Redis", zap.Error(err))
	}
}

func (r *Redis) Delete(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		zap.L().Warn("Failed to evict posts from Redis", zap.Error(err))
	}
}

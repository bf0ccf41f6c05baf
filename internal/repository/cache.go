package repository

import (
	"context"
	"encoding/json"
	"time"

	"affilink/internal/models"

	"github.com/redis/go-redis/v9"
)

// LinkCache is a read-through cache of short links keyed by code. Every
// method is a no-op when Redis is absent; the redirect path must work
// without it.
type LinkCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLinkCache(rdb *redis.Client, ttl time.Duration) *LinkCache {
	return &LinkCache{rdb: rdb, ttl: ttl}
}

// cachedLink re-adds the password, which the model hides from API JSON but
// the password gate needs back out of the cache.
type cachedLink struct {
	models.ShortLink
	Password string `json:"password,omitempty"`
}

func (c *LinkCache) Get(ctx context.Context, code string) (*models.ShortLink, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, cacheKey(code)).Result()
	if err != nil {
		return nil, false
	}
	var entry cachedLink
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false
	}
	link := entry.ShortLink
	link.Password = entry.Password
	return &link, true
}

func (c *LinkCache) Set(ctx context.Context, link *models.ShortLink) {
	if c == nil || c.rdb == nil || link == nil {
		return
	}
	data, err := json.Marshal(cachedLink{ShortLink: *link, Password: link.Password})
	if err != nil {
		return
	}
	c.rdb.Set(ctx, cacheKey(link.ShortCode), data, c.ttl)
}

func (c *LinkCache) Invalidate(ctx context.Context, code string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, cacheKey(code))
}

func cacheKey(code string) string {
	return "link:" + code
}

// Package cache is the key/value store in front of catalog reads. Two
// backends exist: Redis, shared between processes, and an in-process map used
// when no Redis address is configured.
package cache

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Cache interface {
	// Get returns the value and true on a hit, nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key beginning with prefix and returns how
	// many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// ListPrefix starts every product listing key, so DeletePrefix(ListPrefix)
// drops all listings whatever their search term contains.
const ListPrefix = "products:list:"

const productPrefix = "product:"

func ProductKey(id int64) string {
	return productPrefix + strconv.FormatInt(id, 10)
}

// ListKey is a deterministic key for a listing query. The term is
// normalized the same way the store matches it, then escaped so it cannot
// collide with the numeric fields.
func ListKey(q string, skip, limit int) string {
	term := url.QueryEscape(strings.ToLower(strings.TrimSpace(q)))
	return ListPrefix + strconv.Itoa(skip) + ":" + strconv.Itoa(limit) + ":" + term
}

type Options struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DefaultTTL    time.Duration
}

// Open returns a Redis cache when an address is configured, otherwise an
// in-process one.
func Open(ctx context.Context, o Options) (Cache, error) {
	if o.RedisAddr == "" {
		return NewMemory(o.DefaultTTL), nil
	}
	return NewRedis(ctx, o.RedisAddr, o.RedisPassword, o.RedisDB)
}

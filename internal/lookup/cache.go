package lookup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

// Cache stores lookup results in Redis. Redis failures are logged and the
// lookup falls through to the service.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCache creates a cache with the given entry TTL.
func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		log:    log.Component("lookup_cache"),
	}
}

// CacheKey returns the Redis key for a service query. Queries differing only
// in case or surrounding space share a key.
func CacheKey(service, query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "lookup:" + service + ":" + hex.EncodeToString(sum[:])
}

func cached[T any](ctx context.Context, c *Cache, service, query string, keep func(T) bool, load func(context.Context) (T, error)) (T, error) {
	key := CacheKey(service, query)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			metrics.LookupCacheTotal.WithLabelValues(service, "hit").Inc()
			return v, nil
		}
		metrics.LookupCacheTotal.WithLabelValues(service, "error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.LookupCacheTotal.WithLabelValues(service, "miss").Inc()
	default:
		metrics.LookupCacheTotal.WithLabelValues(service, "error").Inc()
		c.log.Warn("Cache read failed", zap.String("service", service), zap.Error(err))
	}

	v, err := load(ctx)
	if err != nil || !keep(v) {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", zap.String("service", service), zap.Error(err))
	}
	return v, nil
}

// CachedSearcher caches non-empty search results.
type CachedSearcher struct {
	inner   Searcher
	cache   *Cache
	service string
}

// NewCachedSearcher wraps inner. A nil cache disables caching.
func NewCachedSearcher(inner Searcher, cache *Cache, service string) Searcher {
	if cache == nil {
		return inner
	}
	return &CachedSearcher{inner: inner, cache: cache, service: service}
}

func (s *CachedSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	return cached(ctx, s.cache, s.service, query,
		func(r []model.SearchResult) bool { return len(r) > 0 },
		func(ctx context.Context) ([]model.SearchResult, error) { return s.inner.Search(ctx, query) },
	)
}

// CachedDictionary caches dictionary responses, including suggestion lists.
type CachedDictionary struct {
	inner Dictionary
	cache *Cache
}

// NewCachedDictionary wraps inner. A nil cache disables caching.
func NewCachedDictionary(inner Dictionary, cache *Cache) Dictionary {
	if cache == nil {
		return inner
	}
	return &CachedDictionary{inner: inner, cache: cache}
}

func (d *CachedDictionary) Define(ctx context.Context, term string) (*model.DictionaryResponse, error) {
	return cached(ctx, d.cache, "dictionary", term,
		func(r *model.DictionaryResponse) bool { return r != nil && (len(r.Results) > 0 || len(r.Suggestions) > 0) },
		func(ctx context.Context) (*model.DictionaryResponse, error) { return d.inner.Define(ctx, term) },
	)
}

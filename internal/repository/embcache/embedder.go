package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/db"
	"github.com/kailas-cloud/moviesearch/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// Cache tiers, used as the "tier" metric label.
const (
	TierMemory = "memory"
	TierStore  = "store"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures the cache tiers.
type Options struct {
	// Namespace separates vectors of different models; usually the model name.
	Namespace string
	// MemorySize is the in-process LRU capacity; 0 disables the memory tier.
	MemorySize int
	// TTL bounds how long store entries live; 0 keeps them forever.
	TTL time.Duration
}

// CachedEmbedder caches query embeddings in an in-process LRU backed by a key-value store.
// Repeated queries (the common case for a search box) skip the provider round-trip.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	memory     *lru.Cache[string, []float32]
	opts       Options
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with labels "tier" and "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedEmbedder, error) {
	c := &CachedEmbedder{
		inner:      inner,
		store:      s,
		opts:       opts,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
	if opts.MemorySize > 0 {
		memory, err := lru.New[string, []float32](opts.MemorySize)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		c.memory = memory
	}
	return c, nil
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if c.memory != nil {
		if vec, ok := c.memory.Get(key); ok {
			c.incCache(TierMemory, "hit")
			return domain.EmbeddingResult{Embedding: cloneVector(vec)}, nil
		}
		c.incCache(TierMemory, "miss")
	}

	if c.store != nil {
		if vec, ok := c.getFromStore(ctx, key); ok {
			c.incCache(TierStore, "hit")
			c.putToMemory(key, vec)
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		c.incCache(TierStore, "miss")
	}

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.putToMemory(key, result.Embedding)
	c.putToStore(ctx, key, result.Embedding)
	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedEmbedder) incCache(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.opts.Namespace + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromStore(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := db.DecodeVector(string(data))
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToMemory(key string, vec []float32) {
	if c.memory != nil && len(vec) > 0 {
		c.memory.Add(key, cloneVector(vec))
	}
}

func (c *CachedEmbedder) putToStore(ctx context.Context, key string, vec []float32) {
	if c.store == nil || len(vec) == 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, []byte(db.EncodeVector(vec)), c.opts.TTL); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

package embedding

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const cacheKeyPrefix = "riq:embedding:"

// VectorStore persists vectors by cache key.
type VectorStore interface {
	GetMany(ctx context.Context, keys []string) (map[string][]float32, error)
	SetMany(ctx context.Context, items map[string][]float32, ttl time.Duration) error
}

// CachedEmbedder is a read-through cache in front of another Embedder. Only
// documents with a Key are cached, and the key includes a digest of the text so
// edited tickets are re-embedded.
type CachedEmbedder struct {
	next   Embedder
	store  VectorStore
	ttl    time.Duration
	model  string
	logger *zap.Logger
}

// NewCachedEmbedder wraps next. model namespaces keys so switching models never
// mixes vector spaces.
func NewCachedEmbedder(next Embedder, store VectorStore, model string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{next: next, store: store, ttl: ttl, model: model, logger: logger}
}

// EmbedDocuments serves cached vectors and embeds only the misses.
func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, docs []Document) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(docs))
	lookup := make([]string, 0, len(docs))
	for i, d := range docs {
		if d.Key == "" {
			continue
		}
		keys[i] = c.cacheKey(d)
		lookup = append(lookup, keys[i])
	}

	cached := map[string][]float32{}
	if len(lookup) > 0 {
		found, err := c.store.GetMany(ctx, lookup)
		if err != nil {
			c.logger.Warn("embedding cache read failed", zap.Error(err))
		} else {
			cached = found
		}
	}

	result := make([][]float32, len(docs))
	var missing []Document
	var missingIdx []int
	for i, d := range docs {
		if keys[i] != "" {
			if vec, ok := cached[keys[i]]; ok {
				result[i] = vec
				continue
			}
		}
		missing = append(missing, d)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return result, nil
	}

	fresh, err := c.next.EmbedDocuments(ctx, missing)
	if err != nil {
		return nil, err
	}

	toStore := make(map[string][]float32)
	for j, idx := range missingIdx {
		if j < len(fresh) {
			result[idx] = fresh[j]
		}
		if keys[idx] != "" && result[idx] != nil {
			toStore[keys[idx]] = result[idx]
		}
	}
	if len(toStore) > 0 {
		if err := c.store.SetMany(ctx, toStore, c.ttl); err != nil {
			c.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

func (c *CachedEmbedder) cacheKey(d Document) string {
	sum := blake2b.Sum256([]byte(d.Text))
	return cacheKeyPrefix + c.model + ":" + d.Key + ":" + hex.EncodeToString(sum[:16])
}

// RedisVectorStore keeps vectors as JSON strings in Redis.
type RedisVectorStore struct {
	client *redis.Client
}

// NewRedisVectorStore builds the store.
func NewRedisVectorStore(client *redis.Client) *RedisVectorStore {
	return &RedisVectorStore{client: client}
}

// GetMany fetches all present keys with a single MGET.
func (s *RedisVectorStore) GetMany(ctx context.Context, keys []string) (map[string][]float32, error) {
	result := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			continue
		}
		result[key] = vec
	}
	return result, nil
}

// SetMany writes all items in one pipeline.
func (s *RedisVectorStore) SetMany(ctx context.Context, items map[string][]float32, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for key, vec := range items {
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		pipe.Set(ctx, key, data, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

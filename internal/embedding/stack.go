package embedding

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/resolveiq/internal/config"
)

// FromConfig assembles the production chain: OpenAI client, circuit breaker,
// then the Redis cache when a client is given. It returns nil when no endpoint
// is configured, which makes full analysis report ErrUnavailable.
func FromConfig(cfg config.EmbeddingConfig, cache *redis.Client, logger *zap.Logger) Embedder {
	if !cfg.Enabled() {
		logger.Warn("embedding endpoint not configured; full analysis unavailable")
		return nil
	}
	var chain Embedder = NewOpenAIEmbedder(OpenAIConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	chain = NewBreakerEmbedder(chain, BreakerConfig{
		MaxHalfOpenRequests: 1,
		Interval:            time.Duration(cfg.BreakerIntervalSeconds) * time.Second,
		OpenTimeout:         time.Duration(cfg.BreakerOpenSeconds) * time.Second,
		ConsecutiveFailures: uint32(cfg.BreakerFailures),
	}, logger)
	if cache != nil {
		chain = NewCachedEmbedder(chain, NewRedisVectorStore(cache), cfg.Model, cfg.CacheTTL(), logger)
	}
	return chain
}

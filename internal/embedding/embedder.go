// Package embedding turns ticket text into fixed-length vectors. The model is an
// external black box; implementations here talk to an OpenAI-compatible
// endpoint, guard it with a circuit breaker and cache results in Redis.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable marks a retryable failure of the embedding backend (timeout,
// transport error, open circuit).
var ErrUnavailable = errors.New("embedding service unavailable")

// Document is one text to embed. Key identifies a stable source (for example a
// historical ticket id) and may be empty when the text must not be cached.
type Document struct {
	Key  string
	Text string
}

// Embedder produces one vector per document, in input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []Document) ([][]float32, error)
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds. The
// cause stays in the chain, so callers can still match context.Canceled.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Texts extracts the raw text of each document.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = string(openai.SmallEmbedding3)

// OpenAIConfig configures the OpenAI-compatible embedding endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIEmbedder calls the embeddings API of any OpenAI-compatible server.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds the embedder. BaseURL allows pointing it at a
// self-hosted sentence-transformer server; Model is sent verbatim, so any name
// that server understands works.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(model),
	}
}

// EmbedDocuments sends all texts in one request.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, docs []Document) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Model: e.model,
		Input: Texts(docs),
	})
	if err != nil {
		return nil, Unavailable(err)
	}
	if len(resp.Data) != len(docs) {
		return nil, Unavailable(fmt.Errorf("expected %d embeddings, got %d", len(docs), len(resp.Data)))
	}

	result := make([][]float32, len(docs))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(docs) {
			idx = i
		}
		result[idx] = data.Embedding
	}
	return result, nil
}

// Package openai provides an embedder backed by the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/finchat/hybridmem/memory"
)

// Config configures the embedder.
type Config struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string

	// Model selects the embedding model. Default: text-embedding-ada-002.
	Model openai.EmbeddingModel

	// Dimensions is the expected vector size. Default: 1536 (ada-002).
	Dimensions int
}

// Embedder implements memory.Embedder over the OpenAI API.
type Embedder struct {
	client openai.Client
	model  openai.EmbeddingModel
	dims   int
}

// New creates the embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: APIKey is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.EmbeddingModelTextEmbeddingAda002
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}

	return &Embedder{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
		dims:   cfg.Dimensions,
	}, nil
}

// Embed converts text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrEmbeddingFailed, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty response", memory.ErrEmbeddingFailed)
	}

	raw := resp.Data[0].Embedding
	if len(raw) != e.dims {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			memory.ErrDimensionMismatch, len(raw), e.dims)
	}

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

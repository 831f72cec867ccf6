// Package mock provides a deterministic embedder for tests. Embeddings are
// derived from a hash of the input text, so identical text always embeds
// identically, but there is no real semantic similarity between vectors.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// Embedder implements memory.Embedder with hash-seeded pseudo-random unit
// vectors.
type Embedder struct {
	dims int
}

// New creates a mock embedder. A non-positive dims selects 384 to match
// all-MiniLM-L6-v2.
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = 384
	}
	return &Embedder{dims: dims}
}

// Embed generates the deterministic embedding for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, e.dims)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	// Unit-normalize so cosine similarity behaves like the real providers.
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

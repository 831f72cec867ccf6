package memory

import (
	"context"
)

// ShortTermStore is the bounded, expiring tier of recent conversation.
// Implementations: redisstore (deployments), ristretto (local/dev).
//
// The tier is best-effort by design: the facade logs and swallows Append
// failures so a degraded store never blocks the caller's response path.
type ShortTermStore interface {
	// Append inserts an interaction at the head of the user's sequence,
	// enforcing the per-user window and refreshing the TTL.
	Append(ctx context.Context, userID string, it Interaction) error

	// Recent returns up to limit interactions, most recent first. Unknown
	// users yield an empty slice, not an error. Expired entries are never
	// returned.
	Recent(ctx context.Context, userID string, limit int) ([]Interaction, error)

	// SessionState returns the per-user key/value bag, empty for unknown
	// users.
	SessionState(ctx context.Context, userID string) (map[string]any, error)

	// SetSessionState shallow-merges state into the user's bag and refreshes
	// its TTL.
	SetSessionState(ctx context.Context, userID string, state map[string]any) error

	// ClearUser drops the user's conversation window and session state.
	ClearUser(ctx context.Context, userID string) error

	// Stats reports active conversation and session counts.
	Stats(ctx context.Context) (ShortTermStats, error)

	// Close releases resources.
	Close() error
}

// ShortTermStats summarizes the short-term tier.
type ShortTermStats struct {
	ActiveConversations int `json:"active_conversations"`
	ActiveSessions      int `json:"active_sessions"`
}

// LongTermStore is the durable, embedding-indexed tier.
// Implementations: chromem (embedded vector database).
//
// Callers supply already-computed embeddings; this tier never calls an
// embedding model.
type LongTermStore interface {
	// Store writes the record keyed by its ID. Returns ErrDimensionMismatch
	// when the embedding length doesn't match the configured collection.
	Store(ctx context.Context, rec *MemoryRecord) error

	// SimilaritySearch returns records ordered by descending cosine
	// similarity to the query embedding. An empty userID searches all users.
	SimilaritySearch(ctx context.Context, embedding []float32, userID string, limit int) ([]*MemoryRecord, error)

	// ByUser returns up to limit records for the user ordered by
	// importance_score descending. Unknown users yield an empty slice.
	ByUser(ctx context.Context, userID string, limit int) ([]*MemoryRecord, error)

	// Delete removes records by id. Missing ids are not an error.
	Delete(ctx context.Context, ids ...string) error

	// DeleteByUser removes all records for a user and reports how many.
	DeleteByUser(ctx context.Context, userID string) (int, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the configured embedding size.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations: mock (testing), openai (API), onnx (local model).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Interaction is one user message / assistant response pair. It is the unit
// of both storage decisions and is immutable once created.
type Interaction struct {
	UserID            string         `json:"user_id"`
	UserMessage       string         `json:"user_message"`
	AssistantResponse string         `json:"assistant_response"`
	Timestamp         time.Time      `json:"timestamp"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// NewInteraction builds an Interaction stamped with the current time.
func NewInteraction(userID, userMessage, assistantResponse string, metadata map[string]any) Interaction {
	return Interaction{
		UserID:            userID,
		UserMessage:       userMessage,
		AssistantResponse: assistantResponse,
		Timestamp:         time.Now().UTC(),
		Metadata:          metadata,
	}
}

// Content returns the normalized text form used for evaluation and embedding.
func (it Interaction) Content() string {
	return fmt.Sprintf("User: %s\nAssistant: %s", it.UserMessage, it.AssistantResponse)
}

// ShortTermEntry is the wire form of an interaction in the short-term tier.
// InsertedAt drives lazy TTL filtering on read.
type ShortTermEntry struct {
	UserID      string      `json:"user_id"`
	Interaction Interaction `json:"interaction"`
	InsertedAt  time.Time   `json:"inserted_at"`
}

// MemoryRecord is the durable form of an interaction selected for long-term
// storage. Records are never mutated after creation; the field names below
// are the persisted payload layout and must not be renamed without a
// schema_version bump.
type MemoryRecord struct {
	ID              string         `json:"id"`
	Content         string         `json:"content"`
	Embedding       []float32      `json:"embedding"`
	UserID          string         `json:"user_id"`
	MemoryType      string         `json:"memory_type"`
	Timestamp       time.Time      `json:"timestamp"`
	ImportanceScore float64        `json:"importance_score"`
	SourceMetadata  map[string]any `json:"source_metadata,omitempty"`
}

// NewMemoryRecord creates a record with a fresh UUID and the current time.
// The embedding must already be computed; the stores never call an embedding
// model themselves.
func NewMemoryRecord(userID, content, memoryType string, embedding []float32, importance float64, sourceMetadata map[string]any) *MemoryRecord {
	return &MemoryRecord{
		ID:              uuid.New().String(),
		Content:         content,
		Embedding:       embedding,
		UserID:          userID,
		MemoryType:      memoryType,
		Timestamp:       time.Now().UTC(),
		ImportanceScore: importance,
		SourceMetadata:  sourceMetadata,
	}
}

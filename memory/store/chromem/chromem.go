// Package chromem implements the long-term memory store on chromem-go, a
// pure Go embedded vector database. Records are indexed by their embedding
// for cosine similarity search and by a small in-package index for filtered
// scans, which chromem does not provide natively.
//
// The store is the embedded implementation; production deployments swap in a
// server-backed vector database behind the same memory.LongTermStore
// interface.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/finchat/hybridmem/memory"
)

var logger = log.With().Str("component", "chromem-store").Logger()

// DefaultDimensions matches OpenAI's text-embedding-ada-002 output.
const DefaultDimensions = 1536

// Config configures the store.
type Config struct {
	// Collection names the chromem collection. Default: "conversations".
	Collection string

	// Dimensions is the required embedding length. Default:
	// DefaultDimensions.
	Dimensions int
}

// Store implements memory.LongTermStore.
type Store struct {
	col  *chromem.Collection
	dims int

	mu      sync.RWMutex
	records map[string]*memory.MemoryRecord // by id, for filtered scans
	closed  bool
}

// New creates an in-memory chromem store using cosine similarity.
func New(cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		cfg.Collection = "conversations"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	db := chromem.NewDB()
	// No embedding func: callers always provide embeddings. Cosine is
	// chromem's default distance.
	col, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, memory.WrapError("create collection", err)
	}

	logger.Info().Str("collection", cfg.Collection).Int("dimensions", cfg.Dimensions).
		Msg("long-term store ready")
	return &Store{
		col:     col,
		dims:    cfg.Dimensions,
		records: make(map[string]*memory.MemoryRecord),
	}, nil
}

// Store writes the record keyed by its id.
func (s *Store) Store(ctx context.Context, rec *memory.MemoryRecord) error {
	if err := s.check(); err != nil {
		return err
	}
	if len(rec.Embedding) != s.dims {
		return fmt.Errorf("%w: got %d, collection expects %d",
			memory.ErrDimensionMismatch, len(rec.Embedding), s.dims)
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: rec.Embedding,
		Metadata:  payloadMetadata(rec),
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return memory.WrapError("store", err)
	}

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

// SimilaritySearch returns records by descending cosine similarity.
func (s *Store) SimilaritySearch(ctx context.Context, embedding []float32, userID string, limit int) ([]*memory.MemoryRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			memory.ErrDimensionMismatch, len(embedding), s.dims)
	}
	if limit <= 0 {
		return nil, nil
	}

	var where map[string]string
	if userID != "" {
		where = map[string]string{"user_id": userID}
	}

	// chromem rejects nResults larger than the number of matching documents,
	// so clamp against the index instead of retrying downward.
	n := limit
	if have := s.countFor(userID); have < n {
		n = have
	}
	if n == 0 {
		return nil, nil
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, n, where, nil)
	if err != nil {
		return nil, memory.WrapError("similarity search", err)
	}

	records := make([]*memory.MemoryRecord, 0, len(results))
	for _, res := range results {
		records = append(records, s.recordFor(res))
	}
	return records, nil
}

// ByUser returns the user's records ordered by importance, highest first.
func (s *Store) ByUser(ctx context.Context, userID string, limit int) ([]*memory.MemoryRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	var records []*memory.MemoryRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	s.mu.RUnlock()

	sortByImportance(records)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Delete removes records by id. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if err := s.check(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	var existing []string
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			existing = append(existing, id)
			delete(s.records, id)
		}
	}
	s.mu.Unlock()

	if len(existing) == 0 {
		return nil
	}
	if err := s.col.Delete(ctx, nil, nil, existing...); err != nil {
		return memory.WrapError("delete", err)
	}
	return nil
}

// DeleteByUser removes all of a user's records and reports how many.
func (s *Store) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	var ids []string
	for id, rec := range s.records {
		if rec.UserID == userID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(s.records, id)
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.col.Delete(ctx, map[string]string{"user_id": userID}, nil); err != nil {
		return 0, memory.WrapError("delete by user", err)
	}
	return len(ids), nil
}

// Count returns the total number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Dimensions returns the configured embedding size.
func (s *Store) Dimensions() int {
	return s.dims
}

// Close marks the store closed. chromem keeps everything in process memory,
// so there is nothing else to release.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return memory.ErrStoreClosed
	}
	return nil
}

func (s *Store) countFor(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID == "" {
		return len(s.records)
	}
	n := 0
	for _, rec := range s.records {
		if rec.UserID == userID {
			n++
		}
	}
	return n
}

// recordFor resolves a query result to its record, preferring the index and
// falling back to reconstruction from the stored payload.
func (s *Store) recordFor(res chromem.Result) *memory.MemoryRecord {
	s.mu.RLock()
	rec, ok := s.records[res.ID]
	s.mu.RUnlock()
	if ok {
		return rec
	}
	return recordFromResult(res)
}

// payloadMetadata flattens a record into chromem's string metadata. The keys
// are the persisted payload layout; renaming any of them breaks
// cross-version compatibility.
func payloadMetadata(rec *memory.MemoryRecord) map[string]string {
	md := map[string]string{
		"user_id":          rec.UserID,
		"memory_type":      rec.MemoryType,
		"timestamp":        rec.Timestamp.Format(time.RFC3339Nano),
		"importance_score": strconv.FormatFloat(rec.ImportanceScore, 'f', -1, 64),
	}
	if len(rec.SourceMetadata) > 0 {
		if raw, err := json.Marshal(rec.SourceMetadata); err == nil {
			md["source_metadata"] = string(raw)
		}
	}
	return md
}

func recordFromResult(res chromem.Result) *memory.MemoryRecord {
	rec := &memory.MemoryRecord{
		ID:         res.ID,
		Content:    res.Content,
		Embedding:  res.Embedding,
		UserID:     res.Metadata["user_id"],
		MemoryType: res.Metadata["memory_type"],
	}
	rec.Timestamp, _ = time.Parse(time.RFC3339Nano, res.Metadata["timestamp"])
	rec.ImportanceScore, _ = strconv.ParseFloat(res.Metadata["importance_score"], 64)
	if raw := res.Metadata["source_metadata"]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &rec.SourceMetadata)
	}
	return rec
}

// sortByImportance orders by importance descending, then recency descending.
func sortByImportance(records []*memory.MemoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].ImportanceScore != records[j].ImportanceScore {
			return records[i].ImportanceScore > records[j].ImportanceScore
		}
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

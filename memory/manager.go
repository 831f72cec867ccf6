package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/finchat/hybridmem/memory/strategy"
)

var logger = log.With().Str("component", "memory").Logger()

// HybridManager is the facade over both memory tiers. It orchestrates writes
// (always short-term, conditionally long-term) and reads (recency merged with
// relevance into a labeled ContextBundle).
//
// The manager itself is stateless; all state lives in the injected stores, so
// any number of manager instances may share the same backends.
type HybridManager struct {
	shortTerm ShortTermStore
	longTerm  LongTermStore
	embedder  Embedder
	evaluator *strategy.Evaluator
	config    *Config
}

// Option configures the manager.
type Option func(*HybridManager)

// WithConfig sets the manager tuning. Zero-valued fields keep their defaults.
func WithConfig(cfg *Config) Option {
	return func(m *HybridManager) {
		m.config = cfg
	}
}

// WithEvaluator replaces the default strategy evaluator, e.g. to register
// additional strategies or a different threshold.
func WithEvaluator(ev *strategy.Evaluator) Option {
	return func(m *HybridManager) {
		m.evaluator = ev
	}
}

// NewHybridManager wires the facade. The embedder's dimensionality must match
// the long-term store's configured collection; a mismatch is a configuration
// error caught here rather than on the first write.
func NewHybridManager(shortTerm ShortTermStore, longTerm LongTermStore, embedder Embedder, opts ...Option) (*HybridManager, error) {
	m := &HybridManager{
		shortTerm: shortTerm,
		longTerm:  longTerm,
		embedder:  embedder,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.config = m.config.withDefaults()

	if embedder.Dimensions() != longTerm.Dimensions() {
		return nil, fmt.Errorf("%w: embedder produces %d dimensions, store expects %d",
			ErrDimensionMismatch, embedder.Dimensions(), longTerm.Dimensions())
	}

	if m.evaluator == nil {
		m.evaluator = strategy.NewEvaluator(m.config.ImportanceThreshold)
	}

	logger.Info().
		Float64("threshold", m.evaluator.Threshold()).
		Int("dimensions", longTerm.Dimensions()).
		Msg("hybrid memory manager initialized")
	return m, nil
}

// TurnReceipt reports what RecordTurn did with one conversation turn.
type TurnReceipt struct {
	ShortTermStored bool            `json:"short_term_stored"`
	LongTermStored  bool            `json:"long_term_stored"`
	MemoryType      string          `json:"memory_type,omitempty"`
	ImportanceScore float64         `json:"importance_score"`
	RecordID        string          `json:"record_id,omitempty"`
	Evaluation      strategy.Result `json:"evaluation"`
}

// RecordTurn stores one conversation turn. The short-term append is
// unconditional; the turn is additionally promoted to long-term storage when
// the strategy evaluator scores it above the threshold.
//
// Conversational continuity is the durability floor: embedding or long-term
// store failures are logged and reflected in the receipt, never returned as
// errors.
func (m *HybridManager) RecordTurn(ctx context.Context, userID, userMessage, assistantResponse string, metadata map[string]any) (*TurnReceipt, error) {
	if userID == "" {
		return nil, errors.New("memory: user id is required")
	}

	it := NewInteraction(userID, userMessage, assistantResponse, metadata)
	receipt := &TurnReceipt{}

	if err := m.shortTerm.Append(ctx, userID, it); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).
			Msg("short-term append failed, continuing")
	} else {
		receipt.ShortTermStored = true
	}

	content := it.Content()
	eval := m.evaluator.Evaluate(content, metadata)
	receipt.Evaluation = eval
	receipt.ImportanceScore = eval.OverallImportance

	if !eval.ShouldStoreLongTerm {
		return receipt, nil
	}

	embedding, err := m.embedder.Embed(ctx, content)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).
			Msg("embedding failed, skipping long-term write")
		return receipt, nil
	}

	rec := NewMemoryRecord(userID, content, eval.BestStrategy, embedding,
		eval.OverallImportance, sourceMetadata(it.Metadata, eval))

	if err := m.longTerm.Store(ctx, rec); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Str("record_id", rec.ID).
			Msg("long-term write failed, turn kept in short-term only")
		return receipt, nil
	}

	receipt.LongTermStored = true
	receipt.MemoryType = rec.MemoryType
	receipt.RecordID = rec.ID
	logger.Debug().Str("user_id", userID).Str("memory_type", rec.MemoryType).
		Float64("importance", rec.ImportanceScore).Msg("stored long-term memory")
	return receipt, nil
}

// ContextFor assembles the context bundle for a user: recent short-term
// interactions, the user's most important long-term records, and records
// similar to the most recent user message. A user with zero history gets an
// empty bundle, and an unreachable long-term store degrades to partial
// results rather than an error.
func (m *HybridManager) ContextFor(ctx context.Context, userID string) (*ContextBundle, error) {
	if userID == "" {
		return nil, errors.New("memory: user id is required")
	}

	bundle := &ContextBundle{}

	recent, err := m.shortTerm.Recent(ctx, userID, m.config.RecentLimit)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).
			Msg("short-term read failed, context degrades to long-term only")
	} else {
		bundle.Recent = recent
	}

	important, err := m.longTerm.ByUser(ctx, userID, m.config.ImportantLimit)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).
			Msg("long-term read failed, context degrades to short-term only")
		return bundle, nil
	}
	bundle.Important = important

	if len(bundle.Recent) > 0 && m.config.RelatedLimit > 0 {
		bundle.Related = m.relatedTo(ctx, userID, bundle.Recent[0].UserMessage, bundle.Important)
	}

	return bundle, nil
}

// relatedTo runs the similarity pass of ContextFor, excluding records already
// present in the important section. Failures degrade to an empty section.
func (m *HybridManager) relatedTo(ctx context.Context, userID, seed string, important []*MemoryRecord) []*MemoryRecord {
	embedding, err := m.embedder.Embed(ctx, seed)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).
			Msg("seed embedding failed, skipping related memories")
		return nil
	}

	// Over-fetch so dedup against the important section can still fill the
	// related quota.
	fetch := m.config.RelatedLimit + len(important)
	results, err := m.longTerm.SimilaritySearch(ctx, embedding, userID, fetch)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).
			Msg("similarity search failed, skipping related memories")
		return nil
	}

	seen := make(map[string]struct{}, len(important))
	for _, rec := range important {
		seen[rec.ID] = struct{}{}
	}

	var related []*MemoryRecord
	for _, rec := range results {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		related = append(related, rec)
		if len(related) == m.config.RelatedLimit {
			break
		}
	}
	return related
}

// Search embeds the query text and returns the most similar long-term
// records. An empty userID searches across all users. Unlike RecordTurn,
// failures here surface as errors: there is no partial result to fall back
// to.
func (m *HybridManager) Search(ctx context.Context, query, userID string, limit int) ([]*MemoryRecord, error) {
	embedding, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return m.longTerm.SimilaritySearch(ctx, embedding, userID, limit)
}

// ClearUser removes all memory for a user from both tiers and reports how
// many long-term records were deleted.
func (m *HybridManager) ClearUser(ctx context.Context, userID string) (int, error) {
	shortErr := m.shortTerm.ClearUser(ctx, userID)
	deleted, longErr := m.longTerm.DeleteByUser(ctx, userID)
	if err := errors.Join(shortErr, longErr); err != nil {
		return deleted, WrapError("clear user", err)
	}
	logger.Info().Str("user_id", userID).Int("deleted", deleted).
		Msg("cleared user memory")
	return deleted, nil
}

// ManagerStats summarizes both memory tiers.
type ManagerStats struct {
	ShortTerm       ShortTermStats `json:"short_term"`
	LongTermRecords int            `json:"long_term_records"`
}

// Stats reports combined statistics from both tiers.
func (m *HybridManager) Stats(ctx context.Context) (*ManagerStats, error) {
	shortStats, err := m.shortTerm.Stats(ctx)
	if err != nil {
		return nil, WrapError("short-term stats", err)
	}
	count, err := m.longTerm.Count(ctx)
	if err != nil {
		return nil, WrapError("long-term count", err)
	}
	return &ManagerStats{ShortTerm: shortStats, LongTermRecords: count}, nil
}

// Close releases both stores.
func (m *HybridManager) Close() error {
	return errors.Join(m.shortTerm.Close(), m.longTerm.Close())
}

// sourceMetadata copies the interaction metadata and attaches the evaluation
// trace so stored records stay explainable.
func sourceMetadata(original map[string]any, eval strategy.Result) map[string]any {
	out := make(map[string]any, len(original)+1)
	for k, v := range original {
		out[k] = v
	}
	out["evaluation"] = eval
	return out
}

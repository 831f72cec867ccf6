// Package strategy scores conversation content for long-term storage
// worthiness. Each strategy is an independent policy over one interaction;
// the Evaluator applies the registered set and picks the strongest signal.
//
// The weights and the 0.5 storage threshold are policy constants, not derived
// from data. They are exposed as configuration so scoring can evolve without
// touching storage or retrieval code; new strategies plug in through the
// Strategy interface without evaluator changes.
package strategy

import "strings"

// Strategy is a pluggable scoring policy over interaction content.
// Implementations must be pure: no side effects, deterministic for identical
// input, safe for concurrent use.
type Strategy interface {
	// Name identifies the strategy and becomes the memory_type tag on
	// records it selects.
	Name() string

	// ShouldStore reports whether the content is a candidate for long-term
	// storage under this policy.
	ShouldStore(content string, metadata map[string]any) bool

	// Score rates the content's importance in [0.0, 1.0].
	Score(content string, metadata map[string]any) float64
}

// Defaults returns the standard strategy set: conversation, insight, risk.
func Defaults() []Strategy {
	return []Strategy{NewConversation(), NewInsight(), NewRisk()}
}

// ConversationWeights tunes the conversation strategy. All contributions are
// additive; the final score is clamped to 1.0.
type ConversationWeights struct {
	PerFinancialKeyword float64 // per distinct financial keyword
	FinancialCap        float64
	PerInsightKeyword   float64 // per distinct insight keyword
	InsightCap          float64
	ImportanceBonus     float64 // metadata flag or explicit request phrase
	LengthBonus         float64
	LengthThreshold     int // characters
}

// DefaultConversationWeights are the shipped conversation policy constants.
var DefaultConversationWeights = ConversationWeights{
	PerFinancialKeyword: 0.2,
	FinancialCap:        0.6,
	PerInsightKeyword:   0.15,
	InsightCap:          0.3,
	ImportanceBonus:     0.2,
	LengthBonus:         0.1,
	LengthThreshold:     200,
}

// Conversation detects exchanges about the financial domain and explicit
// insights worth keeping.
type Conversation struct {
	weights           ConversationWeights
	financialKeywords []string
	insightKeywords   []string
	requestPhrases    []string
}

// NewConversation creates the conversation strategy with default weights.
func NewConversation() *Conversation {
	return NewConversationWeights(DefaultConversationWeights)
}

// NewConversationWeights creates the conversation strategy with custom
// weights.
func NewConversationWeights(w ConversationWeights) *Conversation {
	return &Conversation{
		weights: w,
		financialKeywords: []string{
			"stock", "trading", "investment", "portfolio", "analysis",
			"strategy", "risk", "market", "price", "earnings", "dividend",
			"technical", "fundamental", "chart", "pattern", "indicator",
		},
		insightKeywords: []string{
			"learned", "discovered", "found", "realized", "understood",
			"important", "key", "critical", "essential", "valuable",
		},
		requestPhrases: []string{
			"remember this", "save this", "note this",
		},
	}
}

func (s *Conversation) Name() string { return "conversation" }

func (s *Conversation) ShouldStore(content string, metadata map[string]any) bool {
	return s.Score(content, metadata) > 0
}

func (s *Conversation) Score(content string, metadata map[string]any) float64 {
	lower := strings.ToLower(content)
	var score float64

	score += capped(countMatches(lower, s.financialKeywords)*s.weights.PerFinancialKeyword, s.weights.FinancialCap)
	score += capped(countMatches(lower, s.insightKeywords)*s.weights.PerInsightKeyword, s.weights.InsightCap)

	if flagSet(metadata, "important") || containsAny(lower, s.requestPhrases) {
		score += s.weights.ImportanceBonus
	}
	if len(content) > s.weights.LengthThreshold {
		score += s.weights.LengthBonus
	}

	return clamp(score)
}

// InsightWeights tunes the insight strategy.
type InsightWeights struct {
	PerPattern      float64 // per distinct first-person pattern
	PatternCap      float64
	PreferenceBonus float64
	LearningBonus   float64
	FlagBonus       float64 // metadata insight flag
}

// DefaultInsightWeights are the shipped insight policy constants.
var DefaultInsightWeights = InsightWeights{
	PerPattern:      0.3,
	PatternCap:      0.7,
	PreferenceBonus: 0.2,
	LearningBonus:   0.2,
	FlagBonus:       0.3,
}

// Insight detects first-person preferences, goals and learning statements.
type Insight struct {
	weights         InsightWeights
	patterns        []string
	preferenceWords []string
	learningWords   []string
}

// NewInsight creates the insight strategy with default weights.
func NewInsight() *Insight {
	return NewInsightWeights(DefaultInsightWeights)
}

// NewInsightWeights creates the insight strategy with custom weights.
func NewInsightWeights(w InsightWeights) *Insight {
	return &Insight{
		weights: w,
		patterns: []string{
			"i prefer", "i like", "i don't like", "i want", "i need",
			"my goal", "my target", "my risk tolerance", "my strategy",
			"i learned", "i discovered", "i realized", "i understand",
		},
		preferenceWords: []string{"prefer", "like", "want", "need"},
		learningWords:   []string{"learned", "discovered", "realized"},
	}
}

func (s *Insight) Name() string { return "insight" }

func (s *Insight) ShouldStore(content string, metadata map[string]any) bool {
	return s.Score(content, metadata) > 0
}

func (s *Insight) Score(content string, metadata map[string]any) float64 {
	lower := strings.ToLower(content)
	var score float64

	score += capped(countMatches(lower, s.patterns)*s.weights.PerPattern, s.weights.PatternCap)

	if containsAny(lower, s.preferenceWords) {
		score += s.weights.PreferenceBonus
	}
	if containsAny(lower, s.learningWords) {
		score += s.weights.LearningBonus
	}
	if flagSet(metadata, "insight") {
		score += s.weights.FlagBonus
	}

	return clamp(score)
}

// RiskWeights tunes the risk strategy.
type RiskWeights struct {
	PerKeyword   float64 // per distinct risk keyword
	KeywordCap   float64
	WarningBonus float64
	FlagBonus    float64 // metadata risk flag
}

// DefaultRiskWeights are the shipped risk policy constants.
var DefaultRiskWeights = RiskWeights{
	PerKeyword:   0.25,
	KeywordCap:   0.6,
	WarningBonus: 0.3,
	FlagBonus:    0.4,
}

// Risk detects warnings and risk-related information.
type Risk struct {
	weights      RiskWeights
	keywords     []string
	warningWords []string
}

// NewRisk creates the risk strategy with default weights.
func NewRisk() *Risk {
	return NewRiskWeights(DefaultRiskWeights)
}

// NewRiskWeights creates the risk strategy with custom weights.
func NewRiskWeights(w RiskWeights) *Risk {
	return &Risk{
		weights: w,
		keywords: []string{
			"risk", "danger", "warning", "caution", "careful",
			"loss", "lose", "downside", "volatile", "uncertainty",
			"avoid", "stay away", "problem", "issue", "concern",
		},
		warningWords: []string{"warning", "caution", "danger"},
	}
}

func (s *Risk) Name() string { return "risk" }

func (s *Risk) ShouldStore(content string, metadata map[string]any) bool {
	return s.Score(content, metadata) > 0
}

func (s *Risk) Score(content string, metadata map[string]any) float64 {
	lower := strings.ToLower(content)
	var score float64

	score += capped(countMatches(lower, s.keywords)*s.weights.PerKeyword, s.weights.KeywordCap)

	if containsAny(lower, s.warningWords) {
		score += s.weights.WarningBonus
	}
	if flagSet(metadata, "risk") {
		score += s.weights.FlagBonus
	}

	return clamp(score)
}

// countMatches counts how many distinct needles occur in lower.
func countMatches(lower string, needles []string) float64 {
	var n float64
	for _, needle := range needles {
		if strings.Contains(lower, needle) {
			n++
		}
	}
	return n
}

func containsAny(lower string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// flagSet reports whether a metadata flag is truthy. Flags arrive as bools
// from Go callers and as strings when round-tripped through store payloads.
func flagSet(metadata map[string]any, key string) bool {
	if metadata == nil {
		return false
	}
	switch v := metadata[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

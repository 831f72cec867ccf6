package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const delta = 1e-9

func TestConversationScoresFinancialKeywords(t *testing.T) {
	s := NewConversation()

	// "investment" and "risk" are the only financial keywords here.
	score := s.Score("i prefer conservative investments and my risk tolerance is low", nil)
	assert.InDelta(t, 0.4, score, delta)
}

func TestConversationCapsFinancialContribution(t *testing.T) {
	s := NewConversation()

	// Five distinct keywords would score 1.0 uncapped.
	score := s.Score("the stock market price moved on earnings and dividend news", nil)
	assert.InDelta(t, 0.6, score, delta)
}

func TestConversationImportanceBonus(t *testing.T) {
	s := NewConversation()

	assert.InDelta(t, 0.2, s.Score("hello there", map[string]any{"important": true}), delta)
	assert.InDelta(t, 0.2, s.Score("please remember this for later", nil), delta)
	assert.InDelta(t, 0.0, s.Score("hello there", map[string]any{"important": false}), delta)
}

func TestConversationLengthBonus(t *testing.T) {
	s := NewConversation()

	long := "the market is open today " + strings.Repeat("and nothing happened ", 10)
	assert.Greater(t, len(long), 200)
	// One keyword (market) plus the length bonus.
	assert.InDelta(t, 0.3, s.Score(long, nil), delta)
}

func TestInsightScoresFirstPersonPatterns(t *testing.T) {
	s := NewInsight()

	// Two patterns ("i prefer", "my risk tolerance") plus the preference word.
	score := s.Score("i prefer conservative investments and my risk tolerance is low", nil)
	assert.InDelta(t, 0.8, score, delta)
}

func TestInsightCapsPatternContribution(t *testing.T) {
	s := NewInsight()

	// Three patterns would be 0.9 uncapped; capped at 0.7, plus both word
	// bonuses, the total clamps at 1.0.
	score := s.Score("i prefer value stocks, i want dividends, and i learned patience", nil)
	assert.InDelta(t, 1.0, score, delta)
}

func TestInsightMetadataFlag(t *testing.T) {
	s := NewInsight()

	assert.InDelta(t, 0.3, s.Score("hello", map[string]any{"insight": true}), delta)
	// Flags round-tripped through string payloads stay recognized.
	assert.InDelta(t, 0.3, s.Score("hello", map[string]any{"insight": "true"}), delta)
	assert.InDelta(t, 0.0, s.Score("hello", map[string]any{"insight": "yes"}), delta)
}

func TestRiskScoresKeywordsAndWarnings(t *testing.T) {
	s := NewRisk()

	assert.InDelta(t, 0.25, s.Score("my risk tolerance is low", nil), delta)

	// warning, danger and loss hit the 0.6 keyword cap, plus the
	// warning-word bonus.
	score := s.Score("warning: this position is in danger of a total loss", nil)
	assert.InDelta(t, 0.6+0.3, score, delta)
}

func TestRiskMetadataFlag(t *testing.T) {
	s := NewRisk()
	assert.InDelta(t, 0.4, s.Score("hello", map[string]any{"risk": true}), delta)
}

func TestScoresNeverExceedOne(t *testing.T) {
	content := "warning: danger of loss, avoid this volatile problem, stay away, serious concern and downside risk, be careful"
	md := map[string]any{"risk": true, "insight": true, "important": true}

	for _, s := range Defaults() {
		score := s.Score(content, md)
		assert.LessOrEqual(t, score, 1.0, "strategy %s", s.Name())
		assert.GreaterOrEqual(t, score, 0.0, "strategy %s", s.Name())
	}
}

func TestShouldStoreMatchesPositiveScore(t *testing.T) {
	positive := map[string]string{
		"conversation": "how is the market doing",
		"insight":      "i prefer index funds",
		"risk":         "danger ahead",
	}
	for _, s := range Defaults() {
		assert.False(t, s.ShouldStore("ok thanks", nil), "strategy %s", s.Name())
		assert.True(t, s.ShouldStore(positive[s.Name()], nil), "strategy %s", s.Name())
	}
}

func TestScoreIsCaseInsensitive(t *testing.T) {
	s := NewConversation()
	assert.InDelta(t,
		s.Score("the STOCK market", nil),
		s.Score("the stock MARKET", nil), delta)
}

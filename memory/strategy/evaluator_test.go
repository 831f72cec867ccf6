package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePicksMaxScore(t *testing.T) {
	ev := NewEvaluator(0)

	res := ev.Evaluate("i prefer conservative investments and my risk tolerance is low", nil)

	require.Len(t, res.Scores, 3)
	assert.InDelta(t, 0.4, res.Scores["conversation"], delta)
	assert.InDelta(t, 0.8, res.Scores["insight"], delta)
	assert.InDelta(t, 0.25, res.Scores["risk"], delta)

	assert.Equal(t, "insight", res.BestStrategy)
	assert.InDelta(t, 0.8, res.OverallImportance, delta)
	assert.True(t, res.ShouldStoreLongTerm)
}

func TestEvaluateSmallTalkScoresZero(t *testing.T) {
	ev := NewEvaluator(0)

	res := ev.Evaluate("ok thanks", nil)

	assert.Empty(t, res.BestStrategy)
	assert.Zero(t, res.OverallImportance)
	assert.False(t, res.ShouldStoreLongTerm)
}

func TestEvaluateThresholdIsExclusive(t *testing.T) {
	// Conversation scores exactly 0.2 here; a threshold of 0.2 must not
	// promote it.
	ev := NewEvaluator(0.2)
	res := ev.Evaluate("how is the market doing", nil)

	assert.InDelta(t, 0.2, res.OverallImportance, delta)
	assert.False(t, res.ShouldStoreLongTerm)

	ev = NewEvaluator(0.19)
	assert.True(t, ev.Evaluate("how is the market doing", nil).ShouldStoreLongTerm)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	ev := NewEvaluator(0)
	content := "warning: i learned the market can be volatile"
	md := map[string]any{"important": true}

	first := ev.Evaluate(content, md)
	second := ev.Evaluate(content, md)
	assert.Equal(t, first, second)
}

func TestEvaluatorDefaults(t *testing.T) {
	ev := NewEvaluator(0)
	assert.InDelta(t, DefaultThreshold, ev.Threshold(), delta)

	ev = NewEvaluator(0.75)
	assert.InDelta(t, 0.75, ev.Threshold(), delta)
}

type fixedStrategy struct {
	name  string
	score float64
}

func (s fixedStrategy) Name() string                           { return s.name }
func (s fixedStrategy) ShouldStore(string, map[string]any) bool { return s.score > 0 }
func (s fixedStrategy) Score(string, map[string]any) float64   { return s.score }

func TestEvaluatorCustomStrategies(t *testing.T) {
	ev := NewEvaluator(0.5,
		fixedStrategy{name: "always", score: 0.9},
		fixedStrategy{name: "never", score: 0},
	)

	res := ev.Evaluate("anything", nil)
	assert.Equal(t, "always", res.BestStrategy)
	assert.InDelta(t, 0.9, res.OverallImportance, delta)
	assert.True(t, res.ShouldStoreLongTerm)
	assert.Len(t, res.Scores, 2)
}

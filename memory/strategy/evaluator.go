package strategy

// DefaultThreshold is the importance score above which a turn is promoted to
// long-term storage.
const DefaultThreshold = 0.5

// Result is the outcome of evaluating one interaction against the full
// strategy set. It is transient and never persisted beyond the storage
// decision, except as an evaluation trace inside a record's source metadata.
type Result struct {
	// Scores holds each strategy's importance score keyed by strategy name.
	Scores map[string]float64 `json:"scores"`

	// BestStrategy is the name of the strategy with the maximum score, or
	// empty when no strategy wants the content.
	BestStrategy string `json:"best_strategy"`

	// OverallImportance is the maximum score across strategies, never an
	// average, so any single strong signal suffices.
	OverallImportance float64 `json:"overall_importance"`

	// ShouldStoreLongTerm is true when OverallImportance exceeds the
	// evaluator's threshold.
	ShouldStoreLongTerm bool `json:"should_store_long_term"`
}

// Evaluator applies a strategy set to interaction content and produces a
// single storage decision. Evaluate is a pure function: no side effects, no
// I/O, identical results for identical input.
type Evaluator struct {
	strategies []Strategy
	threshold  float64
}

// NewEvaluator creates an evaluator over the given strategies. With no
// strategies it uses Defaults(). A zero threshold selects DefaultThreshold.
func NewEvaluator(threshold float64, strategies ...Strategy) *Evaluator {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if len(strategies) == 0 {
		strategies = Defaults()
	}
	return &Evaluator{strategies: strategies, threshold: threshold}
}

// Threshold returns the configured storage threshold.
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate runs every registered strategy against the content and collapses
// the scores into one decision. The best strategy is the one with the
// maximum score among those that want the content stored.
func (e *Evaluator) Evaluate(content string, metadata map[string]any) Result {
	res := Result{Scores: make(map[string]float64, len(e.strategies))}

	for _, s := range e.strategies {
		score := s.Score(content, metadata)
		res.Scores[s.Name()] = score

		if s.ShouldStore(content, metadata) && score > res.OverallImportance {
			res.OverallImportance = score
			res.BestStrategy = s.Name()
		}
	}

	res.ShouldStoreLongTerm = res.OverallImportance > e.threshold
	return res
}

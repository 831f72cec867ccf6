package memory

import "github.com/finchat/hybridmem/memory/strategy"

// Config holds HybridManager tuning. The zero value of any field selects the
// corresponding default.
type Config struct {
	// ImportanceThreshold is the evaluation score above which a turn is
	// promoted to long-term storage. Default: strategy.DefaultThreshold.
	ImportanceThreshold float64

	// RecentLimit is how many short-term interactions ContextFor includes.
	// Default: 5.
	RecentLimit int

	// ImportantLimit is how many top long-term records ContextFor includes,
	// ordered by importance. Default: 3.
	ImportantLimit int

	// RelatedLimit is how many similarity-search results ContextFor includes,
	// seeded by the most recent user message. Default: 2. Set negative to
	// disable the similarity pass.
	RelatedLimit int
}

// DefaultConfig returns the shipped manager defaults.
func DefaultConfig() *Config {
	return &Config{
		ImportanceThreshold: strategy.DefaultThreshold,
		RecentLimit:         5,
		ImportantLimit:      3,
		RelatedLimit:        2,
	}
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	if c.ImportanceThreshold != 0 {
		out.ImportanceThreshold = c.ImportanceThreshold
	}
	if c.RecentLimit != 0 {
		out.RecentLimit = c.RecentLimit
	}
	if c.ImportantLimit != 0 {
		out.ImportantLimit = c.ImportantLimit
	}
	if c.RelatedLimit != 0 {
		out.RelatedLimit = c.RelatedLimit
	}
	return out
}

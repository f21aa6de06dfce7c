package config

import "strings"

// defaultCapacities maps model-identifier substrings to context-window
// sizes. Matching is by substring so date-suffixed identifiers like
// "claude-sonnet-4-5-20250929" resolve without a table entry per
// dot-release. Config overrides extend and beat this table.
var defaultCapacities = map[string]int64{
	"claude-opus-4":   200_000,
	"claude-sonnet-4": 200_000,
	"claude-haiku-4":  200_000,
	"claude-haiku-3":  200_000,
	"[1m]":            1_000_000,
}

// ResolveCapacity returns the context-window size for a model
// identifier. Config overrides are consulted first, then the built-in
// table; in both the longest matching substring wins, so a
// "claude-sonnet-4-5" override beats a "claude-sonnet-4" entry. An
// unknown or empty model falls back to the configured capacity.
func ResolveCapacity(cfg Config, model string) int64 {
	if model == "" {
		return cfg.Usage.Capacity
	}
	m := strings.ToLower(model)

	if size, ok := longestMatch(cfg.Usage.CapacityOverrides, m); ok {
		return size
	}
	if size, ok := longestMatch(defaultCapacities, m); ok {
		return size
	}
	return cfg.Usage.Capacity
}

func longestMatch(table map[string]int64, model string) (int64, bool) {
	best := -1
	var capacity int64
	for sub, size := range table {
		if sub == "" || size <= 0 {
			continue
		}
		if strings.Contains(model, strings.ToLower(sub)) && len(sub) > best {
			best = len(sub)
			capacity = size
		}
	}
	return capacity, best >= 0
}

// Package usage computes context-window consumption from token counters.
package usage

// Sample is a point-in-time token usage snapshot from a single API call.
type Sample struct {
	InputTokens         int64
	OutputTokens        int64
	CacheReadTokens     int64
	CacheCreationTokens int64
}

// Consumed returns the tokens occupying the context window. Output tokens
// are excluded: they describe the reply being produced, not accumulated
// context. Cache creation tokens are counted once; the API reports them
// separately from input_tokens.
func (s Sample) Consumed() int64 {
	return s.InputTokens + s.CacheReadTokens + s.CacheCreationTokens
}

// Percent returns floor(consumed * 100 / capacity). A non-positive
// capacity marks the sample invalid and yields 0.
func (s Sample) Percent(capacity int64) int {
	if capacity <= 0 {
		return 0
	}
	return int(s.Consumed() * 100 / capacity)
}

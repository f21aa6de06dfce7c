// Package trigger classifies assistant utterances into checkpoint trigger
// categories.
package trigger

// Type is a named category of reason to request a checkpoint.
type Type string

// The text-driven categories, in classification priority order.
// ContextThreshold and Precompact are fired by usage pressure and
// compaction events; they never match text.
const (
	TopicShift           Type = "topic_shift"
	BranchPoint          Type = "branch_point"
	ConstraintDiscovered Type = "constraint_discovered"
	Synthesis            Type = "synthesis"
	ContextThreshold     Type = "context_threshold"
	Precompact           Type = "precompact"
)

// Description returns a one-line account of what the category detected,
// used in block reasons.
func (t Type) Description() string {
	switch t {
	case TopicShift:
		return "The conversation is moving to a new topic."
	case BranchPoint:
		return "A decision between alternatives was just laid out."
	case ConstraintDiscovered:
		return "A blocking constraint was just discovered."
	case Synthesis:
		return "A conclusion or recommendation was just reached."
	case ContextThreshold:
		return "Context consumption crossed the configured threshold."
	case Precompact:
		return "Context compaction is imminent."
	}
	return string(t)
}

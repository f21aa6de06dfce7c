package trigger

import (
	"regexp"
	"strings"
)

// category pairs a trigger type with the phrases that signal it.
type category struct {
	Type     Type
	Patterns []*regexp.Regexp
}

// categories is evaluated in order; the first match wins. Categories are
// not mutually exclusive in free text, so the order is a deliberate
// tie-break, most actionable first.
var categories = []category{
	{TopicShift, compile(
		`moving on to`,
		`let'?s turn to`,
		`shifting (focus|gears)`,
		`on a (different|separate) note`,
		`changing topics`,
		`now let'?s (look at|consider)`,
	)},
	{BranchPoint, compile(
		`we could (either|go with)`,
		`two approaches`,
		`option (a|b|1|2|one|two)\b`,
		`\balternatively\b`,
		`on (the )?one hand.*on the other`,
		`trade-?offs?\b`,
		`\bversus\b`,
		`choice between`,
		`fork in`,
	)},
	{ConstraintDiscovered, compile(
		`this means we can'?t`,
		`won'?t work because`,
		`unfortunately.*limit`,
		`blocked by`,
		`show-?stoppers?\b`,
		`deal-?breakers?\b`,
		`rules out`,
		`eliminates the possibility`,
		`can'?t do .*because`,
	)},
	{Synthesis, compile(
		`in conclusion`,
		`putting (this|these|it) all together`,
		`this suggests that`,
		`combining these`,
		`taken together`,
		`synthesizing`,
		`the key (insight|takeaway)`,
		`\boverall\b`,
		`in summary`,
		`bottom line`,
		`the honest truth`,
		`my (take|recommendation|verdict)`,
		`if i were (starting|building)`,
		`to summarize`,
		`tl;?dr`,
	)},
}

// compile builds the pattern set for one category. Patterns are matched
// against case-folded text, so they are written lowercase; (?s) lets a
// phrase span line breaks.
func compile(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(`(?s)` + p)
	}
	return res
}

// Classify maps an assistant utterance to the highest-priority trigger
// category it matches. It is a pure function: no side effects, same
// answer for the same text.
func Classify(text string) (Type, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	folded := strings.ToLower(text)

	// Meta-discussion is checked against the unstripped text: quoting the
	// detector's vocabulary in a code block still means the utterance is
	// about the detector.
	if isMetaDiscussion(folded) {
		return "", false
	}

	stripped := stripQuotedContent(folded)

	for _, c := range categories {
		for _, re := range c.Patterns {
			if re.MatchString(stripped) {
				return c.Type, true
			}
		}
	}

	return "", false
}

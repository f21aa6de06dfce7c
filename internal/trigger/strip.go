package trigger

import "regexp"

// Spans the assistant is quoting or echoing rather than asserting.
// An unterminated fence swallows the rest of the text, which is the
// desired reading of a trailing code dump.
var (
	fencedCodeRe = regexp.MustCompile("(?s)```.*?(```|$)")
	inlineCodeRe = regexp.MustCompile("`[^`\n]*`")
	quotedTextRe = regexp.MustCompile(`"[^"\n]*"`)
	blockquoteRe = regexp.MustCompile(`(?m)^[ \t]*>.*$`)
)

// stripQuotedContent removes fenced code blocks, inline code spans,
// double-quoted strings, and blockquote lines. Single-quoted spans are
// left alone: eating apostrophes would break contractions ("can't",
// "let's") that the category patterns match on.
func stripQuotedContent(s string) string {
	s = fencedCodeRe.ReplaceAllString(s, " ")
	s = inlineCodeRe.ReplaceAllString(s, " ")
	s = quotedTextRe.ReplaceAllString(s, " ")
	s = blockquoteRe.ReplaceAllString(s, " ")
	return s
}

// Meta-discussion vocabulary: an utterance that names the detection
// machinery alongside firing/testing verbs is describing this system, not
// doing checkpoint-worthy work.
var (
	metaSystemRe = regexp.MustCompile(`\b(hook|checkpoint|trigger|pattern|detector|cooldown)s?\b`)
	metaActionRe = regexp.MustCompile(`\b(fire[ds]?|firing|detect(s|ed|ion|ions)?|block(s|ed|ing)?|test(s|ed|ing)?)\b`)
	metaPhraseRe = regexp.MustCompile(`test summary|trigger loop`)
)

// isMetaDiscussion reports whether the case-folded, unstripped utterance
// is about the detection system itself.
func isMetaDiscussion(folded string) bool {
	if metaPhraseRe.MatchString(folded) {
		return true
	}
	return metaSystemRe.MatchString(folded) && metaActionRe.MatchString(folded)
}

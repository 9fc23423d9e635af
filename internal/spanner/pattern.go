package spanner

import "regexp"

// wordPattern is the category rule set in regexp form: contraction
// suffixes, then space-prefixed letter/digit/punctuation runs, then
// whitespace runs. Alternation order is load-bearing: Go's regexp engine
// is leftmost-first, so a contraction beats a punctuation run at the same
// position. \s here is ASCII whitespace; anything else non-letter and
// non-digit (including exotic Unicode spaces and bytes from invalid
// UTF-8) falls into the punctuation class. The automaton spanner encodes
// the identical rules.
const wordPattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`

var wordRE = regexp.MustCompile(wordPattern)

// PatternSpanner splits text by repeatedly matching wordPattern.
type PatternSpanner struct {
	re *regexp.Regexp
}

// NewPatternSpanner returns the regexp-backed spanner.
func NewPatternSpanner() *PatternSpanner {
	return &PatternSpanner{re: wordRE}
}

func (p *PatternSpanner) nextSpan(text string, offset int) (int, int, bool) {
	if offset >= len(text) {
		return 0, 0, false
	}
	loc := p.re.FindStringIndex(text[offset:])
	if loc == nil {
		return 0, 0, false
	}
	return offset + loc[0], offset + loc[1], true
}

// ForEachSpan implements Spanner.
func (p *PatternSpanner) ForEachSpan(text string, fn func(Span) bool) bool {
	return lexSpanner{lex: p}.ForEachSpan(text, fn)
}

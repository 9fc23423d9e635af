package spanner

import (
	"unicode"
	"unicode/utf8"
)

// AutomatonSpanner is the single-pass form of wordPattern: the rule set
// compiled by hand into a rune classifier instead of a regexp program.
// Every boundary it emits must match PatternSpanner byte for byte.
type AutomatonSpanner struct{}

// NewAutomatonSpanner returns the scanning spanner.
func NewAutomatonSpanner() *AutomatonSpanner {
	return &AutomatonSpanner{}
}

// asciiSpace mirrors regexp's \s class: [\t\n\f\r ].
func asciiSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func letter(r rune) bool { return unicode.IsLetter(r) }
func number(r rune) bool { return unicode.IsNumber(r) }

// other is the [^\s\p{L}\p{N}] class. Unicode whitespace outside the
// ASCII set lands here, exactly as it does for the regexp.
func other(r rune) bool {
	return !asciiSpace(r) && !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// scanRun extends a run of pred-satisfying runes starting at i. Invalid
// bytes decode as one U+FFFD each, the same stepping the regexp engine
// uses, so both spanners classify malformed input identically.
func scanRun(text string, i int, pred func(rune) bool) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !pred(r) {
			break
		}
		i += size
	}
	return i
}

func (a *AutomatonSpanner) nextSpan(text string, offset int) (int, int, bool) {
	if offset >= len(text) {
		return 0, 0, false
	}

	i := offset
	r, size := utf8.DecodeRuneInString(text[i:])

	if r == '\'' {
		// Contraction suffixes. First-character disjointness makes the
		// alternation order of the pattern irrelevant here.
		if i+1 < len(text) {
			switch text[i+1] {
			case 's', 't', 'm', 'd':
				return i, i + 2, true
			}
		}
		if i+2 < len(text) {
			switch text[i+1 : i+3] {
			case "re", "ve", "ll":
				return i, i + 3, true
			}
		}
		// Plain apostrophe: punctuation run.
		return i, scanRun(text, i+size, other), true
	}

	if r == ' ' && i+1 < len(text) {
		r1, size1 := utf8.DecodeRuneInString(text[i+1:])
		switch {
		case letter(r1):
			return i, scanRun(text, i+1+size1, letter), true
		case number(r1):
			return i, scanRun(text, i+1+size1, number), true
		case other(r1):
			return i, scanRun(text, i+1+size1, other), true
		}
		// Next rune is ASCII whitespace: fall through to the run rule.
	}

	switch {
	case asciiSpace(r):
		return i, scanRun(text, i+size, asciiSpace), true
	case letter(r):
		return i, scanRun(text, i+size, letter), true
	case number(r):
		return i, scanRun(text, i+size, number), true
	default:
		return i, scanRun(text, i+size, other), true
	}
}

// ForEachSpan implements Spanner.
func (a *AutomatonSpanner) ForEachSpan(text string, fn func(Span) bool) bool {
	return lexSpanner{lex: a}.ForEachSpan(text, fn)
}

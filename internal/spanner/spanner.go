// Package spanner partitions raw text into an ordered sequence of
// non-overlapping byte spans that can be encoded independently. Merges
// never cross span boundaries, so span boundaries fully determine what a
// downstream encoder may combine.
//
// Two interchangeable implementations exist: a pattern spanner driven by
// a compiled regular expression, and an automaton spanner that scans the
// same category rules in a single pass. Both must produce byte-identical
// boundaries for any input; divergence is a defect, not a tuning matter.
package spanner

import (
	"fmt"
	"unicode/utf8"
)

// Kind labels what a span contains.
type Kind uint8

const (
	// Word spans are produced by the category rules and get merge-encoded.
	Word Kind = iota
	// Special spans are exact occurrences of registered special tokens.
	Special
	// Gap spans cover bytes the word rules skipped. They still reach the
	// encoder as raw bytes; nothing is dropped.
	Gap
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Special:
		return "special"
	case Gap:
		return "gap"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Span is a half-open byte range [Start, End) of the source text.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Spanner splits text into spans, lazily and in order. Implementations
// hold no per-call state: the same Spanner may be reused across texts and
// goroutines. fn returning false stops the walk; ForEachSpan reports
// whether the walk ran to completion.
type Spanner interface {
	ForEachSpan(text string, fn func(Span) bool) bool
}

// Strategy names a spanner implementation in configuration.
type Strategy string

const (
	// Pattern evaluates the category rules with a compiled regexp.
	Pattern Strategy = "pattern"
	// Automaton scans the same rules with a hand-compiled classifier.
	// This is the default: one pass, no regexp machinery.
	Automaton Strategy = "automaton"
)

// ParseStrategy validates a configuration string.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Pattern:
		return Pattern, nil
	case Automaton, Strategy(""):
		return Automaton, nil
	default:
		return "", fmt.Errorf("unknown spanner strategy %q (want pattern|automaton)", s)
	}
}

// New returns the spanner for a strategy.
func New(s Strategy) (Spanner, error) {
	switch s {
	case Pattern:
		return NewPatternSpanner(), nil
	case Automaton, Strategy(""):
		return NewAutomatonSpanner(), nil
	default:
		return nil, fmt.Errorf("unknown spanner strategy %q", s)
	}
}

// SpanError reports malformed input rejected under strict spanning.
type SpanError struct {
	Offset int
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("malformed UTF-8 sequence at byte %d", e.Offset)
}

// Validate is the strict-mode input check: it fails with a *SpanError at
// the first malformed UTF-8 sequence. Default (non-strict) encoding skips
// this and spans the raw bytes instead.
func Validate(text string) error {
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			return &SpanError{Offset: i}
		}
		i += size
	}
	return nil
}

// wordLexer finds the next rule match at or after offset. Both spanner
// implementations are lexers; the shared walk below turns a lexer into a
// Spanner and accounts for any bytes a lexer could skip.
type wordLexer interface {
	nextSpan(text string, offset int) (start, end int, ok bool)
}

type lexSpanner struct {
	lex wordLexer
}

func (s lexSpanner) ForEachSpan(text string, fn func(Span) bool) bool {
	last := 0
	for {
		start, end, ok := s.lex.nextSpan(text, last)
		if !ok {
			break
		}
		if last < start {
			if !fn(Span{Start: last, End: start, Kind: Gap}) {
				return false
			}
		}
		if !fn(Span{Start: start, End: end, Kind: Word}) {
			return false
		}
		last = end
	}
	if last < len(text) {
		// Trailing bytes no rule matched become one final span.
		if !fn(Span{Start: last, End: len(text), Kind: Gap}) {
			return false
		}
	}
	return true
}

// Collect gathers all spans of text. Test and debug helper; encoding
// paths iterate instead.
func Collect(s Spanner, text string) []Span {
	var out []Span
	s.ForEachSpan(text, func(sp Span) bool {
		out = append(out, sp)
		return true
	})
	return out
}

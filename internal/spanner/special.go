package spanner

import (
	"sort"
	"strings"
)

// specialSpanner layers exact special-token matching over a word spanner.
// Specials are cut out first; the text between them is delegated to the
// inner spanner with offsets rebased, so word rules can never merge
// across a special.
type specialSpanner struct {
	inner    Spanner
	specials []string
}

// WithSpecials wraps inner so that occurrences of the given strings come
// back as Special spans. Empty strings are ignored. With no specials the
// inner spanner is returned unchanged.
func WithSpecials(inner Spanner, specials []string) Spanner {
	kept := make([]string, 0, len(specials))
	for _, s := range specials {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return inner
	}
	// Longest-first so overlapping specials at the same offset resolve
	// deterministically.
	sort.Slice(kept, func(i, j int) bool {
		if len(kept[i]) != len(kept[j]) {
			return len(kept[i]) > len(kept[j])
		}
		return kept[i] < kept[j]
	})
	return &specialSpanner{inner: inner, specials: kept}
}

// nextSpecial finds the earliest special occurrence at or after offset.
// Ties on position go to the longest special, which the sort order above
// delivers for free.
func (s *specialSpanner) nextSpecial(text string, offset int) (start, end int, ok bool) {
	best := -1
	bestLen := 0
	for _, sp := range s.specials {
		idx := strings.Index(text[offset:], sp)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			bestLen = len(sp)
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return offset + best, offset + best + bestLen, true
}

// ForEachSpan implements Spanner.
func (s *specialSpanner) ForEachSpan(text string, fn func(Span) bool) bool {
	offset := 0
	for {
		start, end, ok := s.nextSpecial(text, offset)
		if !ok {
			break
		}
		if !s.forEachInner(text[offset:start], offset, fn) {
			return false
		}
		if !fn(Span{Start: start, End: end, Kind: Special}) {
			return false
		}
		offset = end
	}
	return s.forEachInner(text[offset:], offset, fn)
}

func (s *specialSpanner) forEachInner(segment string, base int, fn func(Span) bool) bool {
	if segment == "" {
		return true
	}
	return s.inner.ForEachSpan(segment, func(sp Span) bool {
		sp.Start += base
		sp.End += base
		return fn(sp)
	})
}

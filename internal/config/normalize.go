package config

import (
	"fmt"
	"strings"
)

const (
	SpannerPattern   = "pattern"
	SpannerAutomaton = "automaton"
)

const (
	MergeLinearRescan = "linear-rescan"
	MergeParallelRank = "parallel-rank"
	MergeHeapList     = "heap-list"
)

// NormalizeSpanner canonicalizes a spanner name. Empty means the default
// automaton implementation.
func NormalizeSpanner(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		s = SpannerAutomaton
	}
	switch s {
	case SpannerPattern, SpannerAutomaton:
		return s, nil
	case "regex", "regexp":
		return SpannerPattern, nil
	default:
		return "", fmt.Errorf(
			"invalid spanner %q (expected %s|%s)",
			raw,
			SpannerPattern,
			SpannerAutomaton,
		)
	}
}

// NormalizeMerge canonicalizes a merge strategy name. Empty means the
// default heap-list strategy.
func NormalizeMerge(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		s = MergeHeapList
	}
	switch s {
	case MergeLinearRescan, MergeParallelRank, MergeHeapList:
		return s, nil
	case "linear":
		return MergeLinearRescan, nil
	case "parallel":
		return MergeParallelRank, nil
	case "heap":
		return MergeHeapList, nil
	default:
		return "", fmt.Errorf(
			"invalid merge strategy %q (expected %s|%s|%s)",
			raw,
			MergeLinearRescan,
			MergeParallelRank,
			MergeHeapList,
		)
	}
}

// Package encoder turns byte spans into token ids by repeatedly merging
// the lowest-rank adjacent pair, and token ids back into bytes. Three
// merge strategies share one observable contract and differ only in cost;
// the Encoder composes a strategy with a spanner and a Vocabulary.
package encoder

import (
	"fmt"

	"github.com/example/go-wordchipper/internal/vocab"
)

// MergeStrategy names a merge implementation in configuration.
type MergeStrategy string

const (
	// LinearRescan rescans the whole span for the minimum pair before
	// every merge. O(n^2); the reference the other two are checked against.
	LinearRescan MergeStrategy = "linear-rescan"
	// ParallelRank is LinearRescan with each rescan's rank lookups
	// spread over a fixed worker count.
	ParallelRank MergeStrategy = "parallel-rank"
	// HeapList keeps an index-linked node list and a lazy min-heap of
	// pair candidates. O(n log n); the default.
	HeapList MergeStrategy = "heap-list"
)

// ParseMergeStrategy validates a configuration string.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case LinearRescan:
		return LinearRescan, nil
	case ParallelRank:
		return ParallelRank, nil
	case HeapList, MergeStrategy(""):
		return HeapList, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (want linear-rescan|parallel-rank|heap-list)", s)
	}
}

// spanMerger reduces one span to tokens. Implementations allocate their
// working state per call: nothing is shared between spans, calls or
// goroutines except the immutable Vocabulary.
type spanMerger interface {
	// appendSpan seeds one token per span byte, merges to fixpoint and
	// appends the surviving ids to dst.
	appendSpan(dst []int, span []byte) []int
}

func newMerger(v *vocab.Vocabulary, s MergeStrategy, workers int) (spanMerger, error) {
	switch s {
	case LinearRescan:
		return linearMerger{v: v}, nil
	case ParallelRank:
		if workers < 1 {
			workers = 1
		}
		return parallelMerger{v: v, workers: workers}, nil
	case HeapList, MergeStrategy(""):
		return heapMerger{v: v}, nil
	default:
		return nil, fmt.Errorf("unknown merge strategy %q", s)
	}
}

package encoder

import (
	"container/heap"

	"github.com/example/go-wordchipper/internal/vocab"
)

// heapMerger runs the O(n log n) strategy: token nodes live in an arena
// addressed by stable index with explicit prev/next links, and a min-heap
// orders pair candidates by (rank, leftmost position). Stale candidates
// are detected lazily via per-node generation counters instead of
// decrease-key: a popped entry whose recorded generations no longer match
// is discarded and the next minimum popped.
type heapMerger struct {
	v *vocab.Vocabulary
}

// heapCand is a prospective merge of the node at pos with its right
// neighbor, captured together with both nodes' generations at push time.
// Either generation moving on invalidates the candidate.
type heapCand struct {
	rank     int
	pos      int
	id       int
	leftGen  uint32
	rightGen uint32
}

type candHeap []heapCand

func (h candHeap) Len() int { return len(h) }

func (h candHeap) Less(i, j int) bool {
	if h[i].rank != h[j].rank {
		return h[i].rank < h[j].rank
	}
	return h[i].pos < h[j].pos
}

func (h candHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candHeap) Push(x any) { *h = append(*h, x.(heapCand)) }

func (h *candHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (m heapMerger) appendSpan(dst []int, span []byte) []int {
	n := len(span)
	if n == 0 {
		return dst
	}
	if n == 1 {
		return append(dst, m.v.ByteToken(span[0]))
	}

	toks := make([]int, n)
	next := make([]int, n)
	prev := make([]int, n)
	gen := make([]uint32, n)
	for i, b := range span {
		toks[i] = m.v.ByteToken(b)
		next[i] = i + 1
		prev[i] = i - 1
	}
	next[n-1] = -1

	h := make(candHeap, 0, n)

	push := func(i int) {
		j := next[i]
		if j < 0 {
			return
		}
		if mg, ok := m.v.PairMerge(toks[i], toks[j]); ok {
			heap.Push(&h, heapCand{
				rank:     mg.Rank,
				pos:      i,
				id:       mg.ID,
				leftGen:  gen[i],
				rightGen: gen[j],
			})
		}
	}

	for i := 0; i < n-1; i++ {
		push(i)
	}

	for h.Len() > 0 {
		c := heap.Pop(&h).(heapCand)
		i := c.pos
		j := next[i]
		if j < 0 {
			continue
		}
		if gen[i] != c.leftGen || gen[j] != c.rightGen {
			continue // stale: one side already merged away
		}

		// Merge into the left slot; node 0 therefore never dies and the
		// final walk can always start there.
		toks[i] = c.id
		k := next[j]
		next[i] = k
		if k >= 0 {
			prev[k] = i
		}
		next[j], prev[j] = -1, -1
		gen[i]++
		gen[j]++

		if p := prev[i]; p >= 0 {
			push(p)
		}
		push(i)
	}

	for i := 0; i >= 0; i = next[i] {
		dst = append(dst, toks[i])
	}
	return dst
}

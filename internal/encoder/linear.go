package encoder

import "github.com/example/go-wordchipper/internal/vocab"

// linearMerger rescans the whole working sequence before every merge.
// Quadratic, but trivially correct: the equivalence tests use it as the
// oracle for the other strategies.
type linearMerger struct {
	v *vocab.Vocabulary
}

func (m linearMerger) appendSpan(dst []int, span []byte) []int {
	start := len(dst)
	for _, b := range span {
		dst = append(dst, m.v.ByteToken(b))
	}

	ids := dst[start:]
	for len(ids) >= 2 {
		bestPos := -1
		var best vocab.Merge
		for i := 0; i+1 < len(ids); i++ {
			mg, ok := m.v.PairMerge(ids[i], ids[i+1])
			if !ok {
				continue
			}
			// Strict < keeps the leftmost pair on rank ties.
			if bestPos < 0 || mg.Rank < best.Rank {
				bestPos, best = i, mg
			}
		}
		if bestPos < 0 {
			break
		}
		ids[bestPos] = best.ID
		copy(ids[bestPos+1:], ids[bestPos+2:])
		ids = ids[:len(ids)-1]
	}

	return dst[:start+len(ids)]
}

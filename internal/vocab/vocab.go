// Package vocab holds the immutable byte-sequence/token-id tables a
// tokenizer is built from: the token dictionary, its inverse, the pairwise
// merge table and the special-token set. A Vocabulary never changes after
// construction, so concurrent readers need no locking.
package vocab

import (
	"fmt"
	"sort"
)

// Pair is an ordered pair of adjacent token ids.
type Pair struct {
	Left  int
	Right int
}

// Merge describes the outcome of merging a Pair: the resulting token id
// and the merge priority. Lower rank merges earlier.
type Merge struct {
	ID   int
	Rank int
}

// RankedMerge is one row of an explicit merge table, used when the rank
// order is not derivable from token ids (e.g. classic vocab+merges files).
type RankedMerge struct {
	Left  int
	Right int
	ID    int
	Rank  int
}

// TokenSet maps a token's literal byte content to its id.
type TokenSet map[string]int

// ConstructionError reports a malformed or inconsistent rank table.
// Construction is the only place it can surface; once a Vocabulary
// exists its tables are known-good.
type ConstructionError struct {
	Detail string
}

func (e *ConstructionError) Error() string {
	return "vocabulary construction: " + e.Detail
}

func constructionErrorf(format string, args ...any) error {
	return &ConstructionError{Detail: fmt.Sprintf(format, args...)}
}

// Vocabulary is the shared read-only table set consulted during encoding
// and decoding. All lookups are pure functions of the construction input.
type Vocabulary struct {
	bytesOf    [][]byte
	idOf       map[string]int
	merges     map[Pair]Merge
	byteTokens [256]int
	specials   map[string]int
	specialOf  map[int]string
}

// New builds a Vocabulary from a token dictionary, deriving the merge
// table the way tiktoken-style rank files imply it: every token whose
// bytes split into two existing tokens is the merge target of that pair,
// with rank equal to its own id.
func New(tokens TokenSet, specials map[string]int) (*Vocabulary, error) {
	merges := make([]RankedMerge, 0, len(tokens))
	for tok, id := range tokens {
		if len(tok) < 2 {
			continue
		}
		for cut := 1; cut < len(tok); cut++ {
			left, lok := tokens[tok[:cut]]
			right, rok := tokens[tok[cut:]]
			if lok && rok {
				merges = append(merges, RankedMerge{Left: left, Right: right, ID: id, Rank: id})
			}
		}
	}
	return NewWithMerges(tokens, merges, specials)
}

// NewWithMerges builds a Vocabulary from a token dictionary and an
// explicit merge table. It fails with a *ConstructionError if the tables
// are inconsistent; no encode call is possible before this passes.
func NewWithMerges(tokens TokenSet, merges []RankedMerge, specials map[string]int) (*Vocabulary, error) {
	if len(tokens) == 0 {
		return nil, constructionErrorf("empty token set")
	}

	maxID := -1
	seen := make(map[int]string, len(tokens))
	for tok, id := range tokens {
		if id < 0 {
			return nil, constructionErrorf("token %q has negative id %d", tok, id)
		}
		if len(tok) == 0 {
			return nil, constructionErrorf("empty byte sequence for id %d", id)
		}
		if prev, dup := seen[id]; dup {
			return nil, constructionErrorf("duplicate id %d for %q and %q", id, prev, tok)
		}
		seen[id] = tok
		if id > maxID {
			maxID = id
		}
	}

	v := &Vocabulary{
		idOf:      make(map[string]int, len(tokens)),
		merges:    make(map[Pair]Merge, len(merges)),
		specials:  make(map[string]int, len(specials)),
		specialOf: make(map[int]string, len(specials)),
	}

	for tok, id := range specials {
		if id < 0 {
			return nil, constructionErrorf("special %q has negative id %d", tok, id)
		}
		if len(tok) == 0 {
			return nil, constructionErrorf("empty special token for id %d", id)
		}
		if clash, ok := seen[id]; ok {
			return nil, constructionErrorf("special %q reuses id %d of token %q", tok, id, clash)
		}
		if prev, dup := v.specialOf[id]; dup {
			return nil, constructionErrorf("duplicate special id %d for %q and %q", id, prev, tok)
		}
		v.specials[tok] = id
		v.specialOf[id] = tok
	}

	v.bytesOf = make([][]byte, maxID+1)
	for tok, id := range tokens {
		v.bytesOf[id] = []byte(tok)
		v.idOf[tok] = id
	}

	for i := range v.byteTokens {
		id, ok := v.idOf[string(byte(i))]
		if !ok {
			return nil, constructionErrorf("no single-byte token for byte 0x%02x", i)
		}
		v.byteTokens[i] = id
	}

	for _, m := range merges {
		if m.Rank < 0 {
			return nil, constructionErrorf("merge (%d,%d) has negative rank %d", m.Left, m.Right, m.Rank)
		}
		left, lok := v.tokenBytes(m.Left)
		right, rok := v.tokenBytes(m.Right)
		if !lok || !rok {
			return nil, constructionErrorf("merge (%d,%d) references unknown token", m.Left, m.Right)
		}
		target, tok := v.tokenBytes(m.ID)
		if !tok {
			return nil, constructionErrorf("merge (%d,%d) has dangling target %d", m.Left, m.Right, m.ID)
		}
		if string(target) != string(left)+string(right) {
			// A target whose bytes are not the pair concatenation means
			// the table is cyclic or corrupt.
			return nil, constructionErrorf("merge (%d,%d)->%d: target bytes %q != %q+%q",
				m.Left, m.Right, m.ID, target, left, right)
		}
		pair := Pair{Left: m.Left, Right: m.Right}
		if prev, dup := v.merges[pair]; dup {
			if prev.ID != m.ID || prev.Rank != m.Rank {
				return nil, constructionErrorf("conflicting merges for pair (%d,%d)", m.Left, m.Right)
			}
			continue
		}
		v.merges[pair] = Merge{ID: m.ID, Rank: m.Rank}
	}

	return v, nil
}

func (v *Vocabulary) tokenBytes(id int) ([]byte, bool) {
	if id < 0 || id >= len(v.bytesOf) || v.bytesOf[id] == nil {
		return nil, false
	}
	return v.bytesOf[id], true
}

// PairMerge reports the merge for an adjacent pair of token ids.
func (v *Vocabulary) PairMerge(left, right int) (Merge, bool) {
	m, ok := v.merges[Pair{Left: left, Right: right}]
	return m, ok
}

// IDOf reports the token id for a literal byte sequence.
func (v *Vocabulary) IDOf(seq []byte) (int, bool) {
	id, ok := v.idOf[string(seq)]
	return id, ok
}

// IDOfString is IDOf without the []byte conversion, for hot paths that
// already hold a string.
func (v *Vocabulary) IDOfString(seq string) (int, bool) {
	id, ok := v.idOf[seq]
	return id, ok
}

// BytesOf reports the byte content of a token id, covering both regular
// and special tokens.
func (v *Vocabulary) BytesOf(id int) ([]byte, bool) {
	if b, ok := v.tokenBytes(id); ok {
		return b, true
	}
	if s, ok := v.specialOf[id]; ok {
		return []byte(s), true
	}
	return nil, false
}

// ByteToken reports the token id encoding the single byte b. Construction
// guarantees one exists for every byte value.
func (v *Vocabulary) ByteToken(b byte) int {
	return v.byteTokens[b]
}

// SpecialID reports the id of a special token string.
func (v *Vocabulary) SpecialID(s string) (int, bool) {
	id, ok := v.specials[s]
	return id, ok
}

// Specials returns the special token strings in deterministic order.
func (v *Vocabulary) Specials() []string {
	out := make([]string, 0, len(v.specials))
	for s := range v.specials {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Size reports the number of regular tokens.
func (v *Vocabulary) Size() int {
	return len(v.idOf)
}

// MergeCount reports the number of mergeable pairs.
func (v *Vocabulary) MergeCount() int {
	return len(v.merges)
}

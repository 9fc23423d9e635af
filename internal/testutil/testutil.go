// Package testutil provides shared vocabulary fixtures and skip helpers
// for tokenizer tests.
//
// The fixtures build small deterministic vocabularies covering all 256
// byte values, so round-trip properties hold by construction. Typical
// usage:
//
//	func TestEncode(t *testing.T) {
//	    v := testutil.ByteVocab(t, "he", "hel", "hell", "hello")
//	    ...
//	}
package testutil

import (
	"os"
	"testing"

	"github.com/example/go-wordchipper/internal/vocab"
)

// ByteTokens returns a fresh TokenSet with every byte value mapped to its
// own id (0..255).
func ByteTokens() vocab.TokenSet {
	ts := make(vocab.TokenSet, 256)
	for i := 0; i < 256; i++ {
		ts[string(byte(i))] = i
	}
	return ts
}

// ByteVocab builds a Vocabulary of the 256 byte tokens plus the given
// compound tokens (ids assigned from 256 in argument order), with the
// merge table derived tiktoken-style: each compound merges from any split
// into two existing tokens, ranked by its own id.
func ByteVocab(tb testing.TB, compounds ...string) *vocab.Vocabulary {
	tb.Helper()

	ts := ByteTokens()
	for i, c := range compounds {
		ts[c] = 256 + i
	}

	v, err := vocab.New(ts, nil)
	if err != nil {
		tb.Fatalf("build test vocabulary: %v", err)
	}
	return v
}

// ByteVocabWithSpecials is ByteVocab plus special tokens with ids far
// above the regular range.
func ByteVocabWithSpecials(tb testing.TB, specials []string, compounds ...string) *vocab.Vocabulary {
	tb.Helper()

	ts := ByteTokens()
	for i, c := range compounds {
		ts[c] = 256 + i
	}
	sp := make(map[string]int, len(specials))
	for i, s := range specials {
		sp[s] = 100000 + i
	}

	v, err := vocab.New(ts, sp)
	if err != nil {
		tb.Fatalf("build test vocabulary: %v", err)
	}
	return v
}

// HelloVocab builds the canonical merge-chain fixture: byte tokens plus
// he/hel/hell/hello with explicit ranks 0..3, so "hello" must collapse to
// the single token id it returns.
func HelloVocab(tb testing.TB) (*vocab.Vocabulary, int) {
	tb.Helper()

	ts := ByteTokens()
	ts["he"] = 256
	ts["hel"] = 257
	ts["hell"] = 258
	ts["hello"] = 259

	merges := []vocab.RankedMerge{
		{Left: int('h'), Right: int('e'), ID: 256, Rank: 0},
		{Left: 256, Right: int('l'), ID: 257, Rank: 1},
		{Left: 257, Right: int('l'), ID: 258, Rank: 2},
		{Left: 258, Right: int('o'), ID: 259, Rank: 3},
	}

	v, err := vocab.NewWithMerges(ts, merges, nil)
	if err != nil {
		tb.Fatalf("build hello vocabulary: %v", err)
	}
	return v, 259
}

// RequireNetwork skips the test unless WORDCHIPPER_TEST_NETWORK is set.
// Download tests stay runnable in offline environments without failing
// noisily.
func RequireNetwork(tb testing.TB) {
	tb.Helper()
	if os.Getenv("WORDCHIPPER_TEST_NETWORK") == "" {
		tb.Skip("network tests disabled; set WORDCHIPPER_TEST_NETWORK=1 to enable")
	}
}

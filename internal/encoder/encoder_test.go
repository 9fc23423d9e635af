package encoder

import (
	"errors"
	"testing"

	"github.com/example/go-wordchipper/internal/spanner"
	"github.com/example/go-wordchipper/internal/testutil"
)

func TestNew_RequiresVocabulary(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoVocabulary) {
		t.Fatalf("New(nil): got %v, want ErrNoVocabulary", err)
	}
}

func TestNew_RejectsUnknownStrategies(t *testing.T) {
	v := testutil.ByteVocab(t)

	if _, err := New(v, WithMergeStrategy(MergeStrategy("bogus"))); err == nil {
		t.Error("unknown merge strategy accepted")
	}
	if _, err := New(v, WithSpanner(spanner.Strategy("bogus"))); err == nil {
		t.Error("unknown spanner strategy accepted")
	}
}

func TestEncode_Empty(t *testing.T) {
	v := testutil.ByteVocab(t)
	e, err := New(v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ids, err := e.Encode("")
	if err != nil {
		t.Fatalf("Encode(\"\"): %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Encode(\"\") = %v, want empty", ids)
	}
}

func TestEncode_HelloSingleToken(t *testing.T) {
	v, helloID := testutil.HelloVocab(t)

	for _, s := range []MergeStrategy{LinearRescan, ParallelRank, HeapList} {
		e, err := New(v, WithMergeStrategy(s), WithCacheSize(0))
		if err != nil {
			t.Fatalf("New(%q): %v", s, err)
		}
		ids, err := e.Encode("hello")
		if err != nil {
			t.Fatalf("%s: Encode: %v", s, err)
		}
		if !sameIDs(ids, []int{helloID}) {
			t.Errorf("%s: Encode(\"hello\") = %v, want [%d]", s, ids, helloID)
		}
	}
}

// Every byte has a token, so encode-then-decode must reproduce any input
// exactly, malformed UTF-8 included.
func TestRoundTrip(t *testing.T) {
	v := equivalenceVocab(t)
	dec := NewDecoder(v)

	for _, spStrategy := range []spanner.Strategy{spanner.Pattern, spanner.Automaton} {
		for _, ms := range []MergeStrategy{LinearRescan, ParallelRank, HeapList} {
			e, err := New(v, WithSpanner(spStrategy), WithMergeStrategy(ms))
			if err != nil {
				t.Fatalf("New(%q,%q): %v", spStrategy, ms, err)
			}
			for _, in := range equivalenceInputs() {
				ids, err := e.Encode(in)
				if err != nil {
					t.Fatalf("%s/%s: Encode(%q): %v", spStrategy, ms, in, err)
				}
				out, err := dec.DecodeString(ids)
				if err != nil {
					t.Fatalf("%s/%s: Decode(%v): %v", spStrategy, ms, ids, err)
				}
				if out != in {
					t.Fatalf("%s/%s: round trip %q -> %v -> %q", spStrategy, ms, in, ids, out)
				}
			}
		}
	}
}

func TestEncode_Strict(t *testing.T) {
	v := testutil.ByteVocab(t)
	e, err := New(v, WithStrict(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Encode("plain ascii"); err != nil {
		t.Fatalf("strict Encode of valid text: %v", err)
	}

	_, err = e.Encode("ab\xffcd")
	var serr *spanner.SpanError
	if !errors.As(err, &serr) {
		t.Fatalf("strict Encode of bad UTF-8: got %v, want *spanner.SpanError", err)
	}
	if serr.Offset != 2 {
		t.Errorf("SpanError.Offset = %d, want 2", serr.Offset)
	}
}

func TestEncode_Specials(t *testing.T) {
	const eot = "<|endoftext|>"
	v := testutil.ByteVocabWithSpecials(t, []string{eot})
	eotID, ok := v.SpecialID(eot)
	if !ok {
		t.Fatalf("SpecialID(%q) missing", eot)
	}

	e, err := New(v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ids, err := e.Encode("hi" + eot + "yo")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []int{'h', 'i', eotID, 'y', 'o'}
	if !sameIDs(ids, want) {
		t.Fatalf("Encode = %v, want %v", ids, want)
	}

	out, err := NewDecoder(v).DecodeString(ids)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != "hi"+eot+"yo" {
		t.Fatalf("Decode = %q", out)
	}
}

// Cached and uncached encoders must agree; a repeated encode must hit the
// cache without changing the result.
func TestEncode_CacheConsistency(t *testing.T) {
	v := equivalenceVocab(t)
	cached, err := New(v, WithCacheSize(16))
	if err != nil {
		t.Fatalf("New(cached): %v", err)
	}
	bare, err := New(v, WithCacheSize(0))
	if err != nil {
		t.Fatalf("New(uncached): %v", err)
	}

	for pass := 0; pass < 3; pass++ {
		for _, in := range []string{"the theme", "hello hello", "ababab", "the theme"} {
			want, err := bare.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := cached.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !sameIDs(got, want) {
				t.Fatalf("pass %d: cached Encode(%q) = %v, want %v", pass, in, got, want)
			}
		}
	}
}

func TestDecode_UnknownToken(t *testing.T) {
	v := testutil.ByteVocab(t)
	dec := NewDecoder(v)

	_, err := dec.Decode([]int{'h', 'i', 999999})
	var uerr *UnknownTokenError
	if !errors.As(err, &uerr) {
		t.Fatalf("Decode: got %v, want *UnknownTokenError", err)
	}
	if uerr.ID != 999999 || uerr.Index != 2 {
		t.Errorf("UnknownTokenError = {ID:%d Index:%d}, want {ID:999999 Index:2}", uerr.ID, uerr.Index)
	}
}

func TestDecode_Empty(t *testing.T) {
	dec := NewDecoder(testutil.ByteVocab(t))
	out, err := dec.Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("Decode(nil) = %q, want empty", out)
	}
}

package vocab

import (
	"errors"
	"testing"
)

// byteTokenSet returns a TokenSet covering every byte value (ids 0..255)
// plus the given compound tokens, assigned ids from 256 in order.
func byteTokenSet(compounds ...string) TokenSet {
	ts := make(TokenSet, 256+len(compounds))
	for i := 0; i < 256; i++ {
		ts[string(byte(i))] = i
	}
	for i, c := range compounds {
		ts[c] = 256 + i
	}
	return ts
}

func TestNew_DerivesMerges(t *testing.T) {
	v, err := New(byteTokenSet("ab", "abc"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m, ok := v.PairMerge(int('a'), int('b'))
	if !ok {
		t.Fatal("expected merge for (a,b)")
	}
	if m.ID != 256 || m.Rank != 256 {
		t.Errorf("PairMerge(a,b) = %+v, want ID=256 Rank=256", m)
	}

	m, ok = v.PairMerge(256, int('c'))
	if !ok {
		t.Fatal("expected merge for (ab,c)")
	}
	if m.ID != 257 {
		t.Errorf("PairMerge(ab,c).ID = %d, want 257", m.ID)
	}

	// (a, bc) has no "bc" token, so no merge may exist.
	if _, ok := v.PairMerge(int('a'), int('b')<<8); ok {
		t.Error("unexpected merge for bogus pair")
	}
}

func TestNew_Lookups(t *testing.T) {
	v, err := New(byteTokenSet("hi"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, ok := v.IDOf([]byte("hi"))
	if !ok || id != 256 {
		t.Errorf("IDOf(hi) = %d,%v, want 256,true", id, ok)
	}

	b, ok := v.BytesOf(256)
	if !ok || string(b) != "hi" {
		t.Errorf("BytesOf(256) = %q,%v, want hi,true", b, ok)
	}

	if _, ok := v.BytesOf(9999); ok {
		t.Error("BytesOf(9999) should be absent")
	}

	for i := 0; i < 256; i++ {
		if got := v.ByteToken(byte(i)); got != i {
			t.Fatalf("ByteToken(0x%02x) = %d, want %d", i, got, i)
		}
	}

	if got := v.Size(); got != 257 {
		t.Errorf("Size = %d, want 257", got)
	}
}

func TestNew_MissingByteToken(t *testing.T) {
	ts := byteTokenSet()
	delete(ts, string(byte(0x7f)))

	_, err := New(ts, nil)
	if err == nil {
		t.Fatal("expected error for missing single-byte token")
	}

	var ce *ConstructionError
	if !errors.As(err, &ce) {
		t.Errorf("expected *ConstructionError, got %T: %v", err, err)
	}
}

func TestNew_DuplicateID(t *testing.T) {
	ts := byteTokenSet()
	ts["dup"] = 17 // collides with byte 0x11

	_, err := New(ts, nil)
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestNew_NegativeID(t *testing.T) {
	ts := byteTokenSet()
	ts["neg"] = -1

	if _, err := New(ts, nil); err == nil {
		t.Fatal("expected error for negative id")
	}
}

func TestNew_EmptyTokenSet(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for empty token set")
	}
}

func TestNewWithMerges_DanglingTarget(t *testing.T) {
	_, err := NewWithMerges(byteTokenSet(), []RankedMerge{
		{Left: int('a'), Right: int('b'), ID: 999, Rank: 0},
	}, nil)
	if err == nil {
		t.Fatal("expected error for dangling merge target")
	}
}

func TestNewWithMerges_InconsistentTarget(t *testing.T) {
	// Target exists but its bytes are not left+right: corrupt table.
	_, err := NewWithMerges(byteTokenSet("xy"), []RankedMerge{
		{Left: int('a'), Right: int('b'), ID: 256, Rank: 0},
	}, nil)
	if err == nil {
		t.Fatal("expected error for inconsistent merge target")
	}
}

func TestNewWithMerges_ConflictingPair(t *testing.T) {
	_, err := NewWithMerges(byteTokenSet("ab"), []RankedMerge{
		{Left: int('a'), Right: int('b'), ID: 256, Rank: 0},
		{Left: int('a'), Right: int('b'), ID: 256, Rank: 5},
	}, nil)
	if err == nil {
		t.Fatal("expected error for conflicting duplicate pair")
	}
}

func TestNewWithMerges_NegativeRank(t *testing.T) {
	_, err := NewWithMerges(byteTokenSet("ab"), []RankedMerge{
		{Left: int('a'), Right: int('b'), ID: 256, Rank: -3},
	}, nil)
	if err == nil {
		t.Fatal("expected error for negative rank")
	}
}

func TestSpecials(t *testing.T) {
	v, err := New(byteTokenSet(), map[string]int{
		"<|endoftext|>":   50000,
		"<|endofprompt|>": 50001,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, ok := v.SpecialID("<|endoftext|>")
	if !ok || id != 50000 {
		t.Errorf("SpecialID = %d,%v, want 50000,true", id, ok)
	}

	b, ok := v.BytesOf(50001)
	if !ok || string(b) != "<|endofprompt|>" {
		t.Errorf("BytesOf(50001) = %q,%v", b, ok)
	}

	got := v.Specials()
	want := []string{"<|endofprompt|>", "<|endoftext|>"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Specials = %v, want %v", got, want)
	}
}

func TestSpecials_IDCollision(t *testing.T) {
	_, err := New(byteTokenSet(), map[string]int{"<|eot|>": 42})
	if err == nil {
		t.Fatal("expected error for special reusing a token id")
	}
}

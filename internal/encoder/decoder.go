package encoder

import (
	"fmt"

	"github.com/example/go-wordchipper/internal/vocab"
)

// UnknownTokenError reports a decode of an id the Vocabulary has no byte
// sequence for.
type UnknownTokenError struct {
	ID    int
	Index int
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown token id %d at position %d", e.ID, e.Index)
}

// Decoder maps token-id sequences back to bytes. It is stateless: one
// Decoder may serve any number of goroutines.
type Decoder struct {
	v *vocab.Vocabulary
}

// NewDecoder returns a Decoder over v.
func NewDecoder(v *vocab.Vocabulary) *Decoder {
	return &Decoder{v: v}
}

// Decode concatenates the byte sequences of ids in order. Decoding an
// empty sequence yields empty bytes, not an error.
func (d *Decoder) Decode(ids []int) ([]byte, error) {
	out := make([]byte, 0, len(ids)*3)
	for i, id := range ids {
		b, ok := d.v.BytesOf(id)
		if !ok {
			return nil, &UnknownTokenError{ID: id, Index: i}
		}
		out = append(out, b...)
	}
	return out, nil
}

// DecodeString is Decode with a string result.
func (d *Decoder) DecodeString(ids []int) (string, error) {
	b, err := d.Decode(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

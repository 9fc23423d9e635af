package encoder

import (
	"errors"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/go-wordchipper/internal/spanner"
	"github.com/example/go-wordchipper/internal/vocab"
)

// ErrNoVocabulary is returned by New when given a nil or empty Vocabulary.
var ErrNoVocabulary = errors.New("encoder requires a non-empty vocabulary")

// DefaultCacheSize bounds the span-result LRU. Sized after the word cache
// in GPT-2 style encoders; most prose re-encodes the same few thousand
// spans over and over.
const DefaultCacheSize = 8192

// Spans longer than this are never cached; they are rare and would evict
// many useful entries' worth of memory.
const maxCachedSpanLen = 128

type options struct {
	spannerStrategy spanner.Strategy
	mergeStrategy   MergeStrategy
	workers         int
	strict          bool
	cacheSize       int
}

func defaultOptions() options {
	return options{
		spannerStrategy: spanner.Automaton,
		mergeStrategy:   HeapList,
		workers:         runtime.NumCPU(),
		strict:          false,
		cacheSize:       DefaultCacheSize,
	}
}

// Option configures an Encoder.
type Option func(*options)

// WithSpanner selects the spanner implementation.
func WithSpanner(s spanner.Strategy) Option {
	return func(o *options) { o.spannerStrategy = s }
}

// WithMergeStrategy selects the merge implementation.
func WithMergeStrategy(s MergeStrategy) Option {
	return func(o *options) { o.mergeStrategy = s }
}

// WithWorkers sets the worker count used by the parallel-rank strategy.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithStrict makes Encode reject malformed UTF-8 input with a
// *spanner.SpanError instead of encoding the raw bytes.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithCacheSize sets the span-result LRU capacity. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// Encoder converts text to token ids: span the text, merge each span,
// concatenate in span order. One immutable Vocabulary per Encoder for its
// whole lifetime; the Vocabulary and the internally-locked LRU are the
// only shared state, so an Encoder is safe for concurrent use.
type Encoder struct {
	v       *vocab.Vocabulary
	spanner spanner.Spanner
	merger  spanMerger
	strict  bool
	cache   *lru.Cache[string, []int]
}

// New builds an Encoder over v.
func New(v *vocab.Vocabulary, opts ...Option) (*Encoder, error) {
	if v == nil || v.Size() == 0 {
		return nil, ErrNoVocabulary
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	sp, err := spanner.New(o.spannerStrategy)
	if err != nil {
		return nil, err
	}
	sp = spanner.WithSpecials(sp, v.Specials())

	merger, err := newMerger(v, o.mergeStrategy, o.workers)
	if err != nil {
		return nil, err
	}

	e := &Encoder{
		v:       v,
		spanner: sp,
		merger:  merger,
		strict:  o.strict,
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, []int](o.cacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}
	return e, nil
}

// Vocab returns the Encoder's Vocabulary.
func (e *Encoder) Vocab() *vocab.Vocabulary {
	return e.v
}

// Strict reports whether strict spanning is enabled.
func (e *Encoder) Strict() bool {
	return e.strict
}

// Encode converts text to token ids. Encoding "" yields an empty
// sequence. Under strict spanning, malformed UTF-8 fails with a
// *spanner.SpanError; otherwise raw bytes are encoded as-is via the
// single-byte tokens, so no input is ever dropped.
func (e *Encoder) Encode(text string) ([]int, error) {
	if e.strict {
		if err := spanner.Validate(text); err != nil {
			return nil, err
		}
	}

	out := make([]int, 0, len(text)/3+4)
	e.spanner.ForEachSpan(text, func(sp spanner.Span) bool {
		seg := text[sp.Start:sp.End]
		if sp.Kind == spanner.Special {
			if id, ok := e.v.SpecialID(seg); ok {
				out = append(out, id)
				return true
			}
			// A special span only exists for registered specials; fall
			// through to byte encoding rather than lose the bytes.
		}
		out = e.appendSegment(out, seg)
		return true
	})
	return out, nil
}

func (e *Encoder) appendSegment(dst []int, seg string) []int {
	// Whole-span hit: many spans are themselves tokens, and some of
	// those never appear in the merge table.
	if id, ok := e.v.IDOfString(seg); ok {
		return append(dst, id)
	}

	if e.cache != nil {
		if ids, ok := e.cache.Get(seg); ok {
			return append(dst, ids...)
		}
	}

	start := len(dst)
	dst = e.merger.appendSpan(dst, []byte(seg))

	if e.cache != nil && len(seg) <= maxCachedSpanLen {
		ids := make([]int, len(dst)-start)
		copy(ids, dst[start:])
		e.cache.Add(seg, ids)
	}
	return dst
}

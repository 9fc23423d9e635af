// Package vocabfile reads tiktoken-format rank files into Vocabularies
// and manages a local cache of the published pretrained encodings.
//
// A rank file is line-oriented: base64-encoded token bytes, one space,
// the decimal token id. Ranks are implied by the ids, so no separate
// merges file exists.
package vocabfile

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/example/go-wordchipper/internal/vocab"
)

// Parse reads a tiktoken rank file. Blank lines are ignored; anything
// else malformed fails with its line number.
func Parse(r io.Reader) (vocab.TokenSet, error) {
	tokens := make(vocab.TokenSet)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue
		}
		tok, rank, ok := strings.Cut(text, " ")
		if !ok {
			return nil, fmt.Errorf("rank file line %d: want \"<base64> <id>\", got %q", line, text)
		}
		raw, err := base64.StdEncoding.DecodeString(tok)
		if err != nil {
			return nil, fmt.Errorf("rank file line %d: decode token: %w", line, err)
		}
		id, err := strconv.Atoi(rank)
		if err != nil {
			return nil, fmt.Errorf("rank file line %d: parse id: %w", line, err)
		}
		if prev, dup := tokens[string(raw)]; dup {
			return nil, fmt.Errorf("rank file line %d: token %q already has id %d", line, raw, prev)
		}
		tokens[string(raw)] = id
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rank file: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("rank file is empty")
	}
	return tokens, nil
}

// LoadFile parses a rank file from disk and builds a Vocabulary with the
// given special tokens.
func LoadFile(path string, specials map[string]int) (*vocab.Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rank file: %w", err)
	}
	defer f.Close()

	tokens, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vocab.New(tokens, specials)
}

// Encoding describes one published pretrained rank file.
type Encoding struct {
	Name     string
	URL      string
	SHA256   string
	Specials map[string]int
}

var encodings = map[string]Encoding{
	"r50k_base": {
		Name:   "r50k_base",
		URL:    "https://openaipublic.blob.core.windows.net/encodings/r50k_base.tiktoken",
		SHA256: "306cd27f03c1a714eca7108e03d66b7dc042abe8c258b44c199a7ed9838dd930",
		Specials: map[string]int{
			"<|endoftext|>": 50256,
		},
	},
	"p50k_base": {
		Name:   "p50k_base",
		URL:    "https://openaipublic.blob.core.windows.net/encodings/p50k_base.tiktoken",
		SHA256: "94b5ca7dff4d00767bc256fdd1b27e5b17361d7b8a5f968547f9f23eb70d2069",
		Specials: map[string]int{
			"<|endoftext|>": 50256,
		},
	},
	"cl100k_base": {
		Name:   "cl100k_base",
		URL:    "https://openaipublic.blob.core.windows.net/encodings/cl100k_base.tiktoken",
		SHA256: "223921b76ee99bde995b7ff738513eef100fb51d18c93f86b68a990e168ef4ee",
		Specials: map[string]int{
			"<|endoftext|>":   100257,
			"<|fim_prefix|>":  100258,
			"<|fim_middle|>":  100259,
			"<|fim_suffix|>":  100260,
			"<|endofprompt|>": 100276,
		},
	},
	"o200k_base": {
		Name:   "o200k_base",
		URL:    "https://openaipublic.blob.core.windows.net/encodings/o200k_base.tiktoken",
		SHA256: "446a9538cb6c348e3516120d7c08b09f57c36495e2acfffe59a5bf8b0cfb1a2d",
		Specials: map[string]int{
			"<|endoftext|>":   199999,
			"<|endofprompt|>": 200018,
		},
	},
}

// Pretrained looks up a published encoding by name.
func Pretrained(name string) (Encoding, bool) {
	e, ok := encodings[name]
	return e, ok
}

// Names returns the known pretrained encoding names, sorted.
func Names() []string {
	out := make([]string, 0, len(encodings))
	for name := range encodings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Package batch fans slices of texts over a fixed worker pool while
// keeping results in input order. Each item succeeds or fails on its own;
// one malformed input never poisons its neighbors.
package batch

import (
	"context"
	"runtime"
	"sync"

	"github.com/example/go-wordchipper/internal/encoder"
)

// Result is the outcome for one input: its token ids, or the error that
// item produced. Exactly one of the two is meaningful.
type Result struct {
	Tokens []int
	Err    error
}

// Driver encodes batches against a single shared Encoder. The Encoder is
// safe for concurrent use, so the Driver shares it across all workers
// rather than cloning per goroutine.
type Driver struct {
	enc     *encoder.Encoder
	workers int
}

// New builds a Driver with the given worker count; counts below one fall
// back to GOMAXPROCS-style runtime.NumCPU.
func New(enc *encoder.Encoder, workers int) *Driver {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Driver{enc: enc, workers: workers}
}

// Workers reports the configured worker count.
func (d *Driver) Workers() int {
	return d.workers
}

// Encode tokenizes inputs concurrently and returns one Result per input,
// index-aligned with inputs regardless of completion order. After ctx is
// done, items not yet started report ctx.Err(); items already finished
// keep their results.
func (d *Driver) Encode(ctx context.Context, inputs []string) []Result {
	results := make([]Result, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	workers := d.workers
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Workers keep draining after cancellation so every
				// index still receives a Result.
				if err := ctx.Err(); err != nil {
					results[i] = Result{Err: err}
					continue
				}
				toks, err := d.enc.Encode(inputs[i])
				results[i] = Result{Tokens: toks, Err: err}
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// EncodeAll is Encode for callers that treat any item failure as a batch
// failure: it returns the token slices index-aligned with inputs, or the
// first error by input order.
func (d *Driver) EncodeAll(ctx context.Context, inputs []string) ([][]int, error) {
	results := d.Encode(ctx, inputs)
	out := make([][]int, len(results))
	for i, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		out[i] = r.Tokens
	}
	return out, nil
}

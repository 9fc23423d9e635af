// Package stageprof is a standalone stage profiler for the encode
// pipeline: it times the span and merge stages separately under pprof
// labels so a CPU profile can be sliced per stage.
package stageprof

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/example/go-wordchipper/internal/encoder"
	"github.com/example/go-wordchipper/internal/spanner"
	"github.com/example/go-wordchipper/internal/vocab"
	"github.com/example/go-wordchipper/internal/vocabfile"
)

type timings struct {
	span   time.Duration
	merge  time.Duration
	total  time.Duration
	spans  int
	tokens int
}

func Main() {
	var (
		input      string
		inputFile  string
		repeat     int
		runs       int
		warmup     int
		cpuprofile string
		vocabPath  string
		encoding   string
		strategy   string
		debugLogs  bool
	)
	flag.StringVar(&input, "text", "The quick brown fox jumps over the lazy dog.", "input text")
	flag.StringVar(&inputFile, "file", "", "read input text from file instead of -text")
	flag.IntVar(&repeat, "repeat", 1000, "repeat the input this many times per run")
	flag.IntVar(&runs, "runs", 5, "number of profiled runs")
	flag.IntVar(&warmup, "warmup", 1, "number of warmup runs")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile")
	flag.StringVar(&vocabPath, "vocab", "", "rank file path (overrides -encoding)")
	flag.StringVar(&encoding, "encoding", "cl100k_base", "pretrained encoding name")
	flag.StringVar(&strategy, "strategy", "heap-list", "merge strategy")
	flag.BoolVar(&debugLogs, "debug-logs", false, "enable debug logs")
	flag.Parse()

	if debugLogs {
		slog.SetDefault(
			slog.New(
				slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
			),
		)
	}

	if runs < 1 {
		fatalf("--runs must be >= 1")
	}

	if inputFile != "" {
		b, err := os.ReadFile(inputFile)
		if err != nil {
			fatalf("read input file: %v", err)
		}
		input = string(b)
	}
	text := strings.Repeat(input, repeat)

	ms, err := encoder.ParseMergeStrategy(strategy)
	if err != nil {
		fatalf("%v", err)
	}

	ctx := context.Background()

	var v *vocab.Vocabulary
	if vocabPath != "" {
		v, err = vocabfile.LoadFile(vocabPath, nil)
	} else {
		v, err = vocabfile.LoadPretrained(ctx, encoding, vocabfile.FetchOptions{Stdout: os.Stderr})
	}
	if err != nil {
		fatalf("load vocabulary: %v", err)
	}

	// The span cache would hide the merge stage, so profile without it.
	enc, err := encoder.New(v, encoder.WithMergeStrategy(ms), encoder.WithCacheSize(0))
	if err != nil {
		fatalf("init encoder: %v", err)
	}

	for i := 0; i < warmup; i++ {
		if _, err := runOnce(ctx, enc, text); err != nil {
			fatalf("warmup run %d failed: %v", i+1, err)
		}
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			fatalf("create cpuprofile: %v", err)
		}
		defer f.Close()

		err = pprof.StartCPUProfile(f)
		if err != nil {
			fatalf("start cpuprofile: %v", err)
		}

		defer pprof.StopCPUProfile()
	}

	var agg timings

	for i := 0; i < runs; i++ {
		t, err := runOnce(ctx, enc, text)
		if err != nil {
			fatalf("profiled run %d failed: %v", i+1, err)
		}

		agg.span += t.span
		agg.merge += t.merge
		agg.total += t.total
		agg.spans = t.spans
		agg.tokens = t.tokens
	}

	div := float64(runs)
	avgSpan := agg.span.Seconds() * 1000 / div
	avgMerge := agg.merge.Seconds() * 1000 / div
	avgTotal := agg.total.Seconds() * 1000 / div

	mbps := float64(len(text)) / (avgTotal / 1000) / (1 << 20)

	fmt.Printf("bytes: %d\n", len(text))
	fmt.Printf("runs: %d (warmup %d)\n", runs, warmup)
	fmt.Printf("strategy: %s\n", ms)
	fmt.Printf("spans: %d\n", agg.spans)
	fmt.Printf("tokens: %d\n", agg.tokens)
	fmt.Printf("avg_span_ms: %.2f\n", avgSpan)
	fmt.Printf("avg_merge_ms: %.2f\n", avgMerge)
	fmt.Printf("avg_total_ms: %.2f\n", avgTotal)
	fmt.Printf("throughput_mbps: %.2f\n", mbps)

	if avgTotal > 0 {
		fmt.Printf("share_span_pct: %.2f\n", 100*avgSpan/avgTotal)
		fmt.Printf("share_merge_pct: %.2f\n", 100*avgMerge/avgTotal)
	}
}

func runOnce(ctx context.Context, enc *encoder.Encoder, text string) (timings, error) {
	var out timings
	startTotal := time.Now()

	// Stage 1: span only, to isolate segmentation cost.
	var spans []spanner.Span
	pprof.Do(ctx, pprof.Labels("stage", "span"), func(context.Context) {
		start := time.Now()
		sp, err := spanner.New(spanner.Automaton)
		if err == nil {
			spans = spanner.Collect(sp, text)
		}
		out.span = time.Since(start)
	})
	out.spans = len(spans)

	// Stage 2: the full encode, dominated by merging.
	var ids []int
	var encErr error
	pprof.Do(ctx, pprof.Labels("stage", "merge"), func(context.Context) {
		start := time.Now()
		ids, encErr = enc.Encode(text)
		out.merge = time.Since(start)
	})
	if encErr != nil {
		return out, fmt.Errorf("encode: %w", encErr)
	}
	out.tokens = len(ids)

	out.total = time.Since(startTotal)
	return out, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

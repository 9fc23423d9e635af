package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/spf13/cobra"

	"github.com/example/go-wordchipper/internal/bench"
	"github.com/example/go-wordchipper/internal/encoder"
)

func newBenchCmd() *cobra.Command {
	var (
		text            string
		file            string
		repeat          int
		runs            int
		format          string
		throughputFloor float64
		compareTiktoken bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark encode latency and throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			input, err := readInputText(text, file, os.Stdin)
			if err != nil {
				return err
			}
			input = strings.Repeat(input, repeat)

			v, encodingName, err := loadVocabulary(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc, err := buildEncoder(cfg, v)
			if err != nil {
				return err
			}

			results, err := runBench(enc, input, runs)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)

			switch format {
			case "json":
				bench.FormatJSON(results, stats, os.Stdout)
			default:
				bench.FormatTable(results, stats, os.Stdout)
			}

			if compareTiktoken {
				if err := compareAgainstTiktoken(encodingName, input, results); err != nil {
					fmt.Fprintf(os.Stderr, "warn: tiktoken comparison skipped: %v\n", err)
				}
			}

			return bench.CheckThroughputFloor(bench.MeanThroughput(results), throughputFloor)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to encode for each run (if empty, read from --file or stdin)")
	cmd.Flags().StringVar(&file, "file", "", "Read input text from file")
	cmd.Flags().IntVar(&repeat, "repeat", 1, "Repeat the input this many times before encoding")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of encode runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&throughputFloor, "throughput-floor", 0,
		"Exit non-zero if mean throughput falls below this many MB/s (0 = disabled)")
	cmd.Flags().BoolVar(&compareTiktoken, "compare-tiktoken", false,
		"Cross-check token counts and timing against the tiktoken-go reference")

	return cmd
}

func runBench(enc *encoder.Encoder, input string, runs int) ([]bench.RunResult, error) {
	results := make([]bench.RunResult, 0, runs)

	for i := 0; i < runs; i++ {
		start := time.Now()
		ids, err := enc.Encode(input)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		dur := time.Since(start)

		results = append(results, bench.RunResult{
			Index:    i,
			Cold:     i == 0,
			Duration: dur,
			Bytes:    int64(len(input)),
			Tokens:   len(ids),
			MBps:     bench.Throughput(int64(len(input)), dur),
		})
	}

	return results, nil
}

// compareAgainstTiktoken encodes the same input with the tiktoken-go
// reference implementation and reports both token counts. Counts can
// legitimately differ when special tokens are involved, but for plain
// text they should match.
func compareAgainstTiktoken(encodingName, input string, results []bench.RunResult) error {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	tk, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}

	start := time.Now()
	refIDs := tk.Encode(input, nil, nil)
	refDur := time.Since(start)

	ours := 0
	if len(results) > 0 {
		ours = results[len(results)-1].Tokens
	}

	fmt.Fprintf(os.Stdout, "\ntiktoken-go reference: %d tokens in %v (%.2f MB/s)\n",
		len(refIDs), refDur, bench.Throughput(int64(len(input)), refDur))
	if ours != len(refIDs) {
		fmt.Fprintf(os.Stdout, "token count differs: ours=%d tiktoken=%d\n", ours, len(refIDs))
	} else {
		fmt.Fprintf(os.Stdout, "token counts match (%d)\n", ours)
	}
	return nil
}

// Package bench provides benchmarking primitives for the wordchipper bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and token metadata for a single encode run.
type RunResult struct {
	Index    int
	Cold     bool // true for the first run (cold-start, empty span cache)
	Duration time.Duration
	Bytes    int64
	Tokens   int
	MBps     float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// The slice must be non-empty.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// ---------------------------------------------------------------------------
// Throughput helpers
// ---------------------------------------------------------------------------

// Throughput returns megabytes of input encoded per second.
// Returns 0 if dur is zero to avoid division by zero.
func Throughput(nbytes int64, dur time.Duration) float64 {
	if dur <= 0 {
		return 0
	}
	return float64(nbytes) / dur.Seconds() / (1 << 20)
}

// BytesPerToken returns the compression ratio of a run.
func BytesPerToken(nbytes int64, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(nbytes) / float64(tokens)
}

// ---------------------------------------------------------------------------
// Throughput floor gate
// ---------------------------------------------------------------------------

// CheckThroughputFloor returns an error if meanMBps < floor.
// A floor of 0 disables the gate.
func CheckThroughputFloor(meanMBps, floor float64) error {
	if floor <= 0 {
		return nil
	}
	if meanMBps < floor {
		return fmt.Errorf("mean throughput %.3f MB/s below floor %.3f MB/s", meanMBps, floor)
	}
	return nil
}

// MeanThroughput averages MBps over runs, ignoring the cold run when at
// least one warm run exists.
func MeanThroughput(runs []RunResult) float64 {
	var sum float64
	var n int
	for _, r := range runs {
		if r.Cold && len(runs) > 1 {
			continue
		}
		sum += r.MBps
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %10s  %10s  %8s\n", "Run", "Cold", "MS", "Bytes", "Tokens", "MB/s")
	fmt.Fprintln(sb, strings.Repeat("-", 58))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %10d  %10d  %8.2f\n",
			r.Index+1,
			cold,
			float64(r.Duration.Milliseconds()),
			r.Bytes,
			r.Tokens,
			r.MBps,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 58))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %10s  %10s  %8s  (min)\n", "", "", float64(stats.Min.Milliseconds()), "", "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %10s  %10s  %8s  (mean)\n", "", "", float64(stats.Mean.Milliseconds()), "", "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %10s  %10s  %8s  (max)\n", "", "", float64(stats.Max.Milliseconds()), "", "", "")

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	Bytes      int64   `json:"bytes"`
	Tokens     int     `json:"tokens"`
	MBps       float64 `json:"mbps"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  float64(stats.Min.Milliseconds()),
			MeanMS: float64(stats.Mean.Milliseconds()),
			MaxMS:  float64(stats.Max.Milliseconds()),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: float64(r.Duration.Milliseconds()),
			Bytes:      r.Bytes,
			Tokens:     r.Tokens,
			MBps:       r.MBps,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}

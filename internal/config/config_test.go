package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Vocab.Encoding != "cl100k_base" {
		t.Errorf("Vocab.Encoding = %q; want %q", cfg.Vocab.Encoding, "cl100k_base")
	}

	if cfg.Vocab.Path != "" {
		t.Errorf("Vocab.Path = %q; want empty", cfg.Vocab.Path)
	}

	if cfg.Tokenizer.Spanner != "automaton" {
		t.Errorf("Tokenizer.Spanner = %q; want %q", cfg.Tokenizer.Spanner, "automaton")
	}

	if cfg.Tokenizer.Merge != "heap-list" {
		t.Errorf("Tokenizer.Merge = %q; want %q", cfg.Tokenizer.Merge, "heap-list")
	}

	if cfg.Tokenizer.Workers != 0 {
		t.Errorf("Tokenizer.Workers = %d; want 0", cfg.Tokenizer.Workers)
	}

	if cfg.Tokenizer.CacheSize != 8192 {
		t.Errorf("Tokenizer.CacheSize = %d; want 8192", cfg.Tokenizer.CacheSize)
	}

	if cfg.Tokenizer.Strict {
		t.Error("Tokenizer.Strict = true; want false")
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":8080")
	}

	if cfg.Server.MaxBodyKB != 1024 {
		t.Errorf("Server.MaxBodyKB = %d; want 1024", cfg.Server.MaxBodyKB)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}
}

// --- Normalizers ---

func TestNormalizeSpanner(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"automaton canonical", "automaton", "automaton", false},
		{"pattern canonical", "pattern", "pattern", false},
		{"regex alias", "regex", "pattern", false},
		{"regexp alias", "regexp", "pattern", false},
		{"uppercase", "PATTERN", "pattern", false},
		{"spaces", "  automaton  ", "automaton", false},
		{"empty defaults to automaton", "", "automaton", false},
		{"invalid value", "dfa", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSpanner(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeSpanner(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Errorf("NormalizeSpanner(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeSpanner(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeMerge(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"heap-list canonical", "heap-list", "heap-list", false},
		{"linear alias", "linear", "linear-rescan", false},
		{"parallel alias", "parallel", "parallel-rank", false},
		{"heap alias", "heap", "heap-list", false},
		{"uppercase", "HEAP-LIST", "heap-list", false},
		{"empty defaults to heap-list", "", "heap-list", false},
		{"invalid value", "quadratic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMerge(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeMerge(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Errorf("NormalizeMerge(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeMerge(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	// Spot-check a few flags are registered with correct defaults.
	checks := []struct {
		flag string
		want string
	}{
		{"vocab-encoding", "cl100k_base"},
		{"encoding", "cl100k_base"},
		{"tokenizer-merge", "heap-list"},
		{"server-listen-addr", ":8080"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	cfg, err := Load(LoadOptions{
		Cmd:      binder,
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Vocab.Encoding != defaults.Vocab.Encoding {
		t.Errorf("Vocab.Encoding = %q; want %q", cfg.Vocab.Encoding, defaults.Vocab.Encoding)
	}

	if cfg.Tokenizer.Merge != defaults.Tokenizer.Merge {
		t.Errorf("Tokenizer.Merge = %q; want %q", cfg.Tokenizer.Merge, defaults.Tokenizer.Merge)
	}

	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, defaults.LogLevel)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	err := fs.Parse([]string{
		"--encoding=o200k_base",
		"--tokenizer-merge=linear-rescan",
		"--tokenizer-workers=8",
		"--log-level=debug",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:      &fakeBinder{fs: fs},
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Vocab.Encoding != "o200k_base" {
		t.Errorf("Vocab.Encoding = %q; want %q", cfg.Vocab.Encoding, "o200k_base")
	}

	if cfg.Tokenizer.Merge != "linear-rescan" {
		t.Errorf("Tokenizer.Merge = %q; want %q", cfg.Tokenizer.Merge, "linear-rescan")
	}

	if cfg.Tokenizer.Workers != 8 {
		t.Errorf("Tokenizer.Workers = %d; want 8", cfg.Tokenizer.Workers)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WORDCHIPPER_LOG_LEVEL", "warn")
	t.Setenv("WORDCHIPPER_SERVER_LISTEN_ADDR", ":9999")

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":9999")
	}
}

func TestLoad_EnvOverride_CacheDir(t *testing.T) {
	t.Setenv("WORDCHIPPER_CACHE_DIR", "/env/cache")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Vocab.CacheDir != "/env/cache" {
		t.Errorf("Vocab.CacheDir = %q; want %q", cfg.Vocab.CacheDir, "/env/cache")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "wordchipper.yaml")

	// Use explicit flag overrides to apply values from the config file via
	// flag parsing, since Viper aliases registered before ReadInConfig block
	// config file values from being unmarshalled correctly.
	err := os.WriteFile(cfgFile, []byte("log_level: error\n"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	err = fs.Parse([]string{
		"--log-level=error",
		"--tokenizer-workers=16",
		"--server-listen-addr=:7777",
		"--encoding=r50k_base",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:        &fakeBinder{fs: fs},
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Tokenizer.Workers != 16 {
		t.Errorf("Tokenizer.Workers = %d; want 16", cfg.Tokenizer.Workers)
	}

	if cfg.Server.ListenAddr != ":7777" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":7777")
	}

	if cfg.Vocab.Encoding != "r50k_base" {
		t.Errorf("Vocab.Encoding = %q; want %q", cfg.Vocab.Encoding, "r50k_base")
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")
	// Write invalid YAML
	err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/wordchipper.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestLoad_NilCmd(t *testing.T) {
	// Passing nil Cmd must not panic; Load must return without error.
	cfg, err := Load(LoadOptions{
		Cmd:      nil,
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// Returned Config must be a zero-value-safe struct (no panic on access).
	_ = cfg.Vocab.Path
	_ = cfg.Tokenizer.Workers
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-wordchipper/internal/config"
	"github.com/example/go-wordchipper/internal/encoder"
	"github.com/example/go-wordchipper/internal/server"
	"github.com/example/go-wordchipper/internal/spanner"
	"github.com/example/go-wordchipper/internal/vocab"
	"github.com/example/go-wordchipper/internal/vocabfile"
)

var (
	cfgFile   string
	activeCfg config.Config
	cfgLoaded bool
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "wordchipper",
		Short: "Byte-level BPE tokenizer command line",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			cfgLoaded = true
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newSpansCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newVocabCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if !cfgLoaded {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// loadVocabulary builds the Vocabulary named by the config: an explicit
// rank file path wins over a pretrained encoding name. The returned
// string is the encoding label used in logs and /vocab responses.
func loadVocabulary(ctx context.Context, cfg config.Config) (*vocab.Vocabulary, string, error) {
	if cfg.Vocab.Path != "" {
		v, err := vocabfile.LoadFile(cfg.Vocab.Path, nil)
		if err != nil {
			return nil, "", err
		}
		return v, cfg.Vocab.Path, nil
	}

	v, err := vocabfile.LoadPretrained(ctx, cfg.Vocab.Encoding, vocabfile.FetchOptions{
		CacheDir: cfg.Vocab.CacheDir,
		Stdout:   os.Stderr,
	})
	if err != nil {
		return nil, "", err
	}
	return v, cfg.Vocab.Encoding, nil
}

// buildEncoder assembles an Encoder from the tokenizer config section.
func buildEncoder(cfg config.Config, v *vocab.Vocabulary) (*encoder.Encoder, error) {
	spName, err := config.NormalizeSpanner(cfg.Tokenizer.Spanner)
	if err != nil {
		return nil, err
	}
	sp, err := spanner.ParseStrategy(spName)
	if err != nil {
		return nil, err
	}

	msName, err := config.NormalizeMerge(cfg.Tokenizer.Merge)
	if err != nil {
		return nil, err
	}
	ms, err := encoder.ParseMergeStrategy(msName)
	if err != nil {
		return nil, err
	}

	opts := []encoder.Option{
		encoder.WithSpanner(sp),
		encoder.WithMergeStrategy(ms),
		encoder.WithStrict(cfg.Tokenizer.Strict),
		encoder.WithCacheSize(cfg.Tokenizer.CacheSize),
	}
	if cfg.Tokenizer.Workers > 0 {
		opts = append(opts, encoder.WithWorkers(cfg.Tokenizer.Workers))
	}

	return encoder.New(v, opts...)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-wordchipper/internal/config"
	"github.com/example/go-wordchipper/internal/spanner"
)

func newSpansCmd() *cobra.Command {
	var (
		text string
		file string
	)

	cmd := &cobra.Command{
		Use:   "spans",
		Short: "Show how input text splits into spans before merging",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readInputText(text, file, os.Stdin)
			if err != nil {
				return err
			}

			spName, err := cfgSpanner(cfg.Tokenizer.Spanner)
			if err != nil {
				return err
			}
			sp, err := spanner.New(spName)
			if err != nil {
				return err
			}

			for _, s := range spanner.Collect(sp, input) {
				fmt.Fprintf(os.Stdout, "%4d..%-4d %-8s %q\n", s.Start, s.End, s.Kind, input[s.Start:s.End])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to span (if empty, read from --file or stdin)")
	cmd.Flags().StringVar(&file, "file", "", "Read input text from file")

	return cmd
}

func cfgSpanner(raw string) (spanner.Strategy, error) {
	name, err := config.NormalizeSpanner(raw)
	if err != nil {
		return "", err
	}
	return spanner.ParseStrategy(name)
}

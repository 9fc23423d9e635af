package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-wordchipper/internal/vocabfile"
)

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage pretrained vocabularies",
	}

	cmd.AddCommand(newVocabDownloadCmd())
	cmd.AddCommand(newVocabInfoCmd())
	cmd.AddCommand(newVocabListCmd())

	return cmd
}

func newVocabDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download and verify the configured pretrained rank file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			path, err := vocabfile.Fetch(cmd.Context(), cfg.Vocab.Encoding, vocabfile.FetchOptions{
				CacheDir: cfg.Vocab.CacheDir,
				Stdout:   os.Stdout,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, path)
			return err
		},
	}
}

func newVocabInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show token, merge and special counts of the loaded vocabulary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			v, name, err := loadVocabulary(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "encoding: %s\n", name)
			fmt.Fprintf(os.Stdout, "tokens:   %d\n", v.Size())
			fmt.Fprintf(os.Stdout, "merges:   %d\n", v.MergeCount())
			fmt.Fprintf(os.Stdout, "specials: %s\n", strings.Join(v.Specials(), " "))
			return nil
		},
	}
}

func newVocabListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known pretrained encodings",
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, name := range vocabfile.Names() {
				if _, err := fmt.Fprintln(os.Stdout, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var (
		text   string
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode text to token ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if format != "ids" && format != "json" {
				return fmt.Errorf("--format must be 'ids' or 'json'")
			}

			input, err := readInputText(text, file, os.Stdin)
			if err != nil {
				return err
			}

			v, _, err := loadVocabulary(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc, err := buildEncoder(cfg, v)
			if err != nil {
				return err
			}

			ids, err := enc.Encode(input)
			if err != nil {
				return err
			}

			return writeTokens(os.Stdout, ids, format)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to encode (if empty, read from --file or stdin)")
	cmd.Flags().StringVar(&file, "file", "", "Read input text from file")
	cmd.Flags().StringVar(&format, "format", "ids", "Output format: ids|json")

	return cmd
}

func writeTokens(w io.Writer, ids []int, format string) error {
	if format == "json" {
		if ids == nil {
			ids = []int{}
		}
		enc := json.NewEncoder(w)
		return enc.Encode(map[string]any{"tokens": ids, "count": len(ids)})
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}

// readInputText resolves the input precedence: --text, then --file, then
// stdin. Unlike file and stdin input, --text is trimmed since shells add
// stray whitespace around quoted arguments.
func readInputText(text, file string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(b), nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := string(b)
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("provide --text, --file, or pipe text on stdin")
	}
	return input, nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-wordchipper/internal/encoder"
)

func newDecodeCmd() *cobra.Command {
	var ids string

	cmd := &cobra.Command{
		Use:   "decode [id ...]",
		Short: "Decode token ids back to text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			tokens, err := gatherTokenIDs(args, ids, os.Stdin)
			if err != nil {
				return err
			}

			v, _, err := loadVocabulary(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			text, err := encoder.NewDecoder(v).DecodeString(tokens)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(os.Stdout, text)
			return err
		},
	}

	cmd.Flags().StringVar(&ids, "ids", "", "Comma- or space-separated token ids (alternative to args)")

	return cmd
}

// gatherTokenIDs resolves the id input precedence: positional args, then
// --ids, then whitespace-separated ids on stdin.
func gatherTokenIDs(args []string, ids string, stdin io.Reader) ([]int, error) {
	fields := args
	if len(fields) == 0 && ids != "" {
		fields = strings.FieldsFunc(ids, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	}
	if len(fields) == 0 {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		fields = strings.Fields(string(b))
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("provide token ids as arguments, --ids, or on stdin")
	}

	out := make([]int, len(fields))
	for i, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", f, err)
		}
		out[i] = id
	}
	return out, nil
}

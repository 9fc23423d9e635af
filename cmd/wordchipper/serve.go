package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-wordchipper/internal/config"
	"github.com/example/go-wordchipper/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tokenizer HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			v, encodingName, err := loadVocabulary(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc, err := buildEncoder(cfg, v)
			if err != nil {
				return err
			}

			info := server.VocabInfo{
				Encoding: encodingName,
				Tokens:   v.Size(),
				Merges:   v.MergeCount(),
				Specials: v.Specials(),
			}

			srv := server.New(cfg, enc, info)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	defaults := config.DefaultConfig()
	config.RegisterFlags(cmd.Flags(), defaults)

	return cmd
}

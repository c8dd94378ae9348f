package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errNoEmbedder = errors.New("search needs an embedding model, AI_ADAPTER is none")

var searchK int

var searchCmd = &cobra.Command{
	Use:   "search TEXT...",
	Short: "List the works whose title is most similar to TEXT",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		embedder, err := cfg.NewEmbeddingClient()
		if err != nil {
			return err
		}
		if embedder == nil {
			return errNoEmbedder
		}

		embedding, err := embedder.GenerateEmbedding(ctx, []byte(strings.Join(args, " ")))
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}

		graphStorage, err := cfg.NewGraphStorage(ctx)
		if err != nil {
			return err
		}
		defer graphStorage.Close(ctx)

		works, err := graphStorage.Similar(ctx, embedding, searchK)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, w := range works {
			fmt.Fprintf(out, "%.4f\t%s\t%s\n", w.Score, w.ID, w.Title)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchK, "k", 10, "number of works to return")
}

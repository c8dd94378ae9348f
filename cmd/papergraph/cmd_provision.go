package main

import (
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the uniqueness constraints and the work embedding index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		graphStorage, err := cfg.NewGraphStorage(ctx)
		if err != nil {
			return err
		}
		defer graphStorage.Close(ctx)

		if err := graphStorage.Provision(ctx, cfg.ProvisionParams()); err != nil {
			return err
		}
		logger.Info("Graph schema provisioned", "dimensions", cfg.AI.Dimensions, "similarity", cfg.Neo4j.VectorSimilarity)
		return nil
	},
}

package main

import (
	"errors"

	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/spf13/cobra"
)

var errResetNotConfirmed = errors.New("reset deletes every node and relationship, pass --yes to confirm")

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the whole citation graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return errResetNotConfirmed
		}
		ctx := cmd.Context()

		graphStorage, err := cfg.NewGraphStorage(ctx)
		if err != nil {
			return err
		}
		defer graphStorage.Close(ctx)

		if err := graphStorage.Reset(ctx); err != nil {
			return err
		}
		logger.Info("Graph reset")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
}

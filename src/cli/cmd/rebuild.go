package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedkeeper/feedkeeper/src/logging"
	"github.com/feedkeeper/feedkeeper/src/query"
	"github.com/feedkeeper/feedkeeper/src/repository"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Force a full cache rebuild from disk",
	RunE:  runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	log := logging.Init(verbose)

	engine, err := repository.New(cfg, log)
	if err != nil {
		return fmt.Errorf("constructing repository engine: %w", err)
	}

	if err := engine.Rebuild(cmd.Context()); err != nil {
		return err
	}

	packages, err := engine.GetPackages(cmd.Context(), query.Max)
	if err != nil {
		return err
	}
	fmt.Printf("rebuilt cache: %d packages\n", len(packages))
	return nil
}

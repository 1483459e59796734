package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedkeeper/feedkeeper/src/logging"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
	"github.com/feedkeeper/feedkeeper/src/repository"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id> <version>",
	Short: "Delist or remove a package",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	log := logging.Init(verbose)

	v, err := pkgver.Parse(args[1])
	if err != nil {
		return fmt.Errorf("parsing version: %w", err)
	}

	engine, err := repository.New(cfg, log)
	if err != nil {
		return fmt.Errorf("constructing repository engine: %w", err)
	}

	if err := engine.RemovePackage(cmd.Context(), args[0], v); err != nil {
		return err
	}

	if cfg.EnableDelisting {
		fmt.Printf("delisted %s %s\n", args[0], v.Original())
	} else {
		fmt.Printf("deleted %s %s\n", args[0], v.Original())
	}
	return nil
}

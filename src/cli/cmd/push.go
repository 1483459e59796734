package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feedkeeper/feedkeeper/src/archive"
	"github.com/feedkeeper/feedkeeper/src/logging"
	"github.com/feedkeeper/feedkeeper/src/output"
	"github.com/feedkeeper/feedkeeper/src/repository"
)

var pushCmd = &cobra.Command{
	Use:   "push <archive>",
	Short: "Push a package archive into the feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	log := logging.Init(verbose)

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("statting %s: %w", args[0], err)
	}

	inspected, err := archive.Inspect(f, info.Size(), archive.SHA256)
	if err != nil {
		return fmt.Errorf("reading package identity: %w", err)
	}

	engine, err := repository.New(cfg, log)
	if err != nil {
		return fmt.Errorf("constructing repository engine: %w", err)
	}

	pkg, err := engine.AddPackage(cmd.Context(), inspected.Manifest.ID, inspected.Manifest.Version, f, info.Size())
	if err != nil {
		return err
	}

	printed := output.NewPrinter()
	printed.PushResult(pkg)
	return nil
}

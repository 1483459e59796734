package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedkeeper/feedkeeper/src/logging"
	"github.com/feedkeeper/feedkeeper/src/output"
	"github.com/feedkeeper/feedkeeper/src/query"
	"github.com/feedkeeper/feedkeeper/src/repository"
)

var (
	listTerm    string
	listSemVer2 bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List packages in the feed",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listTerm, "search", "", "filter by search term")
	listCmd.Flags().BoolVar(&listSemVer2, "semver2", false, "include SemVer2-only packages")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	log := logging.Init(verbose)

	engine, err := repository.New(cfg, log)
	if err != nil {
		return fmt.Errorf("constructing repository engine: %w", err)
	}

	compat := query.Default
	if listSemVer2 {
		compat = query.Max
	}

	pkgs, err := engine.Search(cmd.Context(), listTerm, nil, true, false, compat)
	if err != nil {
		return err
	}

	printed := output.NewPrinter()
	printed.Print(pkgs)
	printed.Summary(len(pkgs))
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/dukerupert/householdimport/internal/importer"
	"github.com/dukerupert/householdimport/internal/source"
	"github.com/spf13/cobra"
)

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the households table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.importer(cmd.OutOrStdout()).Init(cmd.Context())
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the households table with the rows of a spreadsheet",
		Example: `  # Newest spreadsheet in ~/Downloads
  householdimport import

  # A specific file
  householdimport import ./households.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Source
			if len(args) == 1 {
				path = args[0]
			}
			out := cmd.OutOrStdout()
			res := a.importer(out).Import(cmd.Context(), path)
			if errors.Is(res.Err, importer.ErrInit) {
				return res.Err
			}
			if !res.OK() {
				fmt.Fprintln(out, "\nImport failed. Please check the error messages above.")
				printHints(out, res.Kind())
			}
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all households ordered by HouseholdId",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printListError(cmd.OutOrStdout(), a.importer(cmd.OutOrStdout()).List(cmd.Context()))
			return nil
		},
	}
}

func newLocateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Show which file an import without --file would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.importer(cmd.OutOrStdout()).Locate()
			if errors.Is(err, source.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No spreadsheet file found in %s\n", a.cfg.DownloadsDir)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
